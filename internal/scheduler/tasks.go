package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPhoneOTPDeliver = "phone.otp.deliver"

const TaskNotificationEmail = "notification.email"

// Email kinds carried by TaskNotificationEmail.
const (
	EmailPasswordChanged = "password_changed"
	EmailPhoneVerified   = "phone_verified"
)

// PhoneOTPDeliverPayload carries a freshly issued code to the delivery worker.
// Phone is in international form.
type PhoneOTPDeliverPayload struct {
	UserID string `json:"userId"`
	Phone  string `json:"phone"`
	Code   string `json:"code"`
}

type NotificationEmailPayload struct {
	Kind       string `json:"kind"`
	To         string `json:"to"`
	Username   string `json:"username"`
	Phone      string `json:"phone,omitempty"`
	OccurredAt int64  `json:"occurredAt"`
}

func NewPhoneOTPDeliverTask(payload PhoneOTPDeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPhoneOTPDeliver, data), nil
}

func ParsePhoneOTPDeliverPayload(task *asynq.Task) (PhoneOTPDeliverPayload, error) {
	var payload PhoneOTPDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PhoneOTPDeliverPayload{}, err
	}
	return payload, nil
}

func NewNotificationEmailTask(payload NotificationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationEmail, data), nil
}

func ParseNotificationEmailPayload(task *asynq.Task) (NotificationEmailPayload, error) {
	var payload NotificationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationEmailPayload{}, err
	}
	return payload, nil
}
