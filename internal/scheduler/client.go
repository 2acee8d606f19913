package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"profile_portal_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	otpDeliverTimeout = 30 * time.Second
	otpDeliverRetry   = 3
	emailRetry        = 5
)

type Client struct {
	client *asynq.Client
	queue  string
}

// OTPDeliveryScheduler queues an OTP for delivery to the user's phone.
type OTPDeliveryScheduler interface {
	EnqueueOTPDelivery(ctx context.Context, payload PhoneOTPDeliverPayload) error
}

// EmailScheduler queues a notification email.
type EmailScheduler interface {
	EnqueueEmail(ctx context.Context, payload NotificationEmailPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueOTPDelivery queues the code for immediate delivery. The code is
// useless after the OTP TTL, so retries are few.
func (c *Client) EnqueueOTPDelivery(ctx context.Context, payload PhoneOTPDeliverPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewPhoneOTPDeliverTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(otpDeliverRetry),
		asynq.Timeout(otpDeliverTimeout),
	)
	return err
}

func (c *Client) EnqueueEmail(ctx context.Context, payload NotificationEmailPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewNotificationEmailTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(emailRetry))
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
