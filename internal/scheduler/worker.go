package scheduler

import (
	"context"
	"fmt"
	"time"

	"profile_portal_backend/internal/email"
	"profile_portal_backend/platform/config"
	"profile_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// OTPDeliverer sends a code to a phone number.
type OTPDeliverer interface {
	DeliverOTP(ctx context.Context, phone, code string) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	otp    OTPDeliverer
	mailer email.Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, otp OTPDeliverer, mailer email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(otp, mailer, log)
	w.server = server
	return w, nil
}

func newWorker(otp OTPDeliverer, mailer email.Sender, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:    mux,
		otp:    otp,
		mailer: mailer,
		log:    log,
	}

	mux.HandleFunc(TaskPhoneOTPDeliver, w.handlePhoneOTPDeliver)
	mux.HandleFunc(TaskNotificationEmail, w.handleNotificationEmail)
	return w
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}

func (w *Worker) handlePhoneOTPDeliver(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePhoneOTPDeliverPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if w.otp == nil {
		return nil
	}
	return w.otp.DeliverOTP(ctx, payload.Phone, payload.Code)
}

func (w *Worker) handleNotificationEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotificationEmailPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if w.mailer == nil || payload.To == "" {
		return nil
	}

	switch payload.Kind {
	case EmailPasswordChanged:
		return w.mailer.SendPasswordChangedEmail(ctx, payload.To, payload.Username, time.Unix(payload.OccurredAt, 0))
	case EmailPhoneVerified:
		return w.mailer.SendPhoneVerifiedEmail(ctx, payload.To, payload.Username, payload.Phone)
	default:
		w.log.Warn("unknown notification email kind", "kind", payload.Kind)
		return nil
	}
}
