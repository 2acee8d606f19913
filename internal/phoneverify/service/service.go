// Package service implements phone number verification by one-time code.
package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"profile_portal_backend/internal/auth"
	"profile_portal_backend/internal/events"
	"profile_portal_backend/internal/phoneverify/store"
	"profile_portal_backend/internal/phoneverify/transport"
	"profile_portal_backend/internal/scheduler"
	"profile_portal_backend/platform/apperr"
	"profile_portal_backend/platform/config"
	"profile_portal_backend/platform/i18n"
	"profile_portal_backend/platform/logger"
	"profile_portal_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// CodeStore is the subset of store.Store the service needs.
type CodeStore interface {
	Save(ctx context.Context, userID, phone, code string) error
	PendingPhone(ctx context.Context, userID string) (string, error)
	CooldownRemaining(ctx context.Context, userID string) (time.Duration, error)
	Verify(ctx context.Context, userID, phone, code string) error
	Release(ctx context.Context, userID string) error
}

// PhoneSetter stores a verified number on the user's profile.
type PhoneSetter interface {
	SetVerifiedPhone(ctx context.Context, userID uuid.UUID, international string) error
}

type Service struct {
	store      CodeStore
	delivery   scheduler.OTPDeliveryScheduler
	phones     PhoneSetter
	users      auth.UserProvider
	msgs       *i18n.Catalog
	codeLength int
	cooldown   time.Duration
	eventBus   events.Publisher
	log        *logger.Logger
}

func New(
	codes CodeStore,
	delivery scheduler.OTPDeliveryScheduler,
	phones PhoneSetter,
	users auth.UserProvider,
	msgs *i18n.Catalog,
	cfg config.OTPConfig,
	eventBus events.Publisher,
	log *logger.Logger,
) *Service {
	return &Service{
		store:      codes,
		delivery:   delivery,
		phones:     phones,
		users:      users,
		msgs:       msgs,
		codeLength: cfg.GetOTPLength(),
		cooldown:   cfg.GetOTPCooldown(),
		eventBus:   eventBus,
		log:        log,
	}
}

// Send validates a national number and queues a fresh code for it.
func (s *Service) Send(ctx context.Context, userID uuid.UUID, lang language.Tag, raw string) (transport.SendCodeResponse, error) {
	international, err := s.parsePhone(lang, raw, "phoneverify.send")
	if err != nil {
		return transport.SendCodeResponse{}, err
	}
	if err := s.issue(ctx, userID, lang, international); err != nil {
		return transport.SendCodeResponse{}, err
	}
	return transport.SendCodeResponse{
		Detail:     s.msgs.T(lang, "otp.sent", nil),
		RetryAfter: seconds(s.cooldown),
	}, nil
}

// Resend is Send for a number that already has a code outstanding.
func (s *Service) Resend(ctx context.Context, userID uuid.UUID, lang language.Tag, raw string) (transport.SendCodeResponse, error) {
	international, err := s.parsePhone(lang, raw, "phoneverify.resend")
	if err != nil {
		return transport.SendCodeResponse{}, err
	}

	pending, err := s.store.PendingPhone(ctx, userID.String())
	if errors.Is(err, store.ErrNoPending) || (err == nil && pending != international) {
		return transport.SendCodeResponse{}, apperr.BadRequest(s.msgs.T(lang, "otp.no_pending", nil)).WithOp("phoneverify.resend")
	}
	if err != nil {
		return transport.SendCodeResponse{}, apperr.Wrap(apperr.KindInternal, "failed to read pending verification", err).WithOp("phoneverify.resend")
	}

	if err := s.issue(ctx, userID, lang, international); err != nil {
		return transport.SendCodeResponse{}, err
	}
	return transport.SendCodeResponse{
		Detail:     s.msgs.T(lang, "otp.resent", nil),
		RetryAfter: seconds(s.cooldown),
	}, nil
}

// Confirm checks a code and, when it matches, stores the number on the
// profile as verified.
func (s *Service) Confirm(ctx context.Context, userID uuid.UUID, lang language.Tag, req transport.ConfirmRequest) (transport.ConfirmResponse, error) {
	international, err := s.parsePhone(lang, req.Phone, "phoneverify.confirm")
	if err != nil {
		return transport.ConfirmResponse{}, err
	}

	code := strings.TrimSpace(req.Code)
	if len(code) != s.codeLength || !isNumeric(code) {
		msg := s.msgs.T(lang, "otp.code_format", map[string]string{"length": strconv.Itoa(s.codeLength)})
		return transport.ConfirmResponse{}, apperr.Validation(msg).
			WithOp("phoneverify.confirm").
			WithDetails(map[string][]string{"code": {msg}})
	}

	if err := s.store.Verify(ctx, userID.String(), international, code); err != nil {
		s.log.OTPEvent("confirm", international, false, err.Error())
		return transport.ConfirmResponse{}, s.verifyError(lang, err)
	}

	if err := s.phones.SetVerifiedPhone(ctx, userID, international); err != nil {
		return transport.ConfirmResponse{}, err
	}
	s.log.OTPEvent("confirm", international, true, "")

	event := events.PhoneVerified{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Phone:     international,
	}
	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		event.Username = user.Username
		event.Email = user.Email
	}
	s.eventBus.Publish(ctx, event)

	return transport.ConfirmResponse{
		Detail: s.msgs.T(lang, "otp.verified", nil),
		Phone:  international,
	}, nil
}

// parsePhone sanitizes and validates national input, returning the
// international form. Failures carry the kind so clients can pick their own
// wording.
func (s *Service) parsePhone(lang language.Tag, raw, op string) (string, error) {
	national := phone.Sanitize(raw)
	res := phone.ValidateNational(national)
	if !res.OK() {
		s.log.PhoneRejected(op, res)
		msg := s.msgs.Phone(lang, res)
		body := map[string]any{
			"phone": []string{msg},
			"kind":  res.Kind.String(),
		}
		if res.Kind == phone.WrongLength {
			body["length"] = res.Actual
		}
		return "", apperr.Validation(msg).WithOp(op).WithDetails(body)
	}
	return phone.ToInternational(national), nil
}

func (s *Service) issue(ctx context.Context, userID uuid.UUID, lang language.Tag, international string) error {
	code, err := generateNumericOTP(s.codeLength)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to generate code", err).WithOp("phoneverify.issue")
	}

	if err := s.store.Save(ctx, userID.String(), international, code); err != nil {
		switch {
		case errors.Is(err, store.ErrCooldown):
			s.log.OTPEvent("send", international, false, "cooldown")
			remaining, _ := s.store.CooldownRemaining(ctx, userID.String())
			msg := s.msgs.T(lang, "otp.cooldown", nil)
			return apperr.TooManyRequests(msg).WithOp("phoneverify.issue").WithDetails(map[string]any{
				"detail":      msg,
				"retry_after": seconds(remaining),
			})
		case errors.Is(err, store.ErrRateLimited):
			s.log.OTPEvent("send", international, false, "rate_limited")
			return apperr.TooManyRequests(s.msgs.T(lang, "otp.rate_limited", nil)).WithOp("phoneverify.issue")
		default:
			return apperr.Wrap(apperr.KindInternal, "failed to store code", err).WithOp("phoneverify.issue")
		}
	}

	payload := scheduler.PhoneOTPDeliverPayload{
		UserID: userID.String(),
		Phone:  international,
		Code:   code,
	}
	if err := s.delivery.EnqueueOTPDelivery(ctx, payload); err != nil {
		if relErr := s.store.Release(context.WithoutCancel(ctx), userID.String()); relErr != nil {
			s.log.WithContext(ctx).Error("failed to release otp after queue failure", "error", relErr)
		}
		return apperr.Wrap(apperr.KindInternal, "failed to queue code delivery", err).WithOp("phoneverify.issue")
	}
	s.log.OTPEvent("send", international, true, "")
	return nil
}

func (s *Service) verifyError(lang language.Tag, err error) error {
	const op = "phoneverify.confirm"
	switch {
	case errors.Is(err, store.ErrInvalid):
		msg := s.msgs.T(lang, "otp.invalid", nil)
		return apperr.Validation(msg).WithOp(op).WithDetails(map[string][]string{"code": {msg}})
	case errors.Is(err, store.ErrExpired):
		return apperr.Gone(s.msgs.T(lang, "otp.expired", nil)).WithOp(op)
	case errors.Is(err, store.ErrMaxAttempts):
		return apperr.TooManyRequests(s.msgs.T(lang, "otp.max_attempts", nil)).WithOp(op)
	case errors.Is(err, store.ErrNoPending):
		return apperr.BadRequest(s.msgs.T(lang, "otp.no_pending", nil)).WithOp(op)
	default:
		return apperr.Wrap(apperr.KindInternal, "failed to verify code", err).WithOp(op)
	}
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
