// Package phoneverify provides the phone number verification module.
package phoneverify

import (
	"profile_portal_backend/internal/auth"
	"profile_portal_backend/internal/events"
	apphttp "profile_portal_backend/internal/http"
	"profile_portal_backend/internal/phoneverify/handler"
	"profile_portal_backend/internal/phoneverify/service"
	"profile_portal_backend/internal/phoneverify/store"
	"profile_portal_backend/internal/scheduler"
	"profile_portal_backend/platform/config"
	"profile_portal_backend/platform/i18n"
	"profile_portal_backend/platform/logger"
	"profile_portal_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// Module is the phone verification module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the Redis code store, the delivery queue and the profile
// phone setter behind the verification endpoints.
func NewModule(
	rdb redis.UniversalClient,
	delivery scheduler.OTPDeliveryScheduler,
	phones service.PhoneSetter,
	users auth.UserProvider,
	msgs *i18n.Catalog,
	cfg config.OTPConfig,
	eventBus events.Bus,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	codes := store.New(rdb, cfg)
	svc := service.New(codes, delivery, phones, users, msgs, cfg, eventBus, log)
	h := handler.New(svc, msgs, val)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "phoneverify"
}

func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts /account/phone/{verify,resend,confirm}.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/account/phone"))
}

var _ apphttp.Module = (*Module)(nil)
