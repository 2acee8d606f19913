// Package account provides the profile bounded context module.
package account

import (
	"profile_portal_backend/internal/account/handler"
	"profile_portal_backend/internal/account/repository"
	"profile_portal_backend/internal/account/service"
	"profile_portal_backend/internal/adapters/storage"
	"profile_portal_backend/internal/auth"
	"profile_portal_backend/internal/events"
	apphttp "profile_portal_backend/internal/http"
	"profile_portal_backend/platform/config"
	"profile_portal_backend/platform/logger"
	"profile_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the account bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the account module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	users auth.UserProvider,
	storageSvc storage.StorageService,
	portraitBucket string,
	cfg config.MediaConfig,
	eventBus events.Bus,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, users, storageSvc, portraitBucket, cfg, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "account"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts profile routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/account"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
