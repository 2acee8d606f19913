package handler

import (
	"net/http"

	"profile_portal_backend/internal/auth/service"
	"profile_portal_backend/internal/auth/transport"
	"profile_portal_backend/platform/httpkit"
	"profile_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest  = "invalid request"
	msgPasswordUpdated = "password updated"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the public auth routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sign-up", h.SignUp)
	rg.POST("/sign-in", h.SignIn)
}

func (h *Handler) SignUp(c *gin.Context) {
	var req transport.SignUpRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.SignUp(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if !h.bind(c, &req) {
		return
	}

	accessToken, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AuthResponse{AccessToken: accessToken})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ChangePasswordRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(), identity.UserID(), req.OldPassword, req.NewPassword)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Detail(c, http.StatusOK, msgPasswordUpdated)
}

// bind decodes the JSON body and runs tag validation, writing the 400
// response itself on failure.
func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Detail(c, http.StatusBadRequest, msgInvalidRequest)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		if fields := validator.FieldErrors(err); fields != nil {
			httpkit.FieldErrors(c, fields)
			return false
		}
		httpkit.Detail(c, http.StatusBadRequest, msgInvalidRequest)
		return false
	}
	return true
}
