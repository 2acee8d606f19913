package handler

import (
	"net/http"

	"profile_portal_backend/internal/phoneverify/service"
	"profile_portal_backend/internal/phoneverify/transport"
	"profile_portal_backend/platform/httpkit"
	"profile_portal_backend/platform/i18n"
	"profile_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc  *service.Service
	msgs *i18n.Catalog
	val  *validator.Validator
}

func New(svc *service.Service, msgs *i18n.Catalog, val *validator.Validator) *Handler {
	return &Handler{svc: svc, msgs: msgs, val: val}
}

// RegisterRoutes registers phone verification routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/verify", h.Send)
	rg.POST("/resend", h.Resend)
	rg.POST("/confirm", h.Confirm)
}

func (h *Handler) Send(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.SendCodeRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Send(c.Request.Context(), identity.UserID(), h.lang(c), req.Phone)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Resend(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.SendCodeRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Resend(c.Request.Context(), identity.UserID(), h.lang(c), req.Phone)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Confirm(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ConfirmRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Confirm(c.Request.Context(), identity.UserID(), h.lang(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) lang(c *gin.Context) language.Tag {
	return h.msgs.Match(c.GetHeader("Accept-Language"))
}

func (h *Handler) bind(c *gin.Context, req any) bool {
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
