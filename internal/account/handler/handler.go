package handler

import (
	"errors"
	"net/http"

	"profile_portal_backend/internal/account/service"
	"profile_portal_backend/internal/account/transport"
	"profile_portal_backend/platform/httpkit"
	"profile_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "invalid request"
	portraitField     = "portrait"

	// multipart bodies above this are rejected before parsing
	maxMultipartMemory = 8 << 20
)

// Handler handles HTTP requests for the account profile.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new account handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers profile routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile/", h.Get)
	rg.PUT("/profile/", h.Update)
	rg.GET("/profile/display", h.Display)
}

func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Display(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Display(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update accepts multipart/form-data (with an optional portrait file part)
// or a JSON body.
func (h *Handler) Update(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.UpdateProfileRequest
	var portrait *transport.PortraitUpload

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultipartMemory)
		if err := c.ShouldBind(&req); err != nil {
			httpkit.Detail(c, http.StatusBadRequest, msgInvalidRequest)
			return
		}
		upload, cleanup, err := portraitFromForm(c)
		if err != nil {
			httpkit.Detail(c, http.StatusBadRequest, msgInvalidRequest)
			return
		}
		defer cleanup()
		portrait = upload
	} else if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Detail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if err := h.val.Struct(req); err != nil {
		if fields := validator.FieldErrors(err); fields != nil {
			httpkit.FieldErrors(c, fields)
			return
		}
		httpkit.Detail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	result, err := h.svc.Update(c.Request.Context(), identity.UserID(), req, portrait)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// portraitFromForm opens the portrait part if one was sent. The returned
// cleanup closes the file.
func portraitFromForm(c *gin.Context) (*transport.PortraitUpload, func(), error) {
	header, err := c.FormFile(portraitField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &transport.PortraitUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      f,
	}, func() { _ = f.Close() }, nil
}
