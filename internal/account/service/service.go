// Package service implements the profile read and update rules.
package service

import (
	"context"
	"strings"

	"profile_portal_backend/internal/account/repository"
	"profile_portal_backend/internal/account/transport"
	"profile_portal_backend/internal/adapters/storage"
	"profile_portal_backend/internal/auth"
	"profile_portal_backend/internal/events"
	"profile_portal_backend/platform/apperr"
	"profile_portal_backend/platform/config"
	"profile_portal_backend/platform/logger"
	"profile_portal_backend/platform/phone"
	"profile_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	portraitFolder = "portraits"

	msgInvalidPhone        = "enter a valid phone number"
	msgPortraitType        = "upload a valid image (jpeg, png, gif, webp, bmp or tiff)"
	msgPortraitSize        = "the image must be 3 MB or smaller"
	msgPortraitUnavailable = "portrait uploads are not available"
)

// Service provides business logic for account profiles.
type Service struct {
	repo         repository.ProfileRepository
	users        auth.UserProvider
	storage      storage.StorageService
	bucket       string
	mediaBaseURL string
	maxPortrait  int64
	eventBus     events.Publisher
	log          *logger.Logger
}

// New creates the profile service. storageSvc may be nil when object
// storage is not configured; portrait uploads are then refused.
func New(
	repo repository.ProfileRepository,
	users auth.UserProvider,
	storageSvc storage.StorageService,
	bucket string,
	cfg config.MediaConfig,
	eventBus events.Publisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		storage:      storageSvc,
		bucket:       bucket,
		mediaBaseURL: cfg.GetMediaBaseURL(),
		maxPortrait:  cfg.GetPortraitMaxFileSize(),
		eventBus:     eventBus,
		log:          log,
	}
}

// Get returns the user's profile, creating it on first access.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	p, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return s.toResponse(ctx, p, false), nil
}

// Display is Get with the phone rendered for an editable national input.
func (s *Service) Display(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	p, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return s.toResponse(ctx, p, true), nil
}

// Update applies the request to the profile. A new portrait replaces the
// stored object; remove_portrait without a file deletes it.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest, portrait *transport.PortraitUpload) (transport.ProfileResponse, error) {
	current, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	next := current
	if req.RealName != nil {
		next.RealName = sanitize.TextPtr(req.RealName)
	}
	if req.Nickname != nil {
		next.Nickname = sanitize.TextPtr(req.Nickname)
	}
	if req.Address != nil {
		next.Address = sanitize.TextPtr(req.Address)
	}

	phoneChanged := false
	if req.Phone != nil {
		normalized, err := s.normalizePhone(*req.Phone)
		if err != nil {
			return transport.ProfileResponse{}, err
		}
		next.Phone = normalized
		phoneChanged = !equalPtr(current.Phone, normalized)
	}

	portraitChanged := false
	uploadedKey := ""
	switch {
	case portrait != nil:
		key, err := s.uploadPortrait(ctx, userID, portrait)
		if err != nil {
			return transport.ProfileResponse{}, err
		}
		uploadedKey = key
		next.Portrait = &key
		portraitChanged = true
	case req.RemovePortrait && current.Portrait != nil:
		next.Portrait = nil
		portraitChanged = true
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		if uploadedKey != "" {
			s.deletePortrait(ctx, uploadedKey)
		}
		return transport.ProfileResponse{}, err
	}

	if portraitChanged && current.Portrait != nil {
		s.deletePortrait(ctx, *current.Portrait)
	}

	s.eventBus.Publish(ctx, events.ProfileUpdated{
		BaseEvent:       events.NewBaseEvent(),
		UserID:          userID,
		PortraitChanged: portraitChanged,
		PhoneChanged:    phoneChanged,
	})

	return s.toResponse(ctx, updated, false), nil
}

// SetVerifiedPhone stores a number confirmed by OTP. international must
// already be E.164.
func (s *Service) SetVerifiedPhone(ctx context.Context, userID uuid.UUID, international string) error {
	_, err := s.repo.SetVerifiedPhone(ctx, userID, international)
	return err
}

// normalizePhone runs the submission rules server-side. Blank input clears
// the number.
func (s *Service) normalizePhone(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	submitted, res := phone.ForSubmission(raw)
	if !phone.IsValidE164(submitted) {
		s.log.PhoneRejected("profile", res)
		return nil, fieldError("phone", msgInvalidPhone)
	}
	e164 := phone.NormalizeE164(submitted)
	return &e164, nil
}

func (s *Service) uploadPortrait(ctx context.Context, userID uuid.UUID, p *transport.PortraitUpload) (string, error) {
	if s.storage == nil {
		return "", fieldError("portrait", msgPortraitUnavailable)
	}
	contentType := p.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.MimeTypeForExtension(extOf(p.FileName))
	}
	if err := storage.ValidateContentType(contentType); err != nil {
		return "", fieldError("portrait", msgPortraitType)
	}
	if err := storage.ValidateFileSize(p.Size, s.maxPortrait); err != nil {
		return "", fieldError("portrait", msgPortraitSize)
	}

	folder := portraitFolder + "/" + userID.String()
	key, err := s.storage.UploadFile(ctx, s.bucket, folder, p.FileName, contentType, p.Reader, p.Size)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "portrait upload failed", err).WithOp("account.uploadPortrait")
	}
	return key, nil
}

// deletePortrait removes a stored object. Absolute URLs are external and
// left alone. Failures are logged only.
func (s *Service) deletePortrait(ctx context.Context, key string) {
	if s.storage == nil || isAbsoluteURL(key) {
		return
	}
	if err := s.storage.DeleteObject(ctx, s.bucket, key); err != nil {
		s.log.WithContext(ctx).Warn("portrait delete failed", "key", key, "error", err)
	}
}

func (s *Service) toResponse(ctx context.Context, p repository.Profile, display bool) transport.ProfileResponse {
	resp := transport.ProfileResponse{
		RealName:      deref(p.RealName),
		Nickname:      deref(p.Nickname),
		Address:       deref(p.Address),
		Phone:         deref(p.Phone),
		PhoneVerified: p.PhoneVerifiedAt != nil,
		Portrait:      deref(p.Portrait),
	}
	resp.PortraitURL = ResolvePortraitURL(s.mediaBaseURL, resp.Portrait)
	if display {
		resp.Phone = phone.ForDisplay(resp.Phone)
	}

	if s.users != nil {
		if u, err := s.users.GetUserByID(ctx, p.UserID); err == nil {
			resp.Email = u.Email
		} else {
			s.log.WithContext(ctx).Warn("profile email lookup failed", "error", err)
		}
	}
	return resp
}

// ResolvePortraitURL turns a stored portrait path into a URL. Absolute
// http(s) URLs pass through; anything else is served from mediaBaseURL.
func ResolvePortraitURL(mediaBaseURL, path string) string {
	if path == "" {
		return ""
	}
	if isAbsoluteURL(path) {
		return path
	}
	return strings.TrimRight(mediaBaseURL, "/") + "/" + sanitize.TrimLeadingSlashes(path)
}

func isAbsoluteURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

func fieldError(field, msg string) error {
	return apperr.Validation(msg).WithDetails(map[string][]string{field: {msg}})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
