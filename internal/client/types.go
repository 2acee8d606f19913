package client

import (
	"io"
	"time"

	"profile_portal_backend/platform/phone"
)

// Profile is the profile as returned by GET /account/profile/.
type Profile struct {
	RealName      string `json:"real_name"`
	Nickname      string `json:"nickname"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	PhoneVerified bool   `json:"phone_verified"`
	Portrait      string `json:"portrait"`
	PortraitURL   string `json:"portrait_url"`
	Email         string `json:"email"`
}

// DisplayPhone returns the stored phone in national form, ready for an
// editable input.
func (p Profile) DisplayPhone() string {
	return phone.ForDisplay(p.Phone)
}

// ProfileUpdate is a profile form submission. Nil text fields are not sent.
// The current portrait is kept unless a new file is given or RemovePortrait
// is set.
type ProfileUpdate struct {
	RealName       *string
	Nickname       *string
	Address        *string
	Phone          *string
	Portrait       *PortraitFile
	RemovePortrait bool
}

type PortraitFile struct {
	FileName    string
	ContentType string
	Reader      io.Reader
}

// CodeSent is the server's answer to a verification code request.
type CodeSent struct {
	Detail     string
	RetryAfter time.Duration
}
