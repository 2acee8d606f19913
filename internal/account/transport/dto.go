package transport

import "io"

// UpdateProfileRequest is the body of PUT /account/profile/, either
// multipart/form-data or JSON. A nil field is left unchanged.
type UpdateProfileRequest struct {
	RealName       *string `json:"real_name" form:"real_name" validate:"omitempty,max=20"`
	Nickname       *string `json:"nickname" form:"nickname" validate:"omitempty,max=20"`
	Address        *string `json:"address" form:"address" validate:"omitempty,max=255"`
	Phone          *string `json:"phone" form:"phone" validate:"omitempty,max=32"`
	RemovePortrait bool    `json:"remove_portrait" form:"remove_portrait"`
}

// PortraitUpload is a portrait file taken from a multipart request.
type PortraitUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ProfileResponse is the profile as rendered to clients. Phone is stored
// international form, or national form on the display endpoint.
type ProfileResponse struct {
	RealName      string `json:"real_name"`
	Nickname      string `json:"nickname"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	PhoneVerified bool   `json:"phone_verified"`
	Portrait      string `json:"portrait"`
	PortraitURL   string `json:"portrait_url"`
	Email         string `json:"email"`
}
