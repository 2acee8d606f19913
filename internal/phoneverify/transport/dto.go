package transport

// SendCodeRequest starts (or repeats) verification for a number typed in
// national form.
type SendCodeRequest struct {
	Phone string `json:"phone"`
}

type ConfirmRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code" validate:"required,max=16"`
}

type SendCodeResponse struct {
	Detail     string `json:"detail"`
	RetryAfter int    `json:"retry_after"`
}

type ConfirmResponse struct {
	Detail string `json:"detail"`
	Phone  string `json:"phone"`
}
