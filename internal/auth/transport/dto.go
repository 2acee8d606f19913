package transport

// SignUpRequest mirrors the sign-up form: username, email and the password
// entered twice.
type SignUpRequest struct {
	Username  string `json:"username" validate:"required,min=6,max=20,alnum_username"`
	Email     string `json:"email" validate:"required,email"`
	Password1 string `json:"password1" validate:"required,min=8,nefield_ci=Username"`
	Password2 string `json:"password2" validate:"required,min=6,eqfield=Password1"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type SignUpResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
}
