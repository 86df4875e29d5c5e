package auth

// LoginRequest is the storefront login body.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

type LoginResponse struct {
	IsGuestUser bool `json:"isGuestUser"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}
