package dto

// SignupRequest represents the account registration payload
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=60" example:"acme_marketing"`
	Email    string `json:"email" validate:"required,email,max=255" example:"ops@acme.example"`
	Password string `json:"password" validate:"required,min=8,max=128" example:"S3cureP@ss"`
}

// LoginRequest represents the login payload; identifier is username or email
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required" example:"acme_marketing"`
	Password   string `json:"password" validate:"required" example:"S3cureP@ss"`
}

// RefreshRequest exchanges a refresh token for a new session
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"jwt"`
}

// AuthUserDTO carries public account fields in auth responses
type AuthUserDTO struct {
	ID          uint   `json:"id" example:"1"`
	UUID        string `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	Username    string `json:"username" example:"acme_marketing"`
	Email       string `json:"email" example:"ops@acme.example"`
	Coins       uint64 `json:"coins" example:"120"`
	IsActive    *bool  `json:"is_active" example:"true"`
	CreatedAt   string `json:"created_at" example:"2024-01-15T10:30:00Z"`
	LastLoginAt string `json:"last_login_at,omitempty" example:"2024-01-16T08:00:00Z"`
}

// SessionDTO carries issued tokens
type SessionDTO struct {
	AccessToken  string `json:"access_token" example:"jwt"`
	RefreshToken string `json:"refresh_token" example:"jwt"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
	TokenType    string `json:"token_type" example:"Bearer"`
}

// SignupResponse is returned after a successful registration
type SignupResponse struct {
	User    AuthUserDTO `json:"user"`
	Session SessionDTO  `json:"session"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	User    AuthUserDTO `json:"user"`
	Session SessionDTO  `json:"session"`
}
