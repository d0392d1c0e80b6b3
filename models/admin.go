package models

// AdminLoginRequest is the first step of the admin OTP login
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest completes the admin login
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// AuthTokens is returned after a successful OTP verification
type AuthTokens struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	UserType  string `json:"userType"`
}
