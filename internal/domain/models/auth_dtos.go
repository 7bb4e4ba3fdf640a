package models

// RegisterRequest carries the multipart form fields of the registration endpoint.
// The avatar and cover image files travel separately as multipart file parts.
type RegisterRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	FullName string `form:"fullName" json:"fullName"`
	Password string `form:"password" json:"password"`
}

// LoginRequest identifies the account by username or email.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest optionally carries the refresh token in the body
// when it is not supplied via cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest carries the password change payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateProfileRequest carries the optional profile fields; only the
// provided ones are applied.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	FullName *string `json:"fullName,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// IsEmpty reports whether no field was provided at all.
func (r UpdateProfileRequest) IsEmpty() bool {
	return r.Username == nil && r.FullName == nil && r.Email == nil
}
