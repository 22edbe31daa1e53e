package domain

// User is the authenticated profile returned by the backend. Beyond the
// superuser flag the client treats it as opaque.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	FullName    string     `json:"full_name,omitempty"`
	IsSuperuser bool       `json:"is_superuser"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
}

// UserInput is the body of user create and update calls.
type UserInput struct {
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	Password    string `json:"password,omitempty"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    bool   `json:"is_active"`
}

// Credentials are exchanged for an access token.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the credential exchange response.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// PasswordChange is the body of the change-password call.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
