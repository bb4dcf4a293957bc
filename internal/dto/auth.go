package dto

// ── 認證模組 DTO ──

// LoginRequest 登入請求
type LoginRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,max=64"`
	Password   string `json:"password"    binding:"required"`
}

// RefreshTokenRequest 更新 Token 請求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse Token 回應
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}
