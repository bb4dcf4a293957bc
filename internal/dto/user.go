package dto

// ── 使用者模組 DTO ──

// CreateUserRequest 建立使用者
// role 未指定或無法辨識時視為 user
type CreateUserRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,max=64"`
	Password   string `json:"password"    binding:"required,min=1,max=72"`
	Name       string `json:"name"        binding:"required,max=100"`
	Role       string `json:"role"`
}

// UpdateUserRequest 部分更新：只接受密碼與角色
type UpdateUserRequest struct {
	Password *string `json:"password" binding:"omitempty,max=72"`
	Role     *string `json:"role"`
}

// UserResponse 使用者資訊（不含密碼）
type UserResponse struct {
	ID         int64  `json:"id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	CreatorID  int64  `json:"creator_id"`
}
