package dto

// ── 客戶模組 DTO ──

// CustomerRequest 建立與更新客戶共用
type CustomerRequest struct {
	Name          string `json:"name"           binding:"required,max=200"`
	ContactPerson string `json:"contact_person" binding:"max=100"`
	Phone         string `json:"phone"          binding:"max=50"`
	Email         string `json:"email"          binding:"omitempty,email,max=200"`
}

// CustomerResponse 客戶資訊
type CustomerResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	CreatorID     int64  `json:"creator_id"`
}
