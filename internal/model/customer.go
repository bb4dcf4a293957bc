package model

// Customer 客戶表 — 對應 customers
type Customer struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"         json:"id"`
	Name          string `gorm:"type:varchar(200);not null"       json:"name"`
	ContactPerson string `gorm:"type:varchar(100);not null"       json:"contact_person"`
	Phone         string `gorm:"type:varchar(50);not null"        json:"phone"`
	Email         string `gorm:"type:varchar(200);not null"       json:"email"`
	CreatorID     int64  `gorm:"not null;default:1;index"         json:"creator_id"`
	BaseModel
}

// TableName 指定表名
func (Customer) TableName() string { return "customers" }
