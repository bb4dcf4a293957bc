package model

// 角色，權限由低到高
const (
	RoleUser          = "user"
	RoleAdministrator = "administrator"
	RoleSystemAdmin   = "system_admin"
)

// RootEmployeeID 系統最高權限帳號的員工編號，不可刪除
const RootEmployeeID = "1"

// User 使用者表 — 對應 users
type User struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"                 json:"id"`
	EmployeeID string `gorm:"type:varchar(64);not null;uniqueIndex"    json:"employee_id"`
	Password   string `gorm:"type:varchar(255);not null"               json:"-"`
	Name       string `gorm:"type:varchar(100);not null"               json:"name"`
	Role       string `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatorID  int64  `gorm:"not null;default:1"                       json:"creator_id"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsRoot 是否為員工編號 1 的帳號
func (u *User) IsRoot() bool { return u.EmployeeID == RootEmployeeID }

// ValidRole 角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdministrator, RoleSystemAdmin:
		return true
	}
	return false
}
