// Package authz 集中角色與擁有權判斷
//
// 所有函式皆為純函式：輸入操作者與目標資料，回傳是否允許。
// 拒絕時回傳 Permission 分類錯誤，未明確允許的路徑一律拒絕。
package authz

import (
	"github.com/KHMER0/sale-system/internal/model"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
)

// Actor 目前操作者，每次請求由資料庫重新載入
type Actor struct {
	ID         int64
	EmployeeID string
	Name       string
	Role       string
}

// ActorFromUser 由使用者資料列建立 Actor
func ActorFromUser(u *model.User) Actor {
	return Actor{ID: u.ID, EmployeeID: u.EmployeeID, Name: u.Name, Role: u.Role}
}

// IsAdminClass administrator 與 system_admin 屬管理層級
func IsAdminClass(role string) bool {
	return role == model.RoleAdministrator || role == model.RoleSystemAdmin
}

func (a Actor) IsAdminClass() bool { return IsAdminClass(a.Role) }

func (a Actor) IsSystemAdmin() bool { return a.Role == model.RoleSystemAdmin }

func deny(msg string) error {
	return pkgerrors.New(pkgerrors.ErrPermission, msg)
}

// ────────────────────── 訂單、報價單 ──────────────────────

// ListScope 訂單與報價單的列表範圍
// 管理層級回傳 nil 表示不限建立者，一般使用者只能看到自己建立的資料
func ListScope(a Actor) *int64 {
	if a.IsAdminClass() {
		return nil
	}
	id := a.ID
	return &id
}

// CanViewRecord 單筆訂單或報價單的讀取權限，與列表範圍一致
func CanViewRecord(a Actor, ownerID int64) error {
	if a.IsAdminClass() || a.ID == ownerID {
		return nil
	}
	return deny("無權查看此筆資料")
}

// CanModifyRecord 訂單或報價單的修改、刪除與轉換
// administrator 只有列表權，不能修改他人資料
func CanModifyRecord(a Actor, ownerID int64) error {
	if a.IsSystemAdmin() || a.ID == ownerID {
		return nil
	}
	return deny("只有系統管理員或建立者可以修改此筆資料")
}

// ────────────────────── 客戶 ──────────────────────

// CanModifyCustomer 客戶的修改與刪除：管理層級或建立者
func CanModifyCustomer(a Actor, ownerID int64) error {
	if a.IsAdminClass() || a.ID == ownerID {
		return nil
	}
	return deny("只有管理員或建立者可以修改此客戶")
}

// ────────────────────── 使用者管理 ──────────────────────

// CanManageUsers 是否具備使用者管理權限
func CanManageUsers(a Actor) bool { return a.IsAdminClass() }

// CanListUsers 一般使用者不能瀏覽使用者列表
func CanListUsers(a Actor) error {
	if CanManageUsers(a) {
		return nil
	}
	return deny("無權瀏覽使用者列表")
}

// CanCreateUser 建立使用者
func CanCreateUser(a Actor) error {
	if CanManageUsers(a) {
		return nil
	}
	return deny("無權建立使用者")
}

// ResolveNewUserRole 決定新使用者的角色
// 未指定或無法辨識的角色一律視為 user；只有 system_admin 能指派 system_admin
func ResolveNewUserRole(a Actor, requested string) (string, error) {
	if err := CanCreateUser(a); err != nil {
		return "", err
	}
	if !model.ValidRole(requested) {
		return model.RoleUser, nil
	}
	if requested == model.RoleSystemAdmin && !a.IsSystemAdmin() {
		return "", deny("只有系統管理員可以指派系統管理員角色")
	}
	return requested, nil
}

// CanViewUser 管理層級可查看所有帳號，一般使用者只能查看自己
func CanViewUser(a Actor, target *model.User) error {
	if a.ID == target.ID || CanManageUsers(a) {
		return nil
	}
	return deny("只能查看自己的帳號")
}

// CanEditUser 編輯使用者資料
func CanEditUser(a Actor, target *model.User) error {
	if a.ID == target.ID {
		return nil
	}
	if !CanManageUsers(a) {
		return deny("只能修改自己的帳號")
	}
	if target.Role == model.RoleSystemAdmin && !a.IsSystemAdmin() {
		return deny("管理員不能修改系統管理員帳號")
	}
	return nil
}

// ResolveRoleChange 決定是否套用角色變更
// apply=false 且 err=nil 表示忽略：未要求變更、角色相同，或操作者無管理權（一般使用者自助修改時角色欄位不生效）
func ResolveRoleChange(a Actor, target *model.User, requested string) (role string, apply bool, err error) {
	if requested == "" || requested == target.Role {
		return "", false, nil
	}
	if !CanManageUsers(a) {
		return "", false, nil
	}
	if !model.ValidRole(requested) {
		return "", false, pkgerrors.New(pkgerrors.ErrValidation, "無效的角色")
	}
	if target.IsRoot() {
		return "", false, deny("不能變更最高權限帳號的角色")
	}
	if target.Role == model.RoleSystemAdmin && !a.IsSystemAdmin() {
		return "", false, deny("管理員不能變更系統管理員的角色")
	}
	if requested == model.RoleSystemAdmin && !a.IsSystemAdmin() {
		return "", false, deny("只有系統管理員可以指派系統管理員角色")
	}
	return requested, true, nil
}

// CanDeleteUser 刪除使用者
// 員工編號 1 與所有 system_admin 帳號都不可刪除；administrator 帳號只有 system_admin 能刪
func CanDeleteUser(a Actor, target *model.User) error {
	if !CanManageUsers(a) {
		return deny("無權刪除使用者")
	}
	if target.IsRoot() {
		return deny("不能刪除最高權限帳號")
	}
	if a.ID == target.ID {
		return deny("不能刪除自己的帳號")
	}
	if target.Role == model.RoleSystemAdmin {
		return deny("不能刪除系統管理員帳號")
	}
	if target.Role == model.RoleAdministrator && !a.IsSystemAdmin() {
		return deny("只有系統管理員可以刪除管理員帳號")
	}
	return nil
}
