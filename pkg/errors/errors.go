package errors

import (
	"errors"
	"fmt"
)

// ── 錯誤分類 ──
// 業務錯誤一律掛在下列分類之一，Handler 依分類決定 HTTP 狀態碼

var (
	ErrValidation      = errors.New("資料驗證失敗")
	ErrNotFound        = errors.New("資料不存在")
	ErrPermission      = errors.New("權限不足")
	ErrDuplicateKey    = errors.New("資料重複")
	ErrInvalidState    = errors.New("狀態不允許此操作")
	ErrExternalService = errors.New("外部服務錯誤")
	ErrStorage         = errors.New("資料存取失敗")
)

// Error 帶分類的業務錯誤
// Error() 只回傳面向使用者的訊息，分類透過 errors.Is 判斷
type Error struct {
	kind error
	msg  string
}

// New 建立指定分類的業務錯誤
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Kind 回傳錯誤分類
func (e *Error) Kind() error { return e.kind }

// storageError 包裝底層資料庫錯誤，保留原始錯誤以便記錄日誌
type storageError struct {
	cause error
}

func (e *storageError) Error() string { return fmt.Sprintf("資料存取失敗: %v", e.cause) }

func (e *storageError) Unwrap() []error { return []error{ErrStorage, e.cause} }

// Storage 將資料庫錯誤歸類為 StorageError；nil 原樣回傳
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return &storageError{cause: err}
}

// KindOf 回傳錯誤所屬分類，無法歸類時回傳 nil
func KindOf(err error) error {
	for _, kind := range []error{
		ErrValidation, ErrNotFound, ErrPermission, ErrDuplicateKey,
		ErrInvalidState, ErrExternalService, ErrStorage,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
