package dto

// ListQuery 列表查詢參數
type ListQuery struct {
	Search string `form:"search" binding:"omitempty,max=100"`
}

// DateLayout 日期欄位格式
const DateLayout = "2006-01-02"
