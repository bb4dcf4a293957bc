package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter 列表查詢條件
// 擁有者範圍與關鍵字搜尋以 AND 組合，關鍵字在各搜尋欄位間以 OR 比對
type ListFilter struct {
	CreatorID *int64
	Keyword   string
}

// SearchField 可搜尋欄位；AsText 表示先轉為文字再比對（例如數字 ID）
type SearchField struct {
	Column clause.Column
	AsText bool
}

func col(table, name string) clause.Column {
	return clause.Column{Table: table, Name: name}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Clauses 產生參數化的 WHERE 條件
func (f ListFilter) Clauses(owner clause.Column, fields []SearchField) []clause.Expression {
	var exprs []clause.Expression

	if f.CreatorID != nil {
		exprs = append(exprs, clause.Eq{Column: owner, Value: *f.CreatorID})
	}

	kw := strings.TrimSpace(f.Keyword)
	if kw != "" && len(fields) > 0 {
		pattern := "%" + likeEscaper.Replace(kw) + "%"
		ors := make([]clause.Expression, 0, len(fields))
		for _, fd := range fields {
			sql := "? ILIKE ?"
			if fd.AsText {
				sql = "CAST(? AS TEXT) ILIKE ?"
			}
			ors = append(ors, clause.Expr{SQL: sql, Vars: []interface{}{fd.Column, pattern}})
		}
		// 單一條件的 OrConditions 會被 gorm 以 OR 接到前一個條件，必須直接附加
		if len(ors) == 1 {
			exprs = append(exprs, ors[0])
		} else {
			exprs = append(exprs, clause.Or(ors...))
		}
	}

	return exprs
}

// apply 將條件套用到查詢
func (f ListFilter) apply(db *gorm.DB, owner clause.Column, fields []SearchField) *gorm.DB {
	exprs := f.Clauses(owner, fields)
	if len(exprs) == 0 {
		return db
	}
	return db.Clauses(clause.Where{Exprs: exprs})
}
