package conference

import (
	"fmt"
	"strconv"

	"github.com/hitoshi/confhub/internal/model"
	"github.com/hitoshi/confhub/internal/repository"
)

// QueryFilter はAPIリクエストで指定される1件のフィルタ条件。
// Fieldは CITY | TOPIC | MONTH | MAX_ATTENDEES、
// Operatorは EQ | GT | GTEQ | LT | LTEQ | NE。
type QueryFilter struct {
	Field    string
	Operator string
	Value    string
}

// filterFields はAPIフィールド名からストレージフィールド名へのマッピング。
var filterFields = map[string]string{
	"CITY":          repository.FilterFieldCity,
	"TOPIC":         repository.FilterFieldTopics,
	"MONTH":         repository.FilterFieldMonth,
	"MAX_ATTENDEES": repository.FilterFieldMaxAttendees,
}

// filterOperators はAPI演算子名から比較演算子へのマッピング。
var filterOperators = map[string]repository.FilterOp{
	"EQ":   repository.FilterOpEq,
	"GT":   repository.FilterOpGt,
	"GTEQ": repository.FilterOpGtEq,
	"LT":   repository.FilterOpLt,
	"LTEQ": repository.FilterOpLtEq,
	"NE":   repository.FilterOpNe,
}

// formatFilters はAPIフィルタ列を検証し、リポジトリ用フィルタ列に変換する。
//
// ルール: 不等号演算子を使用できるフィールドは最大1つ。複数のフィールドが
// 不等号演算子を持つ場合はBAD_FILTERで拒否する（同一フィールドへの複数の
// 不等号は許容される）。インデックスベースのクエリバックエンドの要件に
// 合わせ、不等号フィルタは先頭に並べ替えて適用する。等号フィルタは自由に
// 組み合わせられる。
func formatFilters(filters []QueryFilter) ([]repository.Filter, error) {
	var inequalityField string
	var inequalityFilters, equalityFilters []repository.Filter

	for _, f := range filters {
		field, ok := filterFields[f.Field]
		if !ok {
			return nil, model.NewValidationError(fmt.Sprintf("未定義のフィルタフィールドです: %s", f.Field))
		}

		op, ok := filterOperators[f.Operator]
		if !ok {
			return nil, model.NewValidationError(fmt.Sprintf("未定義のフィルタ演算子です: %s", f.Operator))
		}

		value, err := convertFilterValue(field, op, f.Value)
		if err != nil {
			return nil, err
		}

		formatted := repository.Filter{Field: field, Op: op, Value: value}

		if op.IsInequality() {
			if inequalityField != "" && inequalityField != field {
				return nil, model.NewBadFilterError("不等号フィルタは1つのフィールドにしか使用できません")
			}
			inequalityField = field
			inequalityFilters = append(inequalityFilters, formatted)
			continue
		}

		equalityFilters = append(equalityFilters, formatted)
	}

	// 不等号フィルタを先頭に
	return append(inequalityFilters, equalityFilters...), nil
}

// convertFilterValue はフィールドに応じてフィルタ値を検証・変換する。
func convertFilterValue(field string, op repository.FilterOp, value string) (any, error) {
	switch field {
	case repository.FilterFieldMonth, repository.FilterFieldMaxAttendees:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, model.NewValidationError(fmt.Sprintf("%sフィルタの値は整数で指定してください: %s", field, value))
		}
		return n, nil
	case repository.FilterFieldTopics:
		// トピックは集合フィールドのため順序比較は意味を持たない
		if op != repository.FilterOpEq && op != repository.FilterOpNe {
			return nil, model.NewBadFilterError("TOPICフィルタにはEQまたはNEのみ使用できます")
		}
		return value, nil
	default:
		return value, nil
	}
}
