package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

// Comparison operators accepted in bracketed filter keys, e.g. price[gte]=100.
const (
	OpEq  = "eq"
	OpGt  = "gt"
	OpGte = "gte"
	OpLt  = "lt"
	OpLte = "lte"
)

// reservedKeys are query parameters with dedicated meaning; they are never
// interpreted as field filters.
var reservedKeys = map[string]struct{}{
	"keyword":  {},
	"page":     {},
	"limit":    {},
	"per_page": {},
}

// numericFields may be filtered with any comparison operator.
var numericFields = map[string]struct{}{
	"price":   {},
	"ratings": {},
	"stock":   {},
}

// equalityFields may only be filtered by exact match.
var equalityFields = map[string]struct{}{
	"category": {},
	"seller":   {},
}

// Filter is a single field constraint.
type Filter struct {
	Field string
	Op    string
	Value string
}

// Query is a bounded, validated catalog query ready for the repository.
type Query struct {
	Keyword string
	Filters []Filter
	Page    int
	Limit   int
	Offset  int
}

// Parse converts raw URL query values into a Query. Unknown fields and
// unknown operators are rejected rather than guessed at. A missing or
// non-positive page defaults to 1; the offset skips pageSize*(page-1) rows.
func Parse(values url.Values, pageSize int) (Query, error) {
	if pageSize <= 0 {
		pageSize = 4
	}

	q := Query{
		Keyword: strings.TrimSpace(values.Get("keyword")),
		Page:    1,
		Limit:   pageSize,
	}

	if raw := values.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			q.Page = page
		}
	}
	q.Offset = (q.Page - 1) * pageSize

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}

		field, op, err := splitFilterKey(key)
		if err != nil {
			return Query{}, err
		}
		if field == "" {
			continue
		}

		value := vals[0]
		if _, ok := numericFields[field]; ok {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return Query{}, apperrors.InvalidInput(fmt.Sprintf("filter %s requires a numeric value", field))
			}
			q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: value})
			continue
		}

		if _, ok := equalityFields[field]; ok {
			if op != OpEq {
				return Query{}, apperrors.InvalidInput(fmt.Sprintf("field %s does not support operator %s", field, op))
			}
			q.Filters = append(q.Filters, Filter{Field: field, Op: OpEq, Value: value})
			continue
		}

		return Query{}, apperrors.InvalidInput(fmt.Sprintf("unknown filter field %q", field))
	}

	return q, nil
}

// splitFilterKey decomposes a raw query key into field and operator. Plain
// keys mean equality; bracketed keys carry an explicit operator. Reserved
// keys return an empty field.
func splitFilterKey(key string) (field, op string, err error) {
	if _, ok := reservedKeys[key]; ok {
		return "", "", nil
	}

	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}

	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", apperrors.InvalidInput(fmt.Sprintf("malformed filter key %q", key))
	}

	field = key[:open]
	op = key[open+1 : len(key)-1]

	switch op {
	case OpEq, OpGt, OpGte, OpLt, OpLte:
		return field, op, nil
	default:
		return "", "", apperrors.InvalidInput(fmt.Sprintf("unknown filter operator %q", op))
	}
}

// EscapeLike escapes LIKE/ILIKE pattern metacharacters in a keyword so user
// input matches literally.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// SQLOp maps a filter operator to its SQL comparison.
func SQLOp(op string) string {
	switch op {
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	default:
		return "="
	}
}
