package provider

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/pulsecrm-backend/internal/types"
)

// ApplyList runs filter, sort and pagination over an in-memory record set
// and returns the selected page plus the pre-pagination match count.
func ApplyList(records []types.Record, params GetListParams) ([]types.Record, int) {
	matched := make([]types.Record, 0, len(records))
	for _, rec := range records {
		if MatchesFilter(rec, params.Filter) {
			matched = append(matched, rec)
		}
	}
	total := len(matched)
	sortRecords(matched, params.Sort)
	return paginate(matched, params.Pagination), total
}

// MatchesFilter reports whether every filter entry equals the record's
// value for that field. Numeric values compare across Go and JSON types.
func MatchesFilter(rec types.Record, filter Filter) bool {
	for field, want := range filter {
		if !looseEqual(rec[field], want) {
			return false
		}
	}
	return true
}

func sortRecords(records []types.Record, s Sort) {
	if s.Field == "" {
		return
	}
	desc := strings.EqualFold(s.Order, SortDesc)
	sort.SliceStable(records, func(i, j int) bool {
		c := compareValues(records[i][s.Field], records[j][s.Field])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func paginate(records []types.Record, p Pagination) []types.Record {
	if p.PerPage <= 0 {
		return records
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * p.PerPage
	if start >= len(records) {
		return []types.Record{}
	}
	end := start + p.PerPage
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as == bs
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			return ab == bb
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// compareValues orders two field values: nil first, then numbers, bools,
// times and strings within their own kind. Mixed kinds fall back to their
// string forms.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}
	if at, aok := asTime(a); aok {
		if bt, bok := asTime(b); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func asFloat(v any) (float64, bool) {
	switch tv := v.(type) {
	case int:
		return float64(tv), true
	case int32:
		return float64(tv), true
	case int64:
		return float64(tv), true
	case float32:
		return float64(tv), true
	case float64:
		return tv, true
	case json.Number:
		f, err := tv.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asTime(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, tv); err == nil {
			return t, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
