package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// record resolves aliased fields against one unwrapped raw item.
type record struct {
	item    map[string]any
	snap    map[string]any
	aliases map[Field][]Path
	report  *Report
}

func newRecord(item map[string]any, aliases map[Field][]Path, report *Report) *record {
	r := &record{item: item, aliases: aliases, report: report, snap: map[string]any{}}
	for _, k := range snapshotKeys {
		if m, ok := item[k].(map[string]any); ok {
			r.snap = m
			break
		}
	}
	return r
}

func (r *record) lookup(p Path) (any, bool) {
	var cur any = r.item
	if p.origin == fromSnapshot {
		cur = r.snap
	}
	for _, k := range p.keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

func (r *record) defaulted(f Field) {
	if r.report != nil {
		r.report.markDefaulted(f)
	}
}

// values yields the present values of a field in alias order.
func (r *record) values(f Field) []any {
	var out []any
	for _, p := range r.aliases[f] {
		if v, ok := r.lookup(p); ok {
			out = append(out, v)
		}
	}
	return out
}

// str returns the first alias holding a non-blank string or a number.
func (r *record) str(f Field) (string, bool) {
	for _, v := range r.values(f) {
		if s, ok := toString(v); ok {
			return s, true
		}
	}
	return "", false
}

func (r *record) strOr(f Field, fallback string) string {
	if s, ok := r.str(f); ok {
		return s
	}
	r.defaulted(f)
	return fallback
}

func (r *record) num(f Field) (float64, bool) {
	for _, v := range r.values(f) {
		if n, ok := toNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

func (r *record) numOr(f Field, fallback float64) float64 {
	if n, ok := r.num(f); ok {
		return n
	}
	r.defaulted(f)
	return fallback
}

func (r *record) numPtr(f Field) *float64 {
	if n, ok := r.num(f); ok {
		return &n
	}
	r.defaulted(f)
	return nil
}

// list returns the first alias holding a non-empty array.
func (r *record) list(f Field) []any {
	for _, v := range r.values(f) {
		if l, ok := v.([]any); ok && len(l) > 0 {
			return l
		}
	}
	return nil
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return "", false
		}
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	}
	return "", false
}

// toNumber coerces the scalar shapes scrapers emit. Estimated ranges
// ({"lower_bound": ...}) resolve to their lower bound.
// truthy treats nil, false, zero, NaN and the empty string as absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case map[string]any:
		return x != nil
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	}
	return true
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case map[string]any:
		for _, k := range []string{"lower_bound", "lowerBound"} {
			if lb, ok := n[k]; ok {
				return toNumber(lb)
			}
		}
		return 0, false
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// firstString picks the first usable string under keys of an entry map.
func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := toString(m[k]); ok {
			return s
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		if n, ok := toNumber(m[k]); ok {
			return &n
		}
	}
	return nil
}

func firstMap(l []any) map[string]any {
	if len(l) == 0 {
		return nil
	}
	m, _ := l[0].(map[string]any)
	return m
}
