package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowWith builds a raw item holding value at path p.
func rowWith(p Path, value any) map[string]any {
	row := map[string]any{}
	cur := row
	if p.origin == fromSnapshot {
		s := map[string]any{}
		row["snapshot"] = s
		cur = s
	}
	for i, k := range p.keys {
		if i == len(p.keys)-1 {
			cur[k] = value
			break
		}
		next := map[string]any{}
		cur[k] = next
		cur = next
	}
	return row
}

func TestAliases_EveryNumericPathResolves(t *testing.T) {
	fields := []Field{FieldReach, FieldLikes, FieldSpend, FieldEfficiencyScore, FieldPageSize, FieldReachEstimate}
	for _, f := range fields {
		for _, p := range Aliases(f) {
			t.Run(string(f)+"/"+p.String(), func(t *testing.T) {
				r := newRecord(rowWith(p, "42"), metaAliases, nil)
				n, ok := r.num(f)
				require.True(t, ok)
				assert.Equal(t, float64(42), n)
			})
		}
	}
}

func TestAliases_EveryStringPathResolves(t *testing.T) {
	fields := []Field{FieldID, FieldTitle, FieldPageName, FieldAvatarURL, FieldCTAText, FieldLinkURL, FieldAdLibraryURL}
	for _, f := range fields {
		for _, p := range Aliases(f) {
			t.Run(string(f)+"/"+p.String(), func(t *testing.T) {
				r := newRecord(rowWith(p, "value"), metaAliases, nil)
				s, ok := r.str(f)
				require.True(t, ok)
				assert.Equal(t, "value", s)
			})
		}
	}
}

func TestAliases_EveryTikTokPathResolves(t *testing.T) {
	for f, paths := range tiktokAliases {
		for _, p := range paths {
			t.Run(string(f)+"/"+p.String(), func(t *testing.T) {
				r := newRecord(rowWith(p, "7"), tiktokAliases, nil)
				_, ok := r.str(f)
				assert.True(t, ok)
			})
		}
	}
}

func TestAliases_PriorityOrder(t *testing.T) {
	row := map[string]any{
		"reach_estimate": 1,
		"reachEstimate":  2,
		"impressions":    3,
	}
	r := newRecord(row, metaAliases, nil)
	n, ok := r.num(FieldReach)
	require.True(t, ok)
	assert.Equal(t, float64(1), n)

	delete(row, "reach_estimate")
	n, _ = r.num(FieldReach)
	assert.Equal(t, float64(2), n)

	delete(row, "reachEstimate")
	n, _ = r.num(FieldReach)
	assert.Equal(t, float64(3), n)
}

func TestAliases_ZeroIsAValue(t *testing.T) {
	r := newRecord(map[string]any{"reach_estimate": 0, "impressions": 99}, metaAliases, nil)
	n, ok := r.num(FieldReach)
	require.True(t, ok)
	assert.Equal(t, float64(0), n)
}

func TestAliases_UncoercibleFallsThrough(t *testing.T) {
	r := newRecord(map[string]any{"likes": "many", "likeCount": "12"}, metaAliases, nil)
	n, ok := r.num(FieldLikes)
	require.True(t, ok)
	assert.Equal(t, float64(12), n)
}

func TestAliases_SnapshotResolution(t *testing.T) {
	r := newRecord(map[string]any{"snap": map[string]any{"page_name": "From Snap"}}, metaAliases, nil)
	s, _ := r.str(FieldPageName)
	assert.Equal(t, "From Snap", s)

	r = newRecord(map[string]any{
		"snapshot": map[string]any{"page_name": "From Snapshot"},
		"snap":     map[string]any{"page_name": "From Snap"},
	}, metaAliases, nil)
	s, _ = r.str(FieldPageName)
	assert.Equal(t, "From Snapshot", s)

	r = newRecord(map[string]any{"snapshot": "garbage", "page_name": "Root"}, metaAliases, nil)
	s, _ = r.str(FieldPageName)
	assert.Equal(t, "Root", s)
}

func TestAliases_ReturnsCopy(t *testing.T) {
	paths := Aliases(FieldID)
	paths[0] = item("mutated")
	assert.Equal(t, "item.ad_archive_id", Aliases(FieldID)[0].String())
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1234", 1234, true},
		{" 12.5 ", 12.5, true},
		{"", 0, false},
		{"NaN", 0, false},
		{true, 1, true},
		{nil, 0, false},
		{[]any{1}, 0, false},
		{map[string]any{"lowerBound": 5}, 5, true},
	}
	for _, tt := range tests {
		got, ok := toNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}
