package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTikTok(t *testing.T) {
	rows := []any{
		nil,
		map[string]any{
			"id":            "7301",
			"text":          "Glow up {{promo}} #skincare",
			"webVideoUrl":   "https://www.tiktok.com/@a/video/7301",
			"createTimeISO": "2024-06-01T08:00:00.000Z",
			"diggCount":     "1500",
			"playCount":     90000,
			"videoMeta":     map[string]any{"coverUrl": "https://c/cover.jpg", "duration": 15},
			"authorMeta":    map[string]any{"nickName": "glowshop", "avatar": "https://c/a.jpg"},
		},
		map[string]any{"data": map[string]any{"aweme_id": "99", "createTime": 1700000000}},
	}

	ads := testNormalizer().NormalizeTikTok(rows)
	require.Len(t, ads, 2)

	a := ads[0]
	assert.Equal(t, "7301", a.ID)
	assert.Equal(t, "Glow up  #skincare", a.Text)
	assert.Equal(t, "2024-06-01T08:00:00.000Z", a.CreateTimeISO)
	assert.Equal(t, float64(1500), a.DiggCount)
	assert.Equal(t, float64(90000), a.PlayCount)
	assert.Equal(t, float64(0), a.ShareCount)
	assert.Equal(t, "https://c/cover.jpg", a.VideoMeta.CoverURL)
	assert.Equal(t, float64(15), a.VideoMeta.Duration)
	assert.Equal(t, "glowshop", a.AuthorMeta.NickName)
	assert.Equal(t, "https://c/a.jpg", a.AuthorMeta.AvatarURL)

	b := ads[1]
	assert.Equal(t, "99", b.ID)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", b.CreateTimeISO)
	assert.Equal(t, "Unknown Creator", b.AuthorMeta.NickName)
}

func TestNormalizeTikTok_Report(t *testing.T) {
	_, report := testNormalizer().NormalizeTikTokWithReport([]any{nil, map[string]any{}})
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 1, report.Normalized)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, 1, report.Defaulted[FieldID])
}
