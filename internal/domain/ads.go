package domain

// RawAd is one decoded scraper record. Field names vary between scraper
// generations (snake_case, camelCase, EU transparency naming).
type RawAd = map[string]any

type MediaType string

const (
	MediaVideo    MediaType = "video"
	MediaCarousel MediaType = "carousel"
	MediaImage    MediaType = "image"
)

// Media is the creative selected for display. Poster is only set for videos.
type Media struct {
	Type   MediaType `json:"type"`
	URL    string    `json:"url"`
	Poster string    `json:"poster,omitempty"`
}

type LocationTarget struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Excluded bool   `json:"excluded"`
}

// AgeGenderBreakdown is the reach split for one age bucket.
type AgeGenderBreakdown struct {
	AgeRange string   `json:"age_range"`
	Male     *float64 `json:"male"`
	Female   *float64 `json:"female"`
	Unknown  *float64 `json:"unknown"`
}

type CountryBreakdown struct {
	Country             string               `json:"country"`
	AgeGenderBreakdowns []AgeGenderBreakdown `json:"age_gender_breakdowns"`
}

type Targeting struct {
	Ages          []string           `json:"ages"`
	Genders       []string           `json:"genders"`
	Locations     []LocationTarget   `json:"locations"`
	ReachEstimate *float64           `json:"reachEstimate"`
	Breakdown     []CountryBreakdown `json:"breakdown"`
}

type AdvertiserInfo struct {
	Category *string `json:"category"`
}

// NormalizedAd is the canonical Meta ad view-model. Every consumer works
// against this shape regardless of which scraper produced the record.
type NormalizedAd struct {
	ID                 string   `json:"id"`
	IsActive           bool     `json:"isActive"`
	PublisherPlatforms []string `json:"publisherPlatforms"`
	Media              *Media   `json:"media,omitempty"`
	BodyText           *string  `json:"bodyText,omitempty"`
	Title              string   `json:"title"`
	PageName           string   `json:"pageName"`
	AvatarURL          *string  `json:"avatarUrl"`
	CTAText            string   `json:"ctaText"`
	LinkURL            string   `json:"linkUrl"`
	AdLibraryURL       string   `json:"adLibraryUrl,omitempty"`
	StartDate          string   `json:"startDate"`

	Reach           float64  `json:"reach"`
	Likes           float64  `json:"likes"`
	EfficiencyScore float64  `json:"efficiencyScore"`
	PageSize        float64  `json:"pageSize"`
	Spend           *float64 `json:"spend"`

	Targeting      Targeting      `json:"targeting"`
	AdvertiserInfo AdvertiserInfo `json:"advertiserInfo"`
}

// HasPlatform reports whether the ad ran on the given lowercase platform tag.
func (a NormalizedAd) HasPlatform(platform string) bool {
	for _, p := range a.PublisherPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

// IsVideo is true for video creatives
func (a NormalizedAd) IsVideo() bool {
	return a.Media != nil && a.Media.Type == MediaVideo
}

// still images and carousels both count as image formats
func (a NormalizedAd) IsImage() bool {
	return a.Media != nil && (a.Media.Type == MediaImage || a.Media.Type == MediaCarousel)
}

type TikTokVideoMeta struct {
	CoverURL string  `json:"coverUrl"`
	Duration float64 `json:"duration"`
	Height   float64 `json:"height"`
	Width    float64 `json:"width"`
}

type TikTokAuthorMeta struct {
	NickName   string `json:"nickName"`
	ProfileURL string `json:"profileUrl"`
	AvatarURL  string `json:"avatarUrl"`
}

// TikTokAd is the canonical shape of a TikTok creative
type TikTokAd struct {
	ID            string           `json:"id"`
	Text          string           `json:"text"`
	WebVideoURL   string           `json:"webVideoUrl"`
	CreateTimeISO string           `json:"createTimeISO"`
	DiggCount     float64          `json:"diggCount"`
	ShareCount    float64          `json:"shareCount"`
	PlayCount     float64          `json:"playCount"`
	CommentCount  float64          `json:"commentCount"`
	CollectCount  float64          `json:"collectCount"`
	VideoMeta     TikTokVideoMeta  `json:"videoMeta"`
	AuthorMeta    TikTokAuthorMeta `json:"authorMeta"`
}
