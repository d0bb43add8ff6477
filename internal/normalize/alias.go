package normalize

// Field names one semantic value of a raw record.
type Field string

const (
	FieldID              Field = "id"
	FieldIsActive        Field = "isActive"
	FieldPlatforms       Field = "publisherPlatforms"
	FieldVideos          Field = "videos"
	FieldCards           Field = "cards"
	FieldImages          Field = "images"
	FieldBody            Field = "bodyText"
	FieldTitle           Field = "title"
	FieldPageName        Field = "pageName"
	FieldAvatarURL       Field = "avatarUrl"
	FieldCTAText         Field = "ctaText"
	FieldLinkURL         Field = "linkUrl"
	FieldAdLibraryURL    Field = "adLibraryUrl"
	FieldStartDate       Field = "startDate"
	FieldReach           Field = "reach"
	FieldLikes           Field = "likes"
	FieldSpend           Field = "spend"
	FieldEfficiencyScore Field = "efficiencyScore"
	FieldPageSize        Field = "pageSize"
	FieldAges            Field = "targeting.ages"
	FieldGenders         Field = "targeting.genders"
	FieldLocations       Field = "targeting.locations"
	FieldReachEstimate   Field = "targeting.reachEstimate"
	FieldBreakdown       Field = "targeting.breakdown"
	FieldCategory        Field = "advertiserInfo.category"
)

// TikTok fields
const (
	FieldText          Field = "text"
	FieldWebVideoURL   Field = "webVideoUrl"
	FieldCreateTime    Field = "createTimeISO"
	FieldDiggCount     Field = "diggCount"
	FieldShareCount    Field = "shareCount"
	FieldPlayCount     Field = "playCount"
	FieldCommentCount  Field = "commentCount"
	FieldCollectCount  Field = "collectCount"
	FieldCoverURL      Field = "videoMeta.coverUrl"
	FieldDuration      Field = "videoMeta.duration"
	FieldHeight        Field = "videoMeta.height"
	FieldWidth         Field = "videoMeta.width"
	FieldAuthorName    Field = "authorMeta.nickName"
	FieldAuthorProfile Field = "authorMeta.profileUrl"
	FieldAuthorAvatar  Field = "authorMeta.avatarUrl"
)

type origin int

const (
	fromItem origin = iota
	fromSnapshot
)

// Path is a key sequence into either the record root or its snapshot.
type Path struct {
	origin origin
	keys   []string
}

func item(keys ...string) Path { return Path{origin: fromItem, keys: keys} }
func snap(keys ...string) Path { return Path{origin: fromSnapshot, keys: keys} }

func (p Path) String() string {
	s := "item"
	if p.origin == fromSnapshot {
		s = "snapshot"
	}
	for _, k := range p.keys {
		s += "." + k
	}
	return s
}

// snapshotKeys locate the nested creative object, first match wins.
var snapshotKeys = []string{"snapshot", "snap"}

// metaAliases lists the accessors for every Meta ad field in priority order:
// current naming first, then legacy camelCase, then EU transparency naming.
var metaAliases = map[Field][]Path{
	FieldID:        {item("ad_archive_id"), item("adArchiveID"), item("adArchiveId"), item("id")},
	FieldIsActive:  {item("is_active"), item("isActive")},
	FieldPlatforms: {item("publisher_platform"), item("publisherPlatform"), item("publisher_platforms"), item("publisherPlatforms")},

	FieldVideos: {snap("videos")},
	FieldCards:  {snap("cards")},
	FieldImages: {snap("images")},

	FieldBody:         {snap("body", "text"), snap("body"), item("body", "text"), item("body")},
	FieldTitle:        {snap("title"), snap("caption")},
	FieldPageName:     {snap("page_name"), item("page_name"), snap("pageName"), item("pageName")},
	FieldAvatarURL:    {snap("page_profile_picture_url"), item("page_profile_picture_url"), snap("pageProfilePictureUrl"), item("pageProfilePictureUrl")},
	FieldCTAText:      {snap("cta_text"), snap("ctaText"), item("cta_text")},
	FieldLinkURL:      {snap("link_url"), snap("linkUrl"), item("link_url")},
	FieldAdLibraryURL: {item("ad_library_url"), item("adLibraryURL"), item("adLibraryUrl")},
	FieldStartDate:    {item("start_date"), item("startDate"), item("ad_delivery_start_time")},

	FieldReach: {
		item("reach_estimate"), item("reachEstimate"), item("reach"),
		item("eu_total_reach"),
		item("impressions_with_index", "impressions_index"), item("impressions"),
	},
	FieldLikes:           {item("likes"), item("like_count"), item("likeCount"), snap("page_like_count"), item("page_like_count")},
	FieldSpend:           {item("spend"), item("spend_estimate"), item("spendEstimate")},
	FieldEfficiencyScore: {item("efficiency_score"), item("efficiencyScore"), item("viral_score"), item("viralScore")},
	FieldPageSize:        {item("page_size"), item("pageSize"), item("page_follower_count"), snap("page_follower_count")},

	FieldAges:          {item("targeting", "ages"), item("target_ages"), item("targetAges"), item("age_audience")},
	FieldGenders:       {item("targeting", "genders"), item("target_gender"), item("targetGender"), item("gender_audience")},
	FieldLocations:     {item("targeting", "locations"), item("target_locations"), item("targetLocations"), item("location_audience")},
	FieldReachEstimate: {item("targeting", "reachEstimate"), item("targeting", "reach_estimate"), item("eu_total_reach"), item("reach_estimate"), item("reachEstimate")},
	FieldBreakdown:     {item("targeting", "breakdown"), item("demographics"), item("age_country_gender_reach_breakdown"), item("ageCountryGenderReachBreakdown")},

	FieldCategory: {item("page_categories"), item("pageCategories"), snap("page_categories"), snap("pageCategories")},
}

var tiktokAliases = map[Field][]Path{
	FieldID:           {item("id"), item("aweme_id"), item("awemeId"), item("video_id")},
	FieldText:         {item("text"), item("desc"), item("description"), item("caption")},
	FieldWebVideoURL:  {item("webVideoUrl"), item("web_video_url"), item("videoUrl"), item("url")},
	FieldCreateTime:   {item("createTimeISO"), item("create_time_iso"), item("createTime"), item("create_time")},
	FieldDiggCount:    {item("diggCount"), item("digg_count"), item("likes"), item("likeCount")},
	FieldShareCount:   {item("shareCount"), item("share_count"), item("shares")},
	FieldPlayCount:    {item("playCount"), item("play_count"), item("views"), item("viewCount")},
	FieldCommentCount: {item("commentCount"), item("comment_count"), item("comments")},
	FieldCollectCount: {item("collectCount"), item("collect_count")},

	FieldCoverURL: {item("videoMeta", "coverUrl"), item("video_meta", "cover_url"), item("videoMeta", "originalCoverUrl"), item("coverUrl")},
	FieldDuration: {item("videoMeta", "duration"), item("video_meta", "duration")},
	FieldHeight:   {item("videoMeta", "height"), item("video_meta", "height")},
	FieldWidth:    {item("videoMeta", "width"), item("video_meta", "width")},

	FieldAuthorName:    {item("authorMeta", "nickName"), item("authorMeta", "name"), item("author_meta", "nick_name"), item("author", "nickname")},
	FieldAuthorProfile: {item("authorMeta", "profileUrl"), item("author_meta", "profile_url"), item("author", "profileUrl")},
	FieldAuthorAvatar:  {item("authorMeta", "avatar"), item("authorMeta", "avatarUrl"), item("author_meta", "avatar_url"), item("author", "avatarThumb")},
}

// Keys inside individual media entries.
var (
	videoURLKeys    = []string{"video_hd_url", "video_sd_url", "hdUrl", "sdUrl"}
	videoPosterKeys = []string{"video_preview_image_url", "videoPreviewImageUrl", "previewImageUrl"}
	imageURLKeys    = []string{"original_image_url", "resized_image_url", "originalImageUrl", "resizedImageUrl"}
)

// Keys inside targeting entries.
var (
	locationNameKeys      = []string{"name", "location_name", "locationName", "key"}
	locationTypeKeys      = []string{"type", "location_type", "locationType"}
	locationExcludedKeys  = []string{"excluded", "is_excluded", "isExcluded"}
	breakdownCountryKeys  = []string{"country", "country_code", "countryCode"}
	breakdownEntriesKeys  = []string{"age_gender_breakdowns", "ageGenderBreakdowns", "breakdowns"}
	breakdownAgeRangeKeys = []string{"age_range", "ageRange", "age"}
)

// Aliases returns a copy of the accessor chain for a Meta ad field.
func Aliases(f Field) []Path {
	return append([]Path(nil), metaAliases[f]...)
}

// TikTokAliases returns a copy of the accessor chain for a TikTok field.
func TikTokAliases(f Field) []Path {
	return append([]Path(nil), tiktokAliases[f]...)
}
