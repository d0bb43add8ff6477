package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"adspy/internal/domain"
)

type FeedTab string

const (
	TabAll       FeedTab = "all"
	TabFacebook  FeedTab = "facebook"
	TabInstagram FeedTab = "instagram"
)

type FeedFormat string

const (
	FormatAll   FeedFormat = "all"
	FormatVideo FeedFormat = "video"
	FormatImage FeedFormat = "image"
)

// FeedSort orders descending. On TikTok results likes, reach and spend map to
// digg, play and share counts.
type FeedSort string

const (
	FeedSortNewest FeedSort = "newest"
	FeedSortLikes  FeedSort = "likes"
	FeedSortReach  FeedSort = "reach"
	FeedSortSpend  FeedSort = "spend"
)

// FeedOptions is the results grid view of one search
type FeedOptions struct {
	Tab    FeedTab
	Format FeedFormat
	Sort   FeedSort
}

// ParseFeedOptions reads query values; empty values mean all/newest.
func ParseFeedOptions(tab, format, sortBy string) (FeedOptions, error) {
	opts := FeedOptions{Tab: TabAll, Format: FormatAll, Sort: FeedSortNewest}

	switch FeedTab(strings.ToLower(strings.TrimSpace(tab))) {
	case "", TabAll:
	case TabFacebook:
		opts.Tab = TabFacebook
	case TabInstagram:
		opts.Tab = TabInstagram
	default:
		return opts, fmt.Errorf("%w: unsupported tab %q", domain.ErrInvalidParams, tab)
	}

	switch FeedFormat(strings.ToLower(strings.TrimSpace(format))) {
	case "", FormatAll:
	case FormatVideo:
		opts.Format = FormatVideo
	case FormatImage:
		opts.Format = FormatImage
	default:
		return opts, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidParams, format)
	}

	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "", string(FeedSortNewest):
	case string(FeedSortLikes):
		opts.Sort = FeedSortLikes
	case string(FeedSortReach), "reach_views":
		opts.Sort = FeedSortReach
	case string(FeedSortSpend), "spend_shares":
		opts.Sort = FeedSortSpend
	default:
		return opts, fmt.Errorf("%w: unsupported sort %q", domain.ErrInvalidParams, sortBy)
	}

	return opts, nil
}

// FilterMetaAds returns a filtered, stably sorted copy of ads.
func FilterMetaAds(ads []domain.NormalizedAd, opts FeedOptions) []domain.NormalizedAd {
	out := make([]domain.NormalizedAd, 0, len(ads))
	for _, ad := range ads {
		if opts.Tab == TabFacebook || opts.Tab == TabInstagram {
			if !ad.HasPlatform(string(opts.Tab)) {
				continue
			}
		}
		if opts.Format == FormatVideo && !ad.IsVideo() {
			continue
		}
		if opts.Format == FormatImage && !ad.IsImage() {
			continue
		}
		out = append(out, ad)
	}

	var key func(domain.NormalizedAd) float64
	switch opts.Sort {
	case FeedSortLikes:
		key = func(a domain.NormalizedAd) float64 { return a.Likes }
	case FeedSortReach:
		key = func(a domain.NormalizedAd) float64 { return a.Reach }
	case FeedSortSpend:
		key = func(a domain.NormalizedAd) float64 {
			if a.Spend == nil {
				return 0
			}
			return *a.Spend
		}
	default:
		key = func(a domain.NormalizedAd) float64 { return unixMillis(a.StartDate) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) > key(out[j])
	})
	return out
}

// FilterTikTokAds returns a filtered, stably sorted copy of ads. TikTok
// results are all videos, so the image format yields nothing.
func FilterTikTokAds(ads []domain.TikTokAd, opts FeedOptions) []domain.TikTokAd {
	if opts.Format == FormatImage {
		return []domain.TikTokAd{}
	}

	out := make([]domain.TikTokAd, len(ads))
	copy(out, ads)

	var key func(domain.TikTokAd) float64
	switch opts.Sort {
	case FeedSortLikes:
		key = func(a domain.TikTokAd) float64 { return a.DiggCount }
	case FeedSortReach:
		key = func(a domain.TikTokAd) float64 { return a.PlayCount }
	case FeedSortSpend:
		key = func(a domain.TikTokAd) float64 { return a.ShareCount }
	default:
		key = func(a domain.TikTokAd) float64 { return unixMillis(a.CreateTimeISO) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) > key(out[j])
	})
	return out
}

func unixMillis(iso string) float64 {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return 0
	}
	return float64(t.UnixMilli())
}
