package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"adspy/internal/domain"
)

// ISOLayout renders UTC timestamps with millisecond precision.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// maxDateMillis bounds accepted timestamps, in milliseconds from the epoch.
const maxDateMillis = 8.64e15

var templatePlaceholder = regexp.MustCompile(`(?s)\{\{.*?\}\}`)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// media picks video, then carousel, then image. No entries means no media.
func (r *record) media() *domain.Media {
	if videos := r.list(FieldVideos); videos != nil {
		v := firstMap(videos)
		m := &domain.Media{Type: domain.MediaVideo}
		if v != nil {
			m.URL = firstString(v, videoURLKeys)
			m.Poster = firstString(v, videoPosterKeys)
		}
		return m
	}
	if cards := r.list(FieldCards); cards != nil {
		m := &domain.Media{Type: domain.MediaCarousel}
		if c := firstMap(cards); c != nil {
			m.URL = firstString(c, imageURLKeys)
		}
		return m
	}
	if images := r.list(FieldImages); images != nil {
		m := &domain.Media{Type: domain.MediaImage}
		if img := firstMap(images); img != nil {
			m.URL = firstString(img, imageURLKeys)
		}
		return m
	}
	r.defaulted(FieldVideos)
	return nil
}

func (r *record) bodyText() *string {
	raw, ok := r.str(FieldBody)
	if !ok {
		r.defaulted(FieldBody)
		return nil
	}
	text := StripPlaceholders(raw)
	if text == "" {
		r.defaulted(FieldBody)
		return nil
	}
	return &text
}

// StripPlaceholders removes {{...}} template spans and trims the result.
func StripPlaceholders(s string) string {
	return strings.TrimSpace(templatePlaceholder.ReplaceAllString(s, ""))
}

// date returns the field as an ISO-8601 string. Numbers are UNIX seconds.
// Missing or unparseable values fall back to now.
func (r *record) date(f Field, now func() time.Time) string {
	for _, v := range r.values(f) {
		if t, ok := parseDate(v); ok {
			return t.UTC().Format(ISOLayout)
		}
	}
	r.defaulted(f)
	return now().UTC().Format(ISOLayout)
}

func parseDate(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if _, isBool := v.(bool); isBool {
		return time.Time{}, false
	}
	if secs, ok := toNumber(v); ok {
		ms := secs * 1000
		if math.Abs(ms) > maxDateMillis {
			return time.Time{}, false
		}
		t := time.UnixMilli(int64(ms)).UTC()
		// ISOLayout only renders four digit years
		if t.Year() < 0 || t.Year() > 9999 {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// platforms lowercases and dedupes, keeping first-seen order. A single
// comma separated string is accepted as well.
func (r *record) platforms() []string {
	out := []string{}
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, v := range r.values(FieldPlatforms) {
		switch p := v.(type) {
		case []any:
			for _, e := range p {
				if s, ok := e.(string); ok {
					add(s)
				}
			}
			return out
		case string:
			for _, s := range strings.Split(p, ",") {
				add(s)
			}
			return out
		}
	}
	r.defaulted(FieldPlatforms)
	return out
}

// isActive is true unless any naming variant is explicitly false.
func (r *record) isActive() bool {
	for _, v := range r.values(FieldIsActive) {
		if b, ok := v.(bool); ok && !b {
			return false
		}
	}
	return true
}

func (r *record) category() *string {
	for _, v := range r.values(FieldCategory) {
		switch c := v.(type) {
		case []any:
			if len(c) == 0 {
				continue
			}
			if s, ok := toString(c[0]); ok {
				return &s
			}
		case string:
			if s, ok := toString(c); ok {
				return &s
			}
		}
	}
	r.defaulted(FieldCategory)
	return nil
}

func (r *record) targeting() domain.Targeting {
	return domain.Targeting{
		Ages:          r.stringList(FieldAges, ageBucket),
		Genders:       r.stringList(FieldGenders, nil),
		Locations:     r.locations(),
		ReachEstimate: r.numPtr(FieldReachEstimate),
		Breakdown:     r.breakdown(),
	}
}

// ageBucket renders {"min": 18, "max": 65} style EU age audiences.
func ageBucket(m map[string]any) string {
	lo := firstNumber(m, "min", "age_min", "ageMin")
	hi := firstNumber(m, "max", "age_max", "ageMax")
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%g-%g", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("%g+", *lo)
	case hi != nil:
		return fmt.Sprintf("-%g", *hi)
	}
	return ""
}

func (r *record) stringList(f Field, fromMap func(map[string]any) string) []string {
	out := []string{}
	appendOne := func(e any) {
		if s, ok := toString(e); ok {
			out = append(out, s)
			return
		}
		if m, ok := e.(map[string]any); ok && fromMap != nil {
			if s := fromMap(m); s != "" {
				out = append(out, s)
			}
		}
	}
	for _, v := range r.values(f) {
		switch l := v.(type) {
		case []any:
			for _, e := range l {
				appendOne(e)
			}
		default:
			appendOne(l)
		}
		if len(out) > 0 {
			return out
		}
	}
	r.defaulted(f)
	return out
}

func (r *record) locations() []domain.LocationTarget {
	out := []domain.LocationTarget{}
	for _, v := range r.values(FieldLocations) {
		l, ok := v.([]any)
		if !ok {
			l = []any{v}
		}
		for _, e := range l {
			switch loc := e.(type) {
			case string:
				if s, ok := toString(loc); ok {
					out = append(out, domain.LocationTarget{Name: s})
				}
			case map[string]any:
				name := firstString(loc, locationNameKeys)
				if name == "" {
					continue
				}
				t := domain.LocationTarget{Name: name, Type: firstString(loc, locationTypeKeys)}
				for _, k := range locationExcludedKeys {
					if b, ok := loc[k].(bool); ok {
						t.Excluded = b
						break
					}
				}
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	r.defaulted(FieldLocations)
	return out
}

func (r *record) breakdown() []domain.CountryBreakdown {
	out := []domain.CountryBreakdown{}
	for _, v := range r.values(FieldBreakdown) {
		l, ok := v.([]any)
		if !ok {
			continue
		}
		for _, e := range l {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			cb := domain.CountryBreakdown{
				Country:             firstString(m, breakdownCountryKeys),
				AgeGenderBreakdowns: []domain.AgeGenderBreakdown{},
			}
			for _, k := range breakdownEntriesKeys {
				entries, ok := m[k].([]any)
				if !ok {
					continue
				}
				for _, be := range entries {
					bm, ok := be.(map[string]any)
					if !ok {
						continue
					}
					cb.AgeGenderBreakdowns = append(cb.AgeGenderBreakdowns, domain.AgeGenderBreakdown{
						AgeRange: firstString(bm, breakdownAgeRangeKeys),
						Male:     firstNumber(bm, "male"),
						Female:   firstNumber(bm, "female"),
						Unknown:  firstNumber(bm, "unknown"),
					})
				}
				break
			}
			out = append(out, cb)
		}
		if len(out) > 0 {
			return out
		}
	}
	r.defaulted(FieldBreakdown)
	return out
}
