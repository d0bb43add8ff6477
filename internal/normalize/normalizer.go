// Package normalize maps raw scraper ad records of any known naming
// generation into the canonical domain.NormalizedAd and domain.TikTokAd
// shapes. Normalization never fails on record content: missing or malformed
// fields resolve to documented defaults, and only absent rows are dropped.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"adspy/internal/domain"

	"github.com/google/uuid"
)

// Report summarizes one normalization run.
type Report struct {
	Rows       int           `json:"rows"`
	Normalized int           `json:"normalized"`
	Dropped    int           `json:"dropped"`
	Recovered  int           `json:"recovered"`
	Defaulted  map[Field]int `json:"defaulted"`
}

func newReport() Report {
	return Report{Defaulted: map[Field]int{}}
}

func (r *Report) markDefaulted(f Field) {
	r.Defaulted[f]++
}

// Merge folds other into r
func (r *Report) Merge(other Report) {
	if r.Defaulted == nil {
		r.Defaulted = map[Field]int{}
	}
	r.Rows += other.Rows
	r.Normalized += other.Normalized
	r.Dropped += other.Dropped
	r.Recovered += other.Recovered
	for f, n := range other.Defaulted {
		r.Defaulted[f] += n
	}
}

type Normalizer struct {
	now   func() time.Time
	newID func() string
}

type Option func(*Normalizer)

// WithClock sets the time used for missing or unparseable dates.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator sets the token used when a record carries no id.
func WithIDGenerator(newID func() string) Option {
	return func(n *Normalizer) { n.newID = newID }
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Normalize maps rows with the default normalizer.
func Normalize(rows []any) []domain.NormalizedAd {
	return defaultNormalizer.Normalize(rows)
}

// NormalizeTikTok maps TikTok rows with the default normalizer.
func NormalizeTikTok(rows []any) []domain.TikTokAd {
	return defaultNormalizer.NormalizeTikTok(rows)
}

// NormalizeJSON decodes a JSON array of rows and normalizes it. The error
// only reports undecodable input, never record content.
func NormalizeJSON(data []byte) ([]domain.NormalizedAd, error) {
	rows, err := DecodeRows(data)
	if err != nil {
		return nil, err
	}
	return defaultNormalizer.Normalize(rows), nil
}

// DecodeRows decodes a JSON array keeping numbers as json.Number, so large
// archive ids keep every digit.
func DecodeRows(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, nil
}

// DecodeRaw decodes backend messages one by one. An undecodable message
// becomes a nil row.
func DecodeRaw(msgs []json.RawMessage) []any {
	rows := make([]any, len(msgs))
	for i, msg := range msgs {
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err == nil {
			rows[i] = v
		}
	}
	return rows
}

func (n *Normalizer) Normalize(rows []any) []domain.NormalizedAd {
	ads, _ := n.NormalizeWithReport(rows)
	return ads
}

func (n *Normalizer) NormalizeWithReport(rows []any) ([]domain.NormalizedAd, Report) {
	report := newReport()
	report.Rows = len(rows)
	ads := make([]domain.NormalizedAd, 0, len(rows))
	for _, row := range rows {
		if ad, ok := n.normalizeRow(row, &report); ok {
			ads = append(ads, ad)
		}
	}
	report.Normalized = len(ads)
	report.Dropped = report.Rows - report.Normalized
	return ads, report
}

// NormalizeAd maps a single row. It reports false only for absent rows.
func (n *Normalizer) NormalizeAd(row any) (domain.NormalizedAd, bool) {
	report := newReport()
	return n.normalizeRow(row, &report)
}

func (n *Normalizer) normalizeRow(row any, report *Report) (ad domain.NormalizedAd, ok bool) {
	item, ok := unwrap(row)
	if !ok {
		return domain.NormalizedAd{}, false
	}
	defer func() {
		if recover() != nil {
			report.Recovered++
			ad, ok = domain.NormalizedAd{}, false
		}
	}()

	r := newRecord(item, metaAliases, report)
	id, hasID := r.str(FieldID)
	if !hasID {
		r.defaulted(FieldID)
		id = n.newID()
	}

	return domain.NormalizedAd{
		ID:                 id,
		IsActive:           r.isActive(),
		PublisherPlatforms: r.platforms(),
		Media:              r.media(),
		BodyText:           r.bodyText(),
		Title:              r.strOr(FieldTitle, "Ad"),
		PageName:           r.strOr(FieldPageName, "Unknown Page"),
		AvatarURL:          r.strPtr(FieldAvatarURL),
		CTAText:            r.strOr(FieldCTAText, "Learn More"),
		LinkURL:            r.strOr(FieldLinkURL, "#"),
		AdLibraryURL:       r.strOr(FieldAdLibraryURL, ""),
		StartDate:          r.date(FieldStartDate, n.now),
		Reach:              r.numOr(FieldReach, 0),
		Likes:              r.numOr(FieldLikes, 0),
		EfficiencyScore:    r.numOr(FieldEfficiencyScore, 0),
		PageSize:           r.numOr(FieldPageSize, 0),
		Spend:              r.numPtr(FieldSpend),
		Targeting:          r.targeting(),
		AdvertiserInfo:     domain.AdvertiserInfo{Category: r.category()},
	}, true
}

func (r *record) strPtr(f Field) *string {
	if s, ok := r.str(f); ok {
		return &s
	}
	r.defaulted(f)
	return nil
}

// unwrap resolves the record behind a row: a truthy "data" member wins over
// the row itself. Only falsy rows are absent. Rows that are present but not
// objects map to an empty record, so every field takes its default.
func unwrap(row any) (map[string]any, bool) {
	if m, ok := row.(map[string]any); ok && m != nil {
		if data := m["data"]; truthy(data) {
			row = data
		}
	}
	if !truthy(row) {
		return nil, false
	}
	if m, ok := row.(map[string]any); ok {
		return m, true
	}
	return map[string]any{}, true
}
