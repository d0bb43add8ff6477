package normalize

import "adspy/internal/domain"

func (n *Normalizer) NormalizeTikTok(rows []any) []domain.TikTokAd {
	ads, _ := n.NormalizeTikTokWithReport(rows)
	return ads
}

// NormalizeTikTokWithReport applies the same drop and default rules as the
// Meta adapter to TikTok records.
func (n *Normalizer) NormalizeTikTokWithReport(rows []any) ([]domain.TikTokAd, Report) {
	report := newReport()
	report.Rows = len(rows)
	ads := make([]domain.TikTokAd, 0, len(rows))
	for _, row := range rows {
		if ad, ok := n.normalizeTikTokRow(row, &report); ok {
			ads = append(ads, ad)
		}
	}
	report.Normalized = len(ads)
	report.Dropped = report.Rows - report.Normalized
	return ads, report
}

func (n *Normalizer) normalizeTikTokRow(row any, report *Report) (ad domain.TikTokAd, ok bool) {
	item, ok := unwrap(row)
	if !ok {
		return domain.TikTokAd{}, false
	}
	defer func() {
		if recover() != nil {
			report.Recovered++
			ad, ok = domain.TikTokAd{}, false
		}
	}()

	r := newRecord(item, tiktokAliases, report)
	id, hasID := r.str(FieldID)
	if !hasID {
		r.defaulted(FieldID)
		id = n.newID()
	}

	return domain.TikTokAd{
		ID:            id,
		Text:          StripPlaceholders(r.strOr(FieldText, "")),
		WebVideoURL:   r.strOr(FieldWebVideoURL, ""),
		CreateTimeISO: r.date(FieldCreateTime, n.now),
		DiggCount:     r.numOr(FieldDiggCount, 0),
		ShareCount:    r.numOr(FieldShareCount, 0),
		PlayCount:     r.numOr(FieldPlayCount, 0),
		CommentCount:  r.numOr(FieldCommentCount, 0),
		CollectCount:  r.numOr(FieldCollectCount, 0),
		VideoMeta: domain.TikTokVideoMeta{
			CoverURL: r.strOr(FieldCoverURL, ""),
			Duration: r.numOr(FieldDuration, 0),
			Height:   r.numOr(FieldHeight, 0),
			Width:    r.numOr(FieldWidth, 0),
		},
		AuthorMeta: domain.TikTokAuthorMeta{
			NickName:   r.strOr(FieldAuthorName, "Unknown Creator"),
			ProfileURL: r.strOr(FieldAuthorProfile, ""),
			AvatarURL:  r.strOr(FieldAuthorAvatar, ""),
		},
	}, true
}
