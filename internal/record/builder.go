// Package record turns dataset rows into searchable records.
package record

import (
	"fmt"
	"strconv"

	"stocksense/internal/dataset"
	"stocksense/internal/domain"
)

// Fallback sentinels keep the sentence structure uniform when optional
// columns are absent, instead of dropping clauses.
const (
	notAvailable = "N/A"
	noAction     = "None"
)

// Builder assembles one record per dataset row for a single ticker.
type Builder struct {
	ticker  string
	company string
}

func NewBuilder(ticker, company string) *Builder {
	return &Builder{ticker: ticker, company: company}
}

// Build produces the record for the row at zero-based position pos.
// The output is deterministic: the same row always yields byte-identical
// text, so re-running ingestion never re-embeds changed sentences.
func (b *Builder) Build(pos int, row dataset.Row) (domain.Record, error) {
	if row.Date == "" {
		return domain.Record{}, &domain.MalformedRowError{Row: pos, Reason: "missing date"}
	}
	if len(row.Date) < 4 {
		return domain.Record{}, &domain.MalformedRowError{Row: pos, Reason: fmt.Sprintf("date %q has no year prefix", row.Date)}
	}

	adjClose := row.AdjClose
	if adjClose == "" {
		adjClose = notAvailable
	}
	marketCap := row.MarketCap
	if marketCap == "" {
		marketCap = notAvailable
	}
	action := row.CorporateAction
	if action == "" {
		action = noAction
	}

	text := fmt.Sprintf(
		"On %s, %s (%s) stock opened at %s USD, "+
			"reached a high of %s USD, "+
			"dropped to a low of %s USD, "+
			"and closed at %s USD. "+
			"The adjusted close price was %s USD. "+
			"Trading volume was %s. "+
			"Estimated market capitalization was %s. "+
			"Corporate action details: %s.",
		row.Date, b.company, b.ticker,
		row.Open, row.High, row.Low, row.Close,
		adjClose, row.Volume, marketCap, action,
	)

	return domain.Record{
		ID:   strconv.Itoa(pos),
		Text: text,
		Metadata: map[string]string{
			"ticker": b.ticker,
			"date":   row.Date,
			"year":   row.Date[:4],
		},
	}, nil
}

// BuildAll builds records for every row in order, stopping at the first
// malformed row.
func (b *Builder) BuildAll(rows []dataset.Row) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := b.Build(i, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
