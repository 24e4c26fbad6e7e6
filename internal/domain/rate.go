package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is used for every persisted timestamp and history id.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

type RatePair struct {
	From string
	To   string
}

func (p RatePair) Reversed() RatePair {
	return RatePair{
		From: p.To,
		To:   p.From,
	}
}

// Key returns the canonical "FROM_TO" pair key.
func (p RatePair) Key() string {
	return p.From + "_" + p.To
}

// ParsePairKey splits "FROM_TO" into a pair, rejecting anything that is not
// two uppercase currency codes.
func ParsePairKey(key string) (RatePair, error) {
	from, to, ok := strings.Cut(key, "_")
	if !ok || !isCode(from) || !isCode(to) {
		return RatePair{}, fmt.Errorf("%w: %q", ErrInvalidPairKey, key)
	}
	return RatePair{From: from, To: to}, nil
}

func isCode(s string) bool {
	if len(s) < 2 || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// SnapshotEntry is the latest observation of a single directed pair.
type SnapshotEntry struct {
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
}

type Snapshot struct {
	Pairs       map[string]SnapshotEntry `json:"pairs"`
	LastRefresh *time.Time               `json:"last_refresh"`
}

func EmptySnapshot() Snapshot {
	return Snapshot{Pairs: map[string]SnapshotEntry{}}
}

func (s Snapshot) Lookup(p RatePair) (SnapshotEntry, bool) {
	e, ok := s.Pairs[p.Key()]
	return e, ok
}

type HistoryRecord struct {
	ID           string         `json:"id"`
	FromCurrency string         `json:"from_currency"`
	ToCurrency   string         `json:"to_currency"`
	Rate         float64        `json:"rate"`
	Timestamp    time.Time      `json:"timestamp"`
	Source       string         `json:"source"`
	Meta         map[string]any `json:"meta"`
}

// HistoryID builds the dedup key of a history record.
func HistoryID(p RatePair, ts time.Time) string {
	return p.Key() + "_" + ts.UTC().Format(TimestampLayout)
}

// FetchedRate is one normalized observation returned by a rate source.
type FetchedRate struct {
	Pair   RatePair
	Rate   float64
	Source string
	Meta   map[string]any
}

// RateQuote is the answer of a rate lookup.
type RateQuote struct {
	Rate        float64
	UpdatedAt   time.Time
	ReverseRate *float64
	// Estimated is set when Rate was synthesized from the reverse pair.
	Estimated bool
}
