// Package retention tracks day-over-day survival of high-score review IDs,
// a proxy for review manipulation: five- and four-star reviews that vanish
// between snapshots were likely deleted. Snapshots are kept in an injected
// key/value store as a single JSON document; writes are whole-document
// read-modify-write with last-writer-wins semantics, which is acceptable
// because writes for one app are infrequent and a lost update costs at most
// one day's snapshot.
package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

// StoreKey is the fixed document name under which the snapshot store lives.
const StoreKey = "review_snapshots"

// Reviews at or above this score count as positive for retention purposes.
const positiveScoreFloor = 4

// Status messages for zero-rate reports.
const (
	msgNoHistory    = "no snapshot history yet"
	msgTooRecent    = "less than one day of history accumulated"
	msgEmptyBaseDay = "no high-score reviews on the base date"
)

// KeyValueStore is the persistence capability the tracker depends on.
// Read returns the stored JSON document, or an empty JSON object when the
// key (or the underlying resource) does not exist yet.
type KeyValueStore interface {
	Read(ctx context.Context, key string) (json.RawMessage, error)
	Write(ctx context.Context, key string, doc json.RawMessage) error
}

// Tracker records daily snapshots and computes retention reports.
type Tracker struct {
	// Store is the injected document store.
	Store KeyValueStore
	// Now is the clock; nil means time.Now. Injected for tests.
	Now func() time.Time
}

// NewTracker constructs a Tracker over the given store.
func NewTracker(store KeyValueStore) *Tracker {
	return &Tracker{Store: store}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// RecordSnapshot stores today's set of review IDs with score >= 4 for appID.
// Recording the same app+date again overwrites the earlier entry. The method
// is designed to be called off the critical path; callers fire it from a
// goroutine and never observe its outcome.
func (t *Tracker) RecordSnapshot(ctx context.Context, appID string, reviews []domain.Review) error {
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if r.Score >= positiveScoreFloor && r.ID != "" {
			ids = append(ids, r.ID)
		}
	}

	doc, err := t.load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot store: %w", err)
	}
	if doc[appID] == nil {
		doc[appID] = make(map[string][]string)
	}
	doc[appID][t.today()] = ids

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot store: %w", err)
	}
	if err := t.Store.Write(ctx, StoreKey, raw); err != nil {
		return fmt.Errorf("write snapshot store: %w", err)
	}
	return nil
}

// RecordSnapshotAsync runs RecordSnapshot detached from the request path.
// Failures are logged and never surfaced to the caller.
func (t *Tracker) RecordSnapshotAsync(appID string, reviews []domain.Review) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.RecordSnapshot(ctx, appID, reviews); err != nil {
			log.Warn().Err(err).Str("app_id", appID).Msg("snapshot write failed")
		}
	}()
}

// ComputeRetention diffs today's snapshot against a base snapshot.
//
// The base date is exactly 7 days before today when such a snapshot exists.
// Otherwise the earliest available date strictly before today is used — not
// the nearest to 7 days ago. That choice is deliberate and load-bearing for
// report continuity; see DESIGN.md before changing it.
//
// When no base qualifies, or the base set is empty, a zero-rate report with
// an explanatory message is returned instead of an error.
func (t *Tracker) ComputeRetention(ctx context.Context, appID string) (*domain.RetentionReport, error) {
	doc, err := t.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot store: %w", err)
	}

	today := t.today()
	app := doc[appID]
	if len(app) == 0 {
		return &domain.RetentionReport{Message: msgNoHistory}, nil
	}

	baseDate := t.sevenDaysAgo()
	if _, ok := app[baseDate]; !ok {
		baseDate = ""
		for d := range app {
			if d >= today {
				continue
			}
			if baseDate == "" || d < baseDate {
				baseDate = d
			}
		}
		if baseDate == "" {
			return &domain.RetentionReport{TargetDate: today, Message: msgTooRecent}, nil
		}
	}

	baseIDs := app[baseDate]
	if len(baseIDs) == 0 {
		return &domain.RetentionReport{
			BaseDate:   baseDate,
			TargetDate: today,
			Message:    msgEmptyBaseDay,
		}, nil
	}

	todaySet := make(map[string]struct{}, len(app[today]))
	for _, id := range app[today] {
		todaySet[id] = struct{}{}
	}
	retained := 0
	for _, id := range baseIDs {
		if _, ok := todaySet[id]; ok {
			retained++
		}
	}

	rate := round1(float64(retained) / float64(len(baseIDs)) * 100)
	return &domain.RetentionReport{
		RetentionRate: rate,
		DeletedRate:   round1(100 - rate),
		BaseDate:      baseDate,
		TargetDate:    today,
		BaseCount:     len(baseIDs),
		RetainedCount: retained,
		DeletedCount:  len(baseIDs) - retained,
	}, nil
}

// load reads and decodes the whole snapshot document, treating an absent or
// empty document as an empty store.
func (t *Tracker) load(ctx context.Context) (domain.SnapshotDocument, error) {
	raw, err := t.Store.Read(ctx, StoreKey)
	if err != nil {
		return nil, err
	}
	doc := make(domain.SnapshotDocument)
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot store: %w", err)
	}
	return doc, nil
}

func (t *Tracker) today() string {
	return t.now().Format("2006-01-02")
}

func (t *Tracker) sevenDaysAgo() string {
	return t.now().AddDate(0, 0, -7).Format("2006-01-02")
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
