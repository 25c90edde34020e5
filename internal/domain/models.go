// Package domain defines the core data types exchanged between the review
// acquisition pipeline, the classifier, and the retention tracker, plus the
// persistence model for the snapshot document store (mapped with GORM).
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Review is a single user review as fetched from the store. ID may be empty
// when the source did not provide one; an empty ID means the item can never
// be treated as a duplicate of anything. Reviews are immutable once fetched.
type Review struct {
	ID       string    `json:"id"`
	AppID    string    `json:"appId"`
	UserName string    `json:"userName"`
	Text     string    `json:"text"`
	Score    int       `json:"score"`
	Time     time.Time `json:"time"`
}

// ReviewItem is the display shape relayed to clients. Time is rendered
// date-only when the underlying value carried a time-of-day component.
type ReviewItem struct {
	ID       string `json:"id"`
	AppID    string `json:"appId"`
	UserName string `json:"userName"`
	Text     string `json:"text"`
	Score    int    `json:"score"`
	Time     string `json:"time"`
}

// AppDetail is the canonical store record for an application.
type AppDetail struct {
	AppID    string  `json:"appId"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
	Installs string  `json:"installs"`
	Genre    string  `json:"genre"`
}

// AppSummary is a search hit: just enough to apply the match heuristic.
type AppSummary struct {
	AppID string `json:"appId"`
	Title string `json:"title"`
}

// Stats aggregates the reviews that fall inside the fixed date window.
// AvgScoreInDateRange is 0 when the window is empty. IsFallbackUsed is
// always false today: out-of-window data is never substituted; the field
// exists so clients can rely on the contract.
type Stats struct {
	TotalInDateRange    int     `json:"totalInDateRange"`
	BadInDateRange      int     `json:"badInDateRange"`
	AvgScoreInDateRange float64 `json:"avgScoreInDateRange"`
	IsFallbackUsed      bool    `json:"isFallbackUsed"`
}

// Category is the closed set of complaint categories.
type Category string

const (
	CategoryForce    Category = "force" // coercive / unauthorized disbursement
	CategoryViolence Category = "viol"  // collection misconduct
	CategoryInterest Category = "int"   // fees / interest dissatisfaction
	CategoryRejected Category = "rej"   // rejection, stuck review, non-disbursement fraud claims
	CategoryAmount   Category = "amt"   // credit-limit / amount dissatisfaction
	CategoryOther    Category = "other"
)

// Classification is the per-review classifier output, order-preserving with
// respect to the input list.
type Classification struct {
	ID         string   `json:"id"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// RetentionReport describes day-over-day survival of high-score review IDs.
// Rates are percentages rounded to one decimal place. Message is set when
// the tracker reports zero rates for an explainable reason instead of failing.
type RetentionReport struct {
	RetentionRate float64 `json:"retentionRate"`
	DeletedRate   float64 `json:"deletedRate"`
	BaseDate      string  `json:"baseDate,omitempty"`
	TargetDate    string  `json:"targetDate,omitempty"`
	BaseCount     int     `json:"baseCount"`
	RetainedCount int     `json:"retainedCount"`
	DeletedCount  int     `json:"deletedCount"`
	Message       string  `json:"message,omitempty"`
}

// SnapshotDocument is the whole snapshot store as one JSON document:
// appId -> date (YYYY-MM-DD) -> review IDs with score >= 4 seen that day.
// A date entry is overwritten when the same app+date is recomputed; the
// document grows unbounded, which is an accepted limitation.
type SnapshotDocument map[string]map[string][]string

// Document is a persisted JSON document in the key/value store.
//
// Fields:
//   - Key: stable document name (e.g. "review_snapshots").
//   - Value: raw JSON payload, opaque to the store.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Document struct {
	Key       string         `json:"key"   gorm:"type:varchar(128);primaryKey"`
	Value     []byte         `json:"value" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"     gorm:"index"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }
