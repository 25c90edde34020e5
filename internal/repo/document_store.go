// Package repo implements the persistence layer, backed by GORM over the
// pure-Go SQLite driver. This file provides DocumentStore, a small JSON
// document store keyed by name. It backs the retention tracker's snapshot
// document, replacing the flat JSON files the service once wrote: reads of
// a missing key return an empty object so callers never special-case first
// use.
package repo

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

// DocumentStore reads and writes named JSON documents.
type DocumentStore struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewDocumentStore constructs a DocumentStore over db.
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{DB: db}
}

// Read returns the document stored under key, or an empty JSON object when
// the key has never been written.
func (s *DocumentStore) Read(ctx context.Context, key string) (json.RawMessage, error) {
	var doc domain.Document
	err := s.DB.WithContext(ctx).First(&doc, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return json.RawMessage(`{}`), nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc.Value), nil
}

// Write stores value under key, replacing any previous document.
func (s *DocumentStore) Write(ctx context.Context, key string, value json.RawMessage) error {
	doc := domain.Document{Key: key, Value: []byte(value)}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&doc).Error
}
