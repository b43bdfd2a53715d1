// Package services holds the Remote API business logic between the HTTP
// handlers and the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/dmitrijs2005/syncbox/internal/server/models"
	"github.com/dmitrijs2005/syncbox/internal/server/repositories/repomanager"
)

// ListLimit caps how many entries List returns.
const ListLimit = 200

// CreateInput is the body of a create request.
type CreateInput struct {
	Title     string
	Notes     string
	Completed bool
	CreatedAt int64
	UpdatedAt int64
}

type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	deduper     Deduper
	logger      logging.Logger
}

func NewEntryService(db *sql.DB, rm repomanager.RepositoryManager, deduper Deduper, logger logging.Logger) *EntryService {
	if deduper == nil {
		deduper = NopDeduper{}
	}
	return &EntryService{db: db, repomanager: rm, deduper: deduper, logger: logger}
}

// Create stores a new entry. A non-empty key makes the call idempotent:
// repeating it returns the entry created the first time.
func (s *EntryService) Create(ctx context.Context, key string, in CreateInput) (*models.Entry, error) {
	if strings.TrimSpace(in.Title) == "" || in.CreatedAt == 0 || in.UpdatedAt == 0 {
		return nil, common.NewValidationError("title, created_at, updated_at", "missing required fields")
	}

	repo := s.repomanager.Entries(s.db)

	if key != "" {
		if e, ok := s.cached(ctx, key); ok {
			return e, nil
		}
	}

	e := &models.Entry{
		Title:     in.Title,
		Notes:     in.Notes,
		Completed: in.Completed,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	if key != "" {
		e.ClientKey = &key
	}

	created, err := repo.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("error creating entry: %w", err)
	}

	if key != "" {
		if err := s.deduper.Remember(ctx, key, created.ID); err != nil {
			s.logger.Warn(ctx, "deduper remember failed", "key", key, "error", err)
		}
	}
	return created, nil
}

// cached resolves key through the deduper. Any miss or failure falls back
// to the database, whose unique client_key is authoritative.
func (s *EntryService) cached(ctx context.Context, key string) (*models.Entry, bool) {
	id, ok, err := s.deduper.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "deduper lookup failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	e, err := s.repomanager.Entries(s.db).GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "cached entry lookup failed", "id", id, "error", err)
		}
		return nil, false
	}
	return e, true
}

func (s *EntryService) Update(ctx context.Context, id int64, p models.Patch) (*models.Entry, error) {
	if p.UpdatedAt == 0 {
		return nil, common.NewValidationError("updated_at", "missing required field")
	}
	e, err := s.repomanager.Entries(s.db).Update(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("error updating entry: %w", err)
	}
	return e, nil
}

// Delete removes entry id. Deleting a missing entry is not an error.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repomanager.Entries(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting entry: %w", err)
	}
	return nil
}

func (s *EntryService) List(ctx context.Context) ([]models.Entry, error) {
	list, err := s.repomanager.Entries(s.db).List(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	return list, nil
}
