package gone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_gone/internal/cache"
	"go_gone/internal/model"

	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long verdicts and the pattern list stay cached
const DefaultTTL = time.Hour

// Config holds the collaborators shared by Store and Engine
type Config struct {
	Repo   Repository
	Cache  cache.Namespace
	Logger *logrus.Entry
	TTL    time.Duration
}

func (c *Config) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}

func (c *Config) logger(component string) *logrus.Entry {
	if c.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger()).WithField("component", component)
	}
	return c.Logger.WithField("component", component)
}

// Store owns the pattern list and keeps the match cache coherent with it.
// Every successful write flushes the whole cache namespace before returning.
type Store struct {
	repo   Repository
	cache  cache.Namespace
	ttl    time.Duration
	logger *logrus.Entry
}

// NewStore creates a pattern store
func NewStore(cfg *Config) *Store {
	return &Store{
		repo:   cfg.Repo,
		cache:  cfg.Cache,
		ttl:    cfg.ttl(),
		logger: cfg.logger("pattern-store"),
	}
}

// Add validates and stores a pattern and returns its id
func (s *Store) Add(ctx context.Context, pattern string, isRegex bool) (int, error) {
	p, err := s.insert(ctx, pattern, isRegex)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, "add")
	s.logger.WithFields(logrus.Fields{"id": p.ID, "pattern": p.URLPattern, "is_regex": p.IsRegex}).Info("Pattern added")
	return p.ID, nil
}

func (s *Store) insert(ctx context.Context, pattern string, isRegex bool) (*model.GonePattern, error) {
	clean, err := ValidatePattern(pattern, isRegex)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check pattern uniqueness: %w", ErrStorage, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicate, clean)
	}

	row := &model.GonePattern{URLPattern: clean, IsRegex: isRegex}
	if err := s.repo.Insert(ctx, row); err != nil {
		// A concurrent insert of the same string won the unique index.
		if errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, clean)
		}
		return nil, fmt.Errorf("%w: failed to insert pattern: %w", ErrStorage, err)
	}
	return row, nil
}

// Get returns one pattern by id
func (s *Store) Get(ctx context.Context, id int) (*model.GonePattern, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to get pattern %d: %w", ErrStorage, id, err)
	}
	return p, nil
}

// Delete removes a pattern and reports whether a row was removed
func (s *Store) Delete(ctx context.Context, id int) (bool, error) {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: failed to delete pattern %d: %w", ErrStorage, id, err)
	}
	if n == 0 {
		return false, nil
	}
	s.invalidate(ctx, "delete")
	s.logger.WithField("id", id).Info("Pattern deleted")
	return true, nil
}

// DeleteBulk removes every pattern whose id is in ids and returns the count removed.
// Unknown ids are ignored.
func (s *Store) DeleteBulk(ctx context.Context, ids []int) (int64, error) {
	clean := uniquePositive(ids)
	if len(clean) == 0 {
		return 0, nil
	}

	n, err := s.repo.DeleteIn(ctx, clean)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete patterns: %w", ErrStorage, err)
	}
	if n > 0 {
		s.invalidate(ctx, "bulk-delete")
		s.logger.WithFields(logrus.Fields{"requested": len(clean), "deleted": n}).Info("Patterns deleted")
	}
	return n, nil
}

// ListAll returns every pattern ordered newest first
func (s *Store) ListAll(ctx context.Context) ([]model.GonePattern, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list patterns: %w", ErrStorage, err)
	}
	return rows, nil
}

// ImportBatch inserts rows one by one. Rows with an empty pattern are skipped
// without counting; every other failed row counts as an error. Each success is
// committed before the next row, so later duplicates in the batch are rejected.
func (s *Store) ImportBatch(ctx context.Context, rows []ImportRow) ImportResult {
	var res ImportResult
	for _, row := range rows {
		_, err := s.insert(ctx, row.Pattern, row.IsRegex)
		switch {
		case err == nil:
			res.SuccessCount++
		case errors.Is(err, ErrValidation) && isBlank(row.Pattern):
			res.Skipped++
		default:
			res.ErrorCount++
			res.Failures = append(res.Failures, RowFailure{
				Line:    row.Line,
				Pattern: row.Pattern,
				Reason:  err.Error(),
			})
		}
	}

	if res.SuccessCount > 0 {
		s.invalidate(ctx, "import")
	}
	s.logger.WithFields(logrus.Fields{
		"success": res.SuccessCount,
		"errors":  res.ErrorCount,
		"skipped": res.Skipped,
	}).Info("Pattern import finished")
	return res
}

// Convert404 reports whether plain 404 responses are promoted to 410.
// Errors resolve to false.
func (s *Store) Convert404(ctx context.Context) bool {
	key := settingKey(model.SettingConvert404To410)
	entry, cacheErr := s.cache.Lookup(ctx, key)
	if cacheErr == nil && entry.Found {
		return entry.Value == "1"
	}
	if cacheErr != nil {
		s.logger.WithError(cacheErr).Warn("Failed to read setting from cache")
	}

	val, ok, err := s.repo.GetSetting(ctx, model.SettingConvert404To410)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read convert_404_to_410 setting")
		return false
	}
	enabled := ok && val == "1"

	if cacheErr == nil {
		if err := s.cache.Set(ctx, entry.Generation, key, boolString(enabled), s.ttl); err != nil {
			s.logger.WithError(err).Warn("Failed to cache setting")
		}
	}
	return enabled
}

// SetConvert404 persists the 404 to 410 promotion flag
func (s *Store) SetConvert404(ctx context.Context, enabled bool) error {
	if err := s.repo.PutSetting(ctx, model.SettingConvert404To410, boolString(enabled)); err != nil {
		return fmt.Errorf("%w: failed to save setting: %w", ErrStorage, err)
	}
	s.invalidate(ctx, "settings")
	s.logger.WithField("enabled", enabled).Info("convert_404_to_410 updated")
	return nil
}

// invalidate flushes the match cache. The write it follows is already
// committed, so a failed flush is retried once and then logged; stale
// entries are bounded by the TTL.
func (s *Store) invalidate(ctx context.Context, op string) {
	err := s.cache.Flush(ctx)
	if err == nil {
		return
	}
	if err = s.cache.Flush(ctx); err != nil {
		s.logger.WithError(err).WithField("op", op).Error("Failed to flush match cache")
	}
}

func uniquePositive(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
