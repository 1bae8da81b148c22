package gone

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go_gone/internal/cache"
	"go_gone/internal/logging"
	"go_gone/internal/model"
)

var errBoom = errors.New("boom")

// fakeRepo is an in-memory Repository that counts calls
type fakeRepo struct {
	mu       sync.Mutex
	rows     []model.GonePattern
	nextID   int
	now      time.Time
	settings map[string]string
	calls    map[string]int

	errExists  error
	errInsert  error
	errList    error
	errDelete  error
	errSetting error
	// racedInsert makes Exists miss and Insert hit the unique index
	racedInsert bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		now:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		settings: make(map[string]string),
		calls:    make(map[string]int),
	}
}

func (r *fakeRepo) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// seed stores a row without validation
func (r *fakeRepo) seed(pattern string, isRegex bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(pattern, isRegex)
}

func (r *fakeRepo) insertLocked(pattern string, isRegex bool) int {
	r.nextID++
	r.now = r.now.Add(time.Second)
	r.rows = append(r.rows, model.GonePattern{
		ID:         r.nextID,
		URLPattern: pattern,
		IsRegex:    isRegex,
		CreatedAt:  r.now,
	})
	return r.nextID
}

func (r *fakeRepo) Exists(_ context.Context, pattern string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["exists"]++
	if r.errExists != nil {
		return false, r.errExists
	}
	if r.racedInsert {
		return false, nil
	}
	for _, row := range r.rows {
		if row.URLPattern == pattern {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) Insert(_ context.Context, p *model.GonePattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["insert"]++
	if r.errInsert != nil {
		return r.errInsert
	}
	for _, row := range r.rows {
		if row.URLPattern == p.URLPattern {
			return ErrDuplicate
		}
	}
	p.ID = r.insertLocked(p.URLPattern, p.IsRegex)
	p.CreatedAt = r.now
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id int) (*model.GonePattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["get"]++
	for _, row := range r.rows {
		if row.ID == id {
			cp := row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) Delete(ctx context.Context, id int) (int64, error) {
	return r.DeleteIn(ctx, []int{id})
}

func (r *fakeRepo) DeleteIn(_ context.Context, ids []int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["delete"]++
	if r.errDelete != nil {
		return 0, r.errDelete
	}
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []model.GonePattern
	var n int64
	for _, row := range r.rows {
		if drop[row.ID] {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return n, nil
}

func (r *fakeRepo) ListAll(_ context.Context) ([]model.GonePattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["list"]++
	if r.errList != nil {
		return nil, r.errList
	}
	out := make([]model.GonePattern, len(r.rows))
	copy(out, r.rows)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *fakeRepo) GetSetting(_ context.Context, name string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["get-setting"]++
	if r.errSetting != nil {
		return "", false, r.errSetting
	}
	v, ok := r.settings[name]
	return v, ok, nil
}

func (r *fakeRepo) PutSetting(_ context.Context, name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["put-setting"]++
	if r.errSetting != nil {
		return r.errSetting
	}
	r.settings[name] = value
	return nil
}

// brokenCache fails every operation
type brokenCache struct {
	flushes int
}

func (b *brokenCache) Lookup(context.Context, string) (cache.Entry, error) {
	return cache.Entry{}, errBoom
}

func (b *brokenCache) Get(context.Context, int64, string) (string, bool, error) {
	return "", false, errBoom
}

func (b *brokenCache) Set(context.Context, int64, string, string, time.Duration) error {
	return errBoom
}

func (b *brokenCache) Flush(context.Context) error {
	b.flushes++
	return errBoom
}

type fixture struct {
	repo   *fakeRepo
	ns     *cache.MemoryNamespace
	store  *Store
	engine *Engine
}

func newFixture() *fixture {
	repo := newFakeRepo()
	ns := cache.NewMemoryNamespace()
	cfg := &Config{
		Repo:   repo,
		Cache:  ns,
		Logger: logging.Component(logging.Discard(), "test"),
	}
	return &fixture{
		repo:   repo,
		ns:     ns,
		store:  NewStore(cfg),
		engine: NewEngine(cfg),
	}
}

func req(uri string) RequestContext {
	return RequestContext{Method: "GET", URI: uri}
}
