package gone

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go_gone/internal/cache"
	"go_gone/internal/logging"
)

func TestStore_Add(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id, err := f.store.Add(ctx, "  /old-page  ", false)
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if id != 1 {
		t.Errorf("Expected id 1, got %d", id)
	}

	rows, _ := f.store.ListAll(ctx)
	if len(rows) != 1 || rows[0].URLPattern != "/old-page" {
		t.Fatalf("Expected trimmed pattern to be stored, got %+v", rows)
	}
	if rows[0].CreatedAt.IsZero() {
		t.Error("Expected created_at to be assigned")
	}
}

func TestStore_Add_Validation(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		isRegex bool
	}{
		{name: "empty", pattern: "", isRegex: false},
		{name: "whitespace only", pattern: "   ", isRegex: false},
		{name: "unclosed bracket", pattern: "^/prod[", isRegex: true},
		{name: "unsupported lookahead", pattern: "^/(?!keep)", isRegex: true},
		{name: "too long", pattern: "/" + strings.Repeat("a", 255), isRegex: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()

			_, err := f.store.Add(ctx, tt.pattern, tt.isRegex)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Add(%q) error = %v, want ErrValidation", tt.pattern, err)
			}
			rows, _ := f.store.ListAll(ctx)
			if len(rows) != 0 {
				t.Errorf("store should be unchanged, got %d rows", len(rows))
			}
			if f.repo.count("insert") != 0 {
				t.Error("invalid pattern must not reach storage")
			}
		})
	}
}

func TestStore_Add_BracketIsFineAsExact(t *testing.T) {
	f := newFixture()
	if _, err := f.store.Add(context.Background(), "^/prod[", false); err != nil {
		t.Errorf("exact pattern should not be compiled, got %v", err)
	}
}

func TestStore_Add_Duplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.store.Add(ctx, "/a", false); err != nil {
		t.Fatalf("first Add() failed: %v", err)
	}
	_, err := f.store.Add(ctx, "/a", false)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Add() error = %v, want ErrDuplicate", err)
	}

	// Uniqueness is on the string, not the (string, flag) pair.
	_, err = f.store.Add(ctx, "/a", true)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("regex Add() of same string error = %v, want ErrDuplicate", err)
	}

	// Case-sensitive comparison.
	if _, err := f.store.Add(ctx, "/A", false); err != nil {
		t.Errorf("Add() of different case failed: %v", err)
	}
}

func TestStore_Add_LostRace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.repo.seed("/race", false)
	f.repo.racedInsert = true

	_, err := f.store.Add(ctx, "/race", false)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Add() error = %v, want ErrDuplicate", err)
	}
	if errors.Is(err, ErrStorage) {
		t.Error("lost race must not surface as a storage error")
	}
}

func TestStore_Add_StorageError(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *fakeRepo)
	}{
		{name: "exists fails", setup: func(r *fakeRepo) { r.errExists = errBoom }},
		{name: "insert fails", setup: func(r *fakeRepo) { r.errInsert = errBoom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f.repo)

			_, err := f.store.Add(context.Background(), "/x", false)
			if !errors.Is(err, ErrStorage) {
				t.Fatalf("Add() error = %v, want ErrStorage", err)
			}
			if !errors.Is(err, errBoom) {
				t.Error("cause should be preserved")
			}
		})
	}
}

func TestStore_Add_FlushFailureStillSucceeds(t *testing.T) {
	repo := newFakeRepo()
	bc := &brokenCache{}
	store := NewStore(&Config{Repo: repo, Cache: bc, Logger: logging.Component(logging.Discard(), "test")})

	if _, err := store.Add(context.Background(), "/x", false); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if bc.flushes != 2 {
		t.Errorf("Expected flush to be retried once, got %d attempts", bc.flushes)
	}
}

func TestStore_Get(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.store.Add(ctx, "/a", false)

	p, err := f.store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if p.URLPattern != "/a" {
		t.Errorf("Expected /a, got %s", p.URLPattern)
	}

	if _, err := f.store.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(999) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.store.Add(ctx, "/a", false)

	removed, err := f.store.Delete(ctx, id)
	if err != nil || !removed {
		t.Fatalf("Delete() = (%v, %v), want (true, nil)", removed, err)
	}

	removed, err = f.store.Delete(ctx, id)
	if err != nil || removed {
		t.Errorf("second Delete() = (%v, %v), want (false, nil)", removed, err)
	}

	f.repo.errDelete = errBoom
	if _, err := f.store.Delete(ctx, 1); !errors.Is(err, ErrStorage) {
		t.Errorf("Delete() error = %v, want ErrStorage", err)
	}
}

func TestStore_DeleteBulk(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id1, _ := f.store.Add(ctx, "/one", false)
	id2, _ := f.store.Add(ctx, "/two", false)

	n, err := f.store.DeleteBulk(ctx, []int{id1, 999})
	if err != nil {
		t.Fatalf("DeleteBulk() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 row removed, got %d", n)
	}

	rows, _ := f.store.ListAll(ctx)
	if len(rows) != 1 || rows[0].ID != id2 {
		t.Errorf("Expected only id %d to remain, got %+v", id2, rows)
	}
}

func TestStore_DeleteBulk_NoMatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	n, err := f.store.DeleteBulk(ctx, []int{41, 42})
	if err != nil || n != 0 {
		t.Errorf("DeleteBulk() = (%d, %v), want (0, nil)", n, err)
	}

	n, err = f.store.DeleteBulk(ctx, []int{0, -3})
	if err != nil || n != 0 {
		t.Errorf("DeleteBulk() of invalid ids = (%d, %v), want (0, nil)", n, err)
	}
	if f.repo.count("delete") != 1 {
		t.Errorf("invalid ids should not reach storage, delete calls = %d", f.repo.count("delete"))
	}
}

func TestStore_ListAll_NewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, p := range []string{"/first", "/second", "/third"} {
		if _, err := f.store.Add(ctx, p, false); err != nil {
			t.Fatalf("Add(%s) failed: %v", p, err)
		}
	}

	rows, err := f.store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	want := []string{"/third", "/second", "/first"}
	for i, w := range want {
		if rows[i].URLPattern != w {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].URLPattern, w)
		}
	}

	f.repo.errList = errBoom
	if _, err := f.store.ListAll(ctx); !errors.Is(err, ErrStorage) {
		t.Errorf("ListAll() error = %v, want ErrStorage", err)
	}
}

func TestStore_ImportBatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rows := []ImportRow{
		{Line: 1, Pattern: "/a", IsRegex: ParseFlag("")},
		{Line: 2, Pattern: "/a", IsRegex: ParseFlag("0")},
		{Line: 3, Pattern: "", IsRegex: ParseFlag("0")},
		{Line: 4, Pattern: "^bad[", IsRegex: ParseFlag("1")},
	}

	res := f.store.ImportBatch(ctx, rows)
	if res.SuccessCount != 1 {
		t.Errorf("Expected 1 success, got %d", res.SuccessCount)
	}
	if res.ErrorCount != 2 {
		t.Errorf("Expected 2 errors, got %d", res.ErrorCount)
	}
	if res.Skipped != 1 {
		t.Errorf("Expected 1 skipped row, got %d", res.Skipped)
	}
	if len(res.Failures) != 2 || res.Failures[0].Line != 2 || res.Failures[1].Line != 4 {
		t.Errorf("Unexpected failures: %+v", res.Failures)
	}
}

func TestStore_ImportBatch_PartialSuccessOnStorageErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.Add(ctx, "/existing", false)

	res := f.store.ImportBatch(ctx, []ImportRow{
		{Line: 1, Pattern: "/existing"},
		{Line: 2, Pattern: "/new"},
		{Line: 3, Pattern: "^/blog/.*", IsRegex: true},
	})
	if res.SuccessCount != 2 || res.ErrorCount != 1 {
		t.Errorf("ImportBatch() = %+v, want 2 successes and 1 error", res)
	}

	f.repo.errInsert = errBoom
	res = f.store.ImportBatch(ctx, []ImportRow{{Line: 1, Pattern: "/later"}})
	if res.SuccessCount != 0 || res.ErrorCount != 1 {
		t.Errorf("ImportBatch() = %+v, want storage failure counted as error", res)
	}
}

func TestStore_ImportBatch_FlushesOnce(t *testing.T) {
	repo := newFakeRepo()
	ns := &countingCache{Namespace: cache.NewMemoryNamespace()}
	store := NewStore(&Config{Repo: repo, Cache: ns, Logger: logging.Component(logging.Discard(), "test")})

	store.ImportBatch(context.Background(), []ImportRow{{Pattern: "/a"}, {Pattern: "/b"}, {Pattern: "/c"}})
	if ns.flushes != 1 {
		t.Errorf("Expected one flush for the batch, got %d", ns.flushes)
	}

	store.ImportBatch(context.Background(), []ImportRow{{Pattern: "/a"}})
	if ns.flushes != 1 {
		t.Errorf("A batch with no success should not flush, got %d", ns.flushes)
	}
}

func TestStore_Convert404(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if f.store.Convert404(ctx) {
		t.Error("convert_404_to_410 should default to false")
	}

	if err := f.store.SetConvert404(ctx, true); err != nil {
		t.Fatalf("SetConvert404() failed: %v", err)
	}
	if !f.store.Convert404(ctx) {
		t.Error("convert_404_to_410 should be true after update")
	}

	reads := f.repo.count("get-setting")
	f.store.Convert404(ctx)
	if f.repo.count("get-setting") != reads {
		t.Error("second read should be served from cache")
	}

	if err := f.store.SetConvert404(ctx, false); err != nil {
		t.Fatalf("SetConvert404() failed: %v", err)
	}
	if f.store.Convert404(ctx) {
		t.Error("update should invalidate the cached setting")
	}
}

func TestStore_Convert404_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.repo.settings["convert_404_to_410"] = "1"
	f.repo.errSetting = errBoom

	if f.store.Convert404(ctx) {
		t.Error("storage failure should resolve to false")
	}
	if err := f.store.SetConvert404(ctx, true); !errors.Is(err, ErrStorage) {
		t.Errorf("SetConvert404() error = %v, want ErrStorage", err)
	}

	f.repo.errSetting = nil
	store := NewStore(&Config{Repo: f.repo, Cache: &brokenCache{}, Logger: logging.Component(logging.Discard(), "test")})
	if !store.Convert404(ctx) {
		t.Error("cache failure should fall back to storage")
	}
}

type countingCache struct {
	cache.Namespace
	flushes int
}

func (c *countingCache) Flush(ctx context.Context) error {
	c.flushes++
	return c.Namespace.Flush(ctx)
}
