package credentials

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// cursorStrategy always picks the credential at the cursor and advances it,
// mirroring round-robin without importing the strategies package.
type cursorStrategy struct{}

func (cursorStrategy) Pick(creds []*Credential, cursor int) (int, int, error) {
	index := cursor % len(creds)
	return index, (index + 1) % len(creds), nil
}

func (cursorStrategy) Name() string { return "cursor" }

// firstStrategy always picks index 0 and leaves the cursor alone.
type firstStrategy struct{}

func (firstStrategy) Pick(creds []*Credential, cursor int) (int, int, error) {
	return 0, cursor, nil
}

func (firstStrategy) Name() string { return "first" }

func newTestPool(cfg PoolConfig, ids ...string) *Pool {
	pool := NewPool(cfg)
	for _, id := range ids {
		pool.Add(&Credential{
			ID:        id,
			Provider:  "openai",
			Model:     "gpt-4",
			SecretRef: "env:" + id,
		})
	}
	return pool
}

func TestSelectMissingBucket(t *testing.T) {
	pool := NewPool(PoolConfig{})

	_, err := pool.Select("openai", "gpt-4", firstStrategy{})
	if err == nil {
		t.Fatal("Select() error = nil, want error for missing bucket")
	}
	if !errors.Is(err, ErrNoCredentialAvailable) {
		t.Errorf("Select() error = %v, want ErrNoCredentialAvailable", err)
	}

	var notFound *NoCredentialAvailableError
	if !errors.As(err, &notFound) {
		t.Fatalf("Select() error type = %T, want *NoCredentialAvailableError", err)
	}
	if notFound.Provider != "openai" || notFound.Model != "gpt-4" {
		t.Errorf("error identifies (%q, %q), want (openai, gpt-4)", notFound.Provider, notFound.Model)
	}
}

func TestSelectIncrementsUsageExactlyOnce(t *testing.T) {
	pool := newTestPool(PoolConfig{}, "a")

	cred, err := pool.Select("openai", "gpt-4", firstStrategy{})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if cred.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want 1", cred.UsageCount)
	}
	if cred.LastUsedAt.IsZero() {
		t.Error("LastUsedAt not stamped on selection")
	}
}

func TestSelectCursorRotation(t *testing.T) {
	pool := newTestPool(PoolConfig{}, "a", "b", "c")

	var order []string
	for i := 0; i < 6; i++ {
		cred, err := pool.Select("openai", "gpt-4", cursorStrategy{})
		if err != nil {
			t.Fatalf("Select() #%d error = %v", i, err)
		}
		order = append(order, cred.ID)
	}

	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("selection order = %v, want %v", order, want)
		}
	}
}

func TestSelectCursorStaysInBounds(t *testing.T) {
	pool := newTestPool(PoolConfig{}, "a", "b", "c")

	for i := 0; i < 10; i++ {
		if _, err := pool.Select("openai", "gpt-4", cursorStrategy{}); err != nil {
			t.Fatalf("Select() error = %v", err)
		}

		snap := pool.Snapshot()
		if len(snap) != 1 {
			t.Fatalf("len(Snapshot()) = %d, want 1", len(snap))
		}
		if c := snap[0].Cursor; c < 0 || c >= len(snap[0].Credentials) {
			t.Fatalf("cursor = %d out of bounds for bucket of %d", c, len(snap[0].Credentials))
		}
	}
}

func TestSelectConcurrent(t *testing.T) {
	pool := newTestPool(PoolConfig{}, "a", "b", "c")

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if _, err := pool.Select("openai", "gpt-4", cursorStrategy{}); err != nil {
					t.Errorf("Select() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	var total int64
	for _, view := range pool.Snapshot()[0].Credentials {
		total += view.UsageCount
	}
	if want := int64(goroutines * perGoroutine); total != want {
		t.Errorf("total UsageCount = %d, want %d (lost updates under concurrency)", total, want)
	}
}

func TestSelectAllowsDuplicateIDs(t *testing.T) {
	pool := newTestPool(PoolConfig{}, "dup", "dup")

	snap := pool.Snapshot()
	if len(snap[0].Credentials) != 2 {
		t.Fatalf("bucket size = %d, want 2 (duplicates kept as-is)", len(snap[0].Credentials))
	}
}

func TestSelectExcludeCooling(t *testing.T) {
	pool := NewPool(PoolConfig{ExcludeCooling: true})

	cooling := &Credential{ID: "cooling", Provider: "openai", Model: "gpt-4", SecretRef: "env:A"}
	fresh := &Credential{ID: "fresh", Provider: "openai", Model: "gpt-4", SecretRef: "env:B"}
	pool.Add(cooling)
	pool.Add(fresh)

	pool.MarkRateLimited(cooling, time.Now().Add(time.Minute))

	for i := 0; i < 3; i++ {
		cred, err := pool.Select("openai", "gpt-4", firstStrategy{})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if cred.ID != "fresh" {
			t.Errorf("Select() picked %q, want cooling credential skipped", cred.ID)
		}
	}
}

func TestSelectExcludeCoolingAllCooling(t *testing.T) {
	pool := NewPool(PoolConfig{ExcludeCooling: true})

	cred := &Credential{ID: "only", Provider: "openai", Model: "gpt-4", SecretRef: "env:A"}
	pool.Add(cred)
	pool.MarkRateLimited(cred, time.Now().Add(time.Minute))

	_, err := pool.Select("openai", "gpt-4", firstStrategy{})
	if !errors.Is(err, ErrNoCredentialAvailable) {
		t.Fatalf("Select() error = %v, want ErrNoCredentialAvailable", err)
	}

	var notFound *NoCredentialAvailableError
	if !errors.As(err, &notFound) || notFound.CoolingDown != 1 {
		t.Errorf("error = %v, want CoolingDown count of 1", err)
	}
}

func TestSelectCoolingNotExcludedByDefault(t *testing.T) {
	pool := NewPool(PoolConfig{})

	cred := &Credential{ID: "only", Provider: "openai", Model: "gpt-4", SecretRef: "env:A"}
	pool.Add(cred)
	pool.MarkRateLimited(cred, time.Now().Add(time.Minute))

	got, err := pool.Select("openai", "gpt-4", firstStrategy{})
	if err != nil {
		t.Fatalf("Select() error = %v, want cooling credential still eligible by default", err)
	}
	if got.ID != "only" {
		t.Errorf("Select() picked %q, want %q", got.ID, "only")
	}
}

func TestSelectExpiredCooldownEligibleAgain(t *testing.T) {
	pool := NewPool(PoolConfig{ExcludeCooling: true})

	cred := &Credential{ID: "only", Provider: "openai", Model: "gpt-4", SecretRef: "env:A"}
	pool.Add(cred)
	pool.MarkRateLimited(cred, time.Now().Add(-time.Second))

	if _, err := pool.Select("openai", "gpt-4", firstStrategy{}); err != nil {
		t.Fatalf("Select() error = %v, want expired cooldown to be eligible", err)
	}
}

func TestSnapshotOmitsSecrets(t *testing.T) {
	pool := newTestPool(PoolConfig{}, "a")
	pool.Add(&Credential{ID: "x", Provider: "anthropic", Model: "claude-3", SecretRef: "env:X"})

	snap := pool.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(Snapshot()) = %d, want 2", len(snap))
	}

	// Sorted by provider, then model.
	if snap[0].Provider != "anthropic" || snap[1].Provider != "openai" {
		t.Errorf("snapshot order = [%s, %s], want sorted by provider", snap[0].Provider, snap[1].Provider)
	}
	for _, b := range snap {
		for _, view := range b.Credentials {
			if view.ID == "" {
				t.Error("snapshot credential missing ID")
			}
		}
	}
}
