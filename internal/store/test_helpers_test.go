package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// putAll commits the given key/value pairs in one batch.
func putAll(t *testing.T, s *Store, kv ...[]byte) {
	t.Helper()
	ctx := context.Background()
	b, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer b.Rollback()
	for i := 0; i+1 < len(kv); i += 2 {
		if err := b.Put(ctx, kv[i], kv[i+1]); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}

// keys collects the keys visited by Iterate.
func keys(t *testing.T, r Reader, opts IterOptions) []string {
	t.Helper()
	var out []string
	err := r.Iterate(context.Background(), opts, func(k, _ []byte) (bool, error) {
		out = append(out, string(k))
		return true, nil
	})
	if err != nil {
		t.Fatalf("Iterate() failed: %v", err)
	}
	return out
}
