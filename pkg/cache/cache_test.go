package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestShortHash(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{12, 12},
		{16, 16},
		{0, 1},
		{100, 64},
	}
	for _, tt := range tests {
		got := ShortHash("notosansjp", tt.n)
		if len(got) != tt.want {
			t.Errorf("ShortHash(n=%d) length = %d, want %d", tt.n, len(got), tt.want)
		}
		if got != Hash([]byte("notosansjp"))[:tt.want] {
			t.Errorf("ShortHash(n=%d) should be a prefix of Hash", tt.n)
		}
	}
}

func TestFileCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "notosansjp"); err != nil || hit {
		t.Fatalf("Get() on empty cache = %v, %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "notosansjp", []byte(`subsets: "japanese"`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data, hit, err := c.Get(ctx, "notosansjp")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v; want hit", hit, err)
	}
	if string(data) != `subsets: "japanese"` {
		t.Errorf("Get() data = %q", data)
	}

	if err := c.Delete(ctx, "notosansjp"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "notosansjp"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "notosansjp"); err != nil {
		t.Errorf("Delete() of missing key error: %v", err)
	}
}

func TestFileCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); !hit {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if _, hit, err := c.Get(ctx, "key"); hit || err != nil {
		t.Errorf("Get() after expiry = %v, %v; want miss", hit, err)
	}
	if _, err := os.Stat(c.path("key")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
}

func TestFileCache_NoTTL(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "key", []byte("forever"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); !hit {
		t.Error("entry with zero TTL should not expire")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("broken")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "broken"); hit || err != nil {
		t.Errorf("Get() on corrupt entry = %v, %v; want miss", hit, err)
	}
}

func TestFileCache_PathSharding(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	p := c.path("test")
	if p != c.path("test") {
		t.Error("path should be deterministic")
	}
	if p == c.path("other") {
		t.Error("different keys should produce different paths")
	}
	if filepath.Dir(filepath.Dir(p)) != c.Dir() {
		t.Errorf("path %q should be one level below %q", p, c.Dir())
	}
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryCache(16, time.Hour)

	fonts := NewScoped(backend, "googlefonts:")
	other := NewScoped(backend, "other:")

	if err := fonts.Set(ctx, "roboto", []byte("a"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	if _, hit, _ := backend.Get(ctx, "googlefonts:roboto"); !hit {
		t.Error("scoped key should be stored with prefix")
	}
	if _, hit, _ := other.Get(ctx, "roboto"); hit {
		t.Error("namespace isolation violated")
	}

	nested := NewScoped(fonts, "v1:")
	if nested.Prefix() != "googlefonts:v1:" {
		t.Errorf("Prefix() = %q", nested.Prefix())
	}
	if err := nested.Set(ctx, "k", []byte("b"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := backend.Get(ctx, "googlefonts:v1:k"); !hit {
		t.Error("nested prefixes should accumulate")
	}

	if err := fonts.Delete(ctx, "roboto"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := backend.Get(ctx, "googlefonts:roboto"); hit {
		t.Error("Delete should remove prefixed key")
	}
}

func TestScopedNilInner(t *testing.T) {
	s := NewScoped(nil, "x:")
	if _, hit, err := s.Get(context.Background(), "k"); hit || err != nil {
		t.Errorf("nil inner should behave like NullCache, got %v, %v", hit, err)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, 0)

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("oldest entry should have been evicted")
	}
	if data, hit, _ := c.Get(ctx, "c"); !hit || string(data) != "3" {
		t.Errorf("Get(c) = %q, %v", data, hit)
	}

	_ = c.Close()
	if c.Len() != 0 {
		t.Error("Close should purge entries")
	}
}

func TestMemoryCacheDefaultSize(t *testing.T) {
	c := NewMemoryCache(0, time.Minute)
	for i := range DefaultMemoryEntries + 1 {
		_ = c.Set(context.Background(), strconv.Itoa(i), nil, 0)
	}
	if c.Len() != DefaultMemoryEntries {
		t.Errorf("Len() = %d, want %d", c.Len(), DefaultMemoryEntries)
	}
}

func TestLayered(t *testing.T) {
	ctx := context.Background()
	front := NewMemoryCache(8, time.Hour)
	back, _ := NewFileCache(t.TempDir())
	l := NewLayered(front, back)

	if err := back.Set(ctx, "key", []byte("disk"), time.Hour); err != nil {
		t.Fatal(err)
	}

	data, hit, err := l.Get(ctx, "key")
	if err != nil || !hit || string(data) != "disk" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}
	if _, hit, _ := front.Get(ctx, "key"); !hit {
		t.Error("back hit should populate front")
	}

	if err := l.Set(ctx, "new", []byte("both"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := back.Get(ctx, "new"); !hit {
		t.Error("Set should write through to back")
	}

	if err := l.Delete(ctx, "new"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := l.Get(ctx, "new"); hit {
		t.Error("Delete should clear both layers")
	}
}

func TestNewRedisCacheInvalidURL(t *testing.T) {
	if _, err := NewRedisCache("not-a-url://"); err == nil {
		t.Error("expected error for invalid redis url")
	}
}

func TestNewRedisCache(t *testing.T) {
	c, err := NewRedisCache("redis://localhost:6379/2")
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should unwrap to ErrNetwork")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		attempts  int
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 3, 0, nil, 1, false},
		{"non-retryable stops", 3, 5, ErrNotFound, 1, true},
		{"retryable then success", 3, 1, Retryable(ErrNetwork), 2, false},
		{"retryable exhausted", 3, 5, Retryable(ErrNetwork), 3, true},
		{"zero attempts runs once", 0, 5, Retryable(ErrNetwork), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(ctx, tt.attempts, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Retry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)

	for _, key := range []string{"googlefonts:roboto", "googlefonts:notosansjp", "googlefonts:lato"} {
		if err := c.Set(ctx, key, []byte(`["latin"]`), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	// Content that does not follow the entry layout must survive.
	foreign := []string{
		"notes.txt",
		filepath.Join("src", "main.go"),
		filepath.Join("ab", "readme.json"),
		filepath.Join("zz", strings.Repeat("a", 62)+".json"),
	}
	for _, name := range foreign {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("keep"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Clear() = %d, want 3", count)
	}
	if _, hit, _ := c.Get(ctx, "googlefonts:roboto"); hit {
		t.Error("entry should be gone after Clear")
	}
	for _, name := range foreign {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should survive Clear: %v", name, err)
		}
	}

	shard := filepath.Base(filepath.Dir(c.path("googlefonts:lato")))
	if shard != "ab" && shard != "zz" {
		if _, err := os.Stat(filepath.Join(dir, shard)); !os.IsNotExist(err) {
			t.Errorf("emptied shard %s should be removed", shard)
		}
	}
}
