package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"

	"botpanel/internal/config"
	"botpanel/internal/db"
)

func exerciseTheme(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := LoadTheme(ctx, s); err != nil || found {
		t.Fatalf("load empty: found=%v err=%v", found, err)
	}

	if err := SaveTheme(ctx, s, Light); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveTheme(ctx, s, Dark); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, found, err := LoadTheme(ctx, s)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got != Dark {
		t.Fatalf("theme=%q want=dark", got)
	}
}

func TestMemoryStoreTheme(t *testing.T) {
	exerciseTheme(t, NewMemoryStore())
}

func TestDBStoreTheme(t *testing.T) {
	d, err := db.Open(config.DBConfig{DSN: filepath.Join(t.TempDir(), "prefs.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close(d)
	if err := db.AutoMigrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	exerciseTheme(t, NewDBStore(d.Gorm))
}

func TestRedisStoreTheme(t *testing.T) {
	addr := os.Getenv("BP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BP_TEST_REDIS_ADDR not set")
	}
	s := NewRedisStore(&redis.Options{Addr: addr}, "botpanel-test:")
	defer s.Close()
	_ = s.Client.Del(context.Background(), "botpanel-test:"+ThemeKey).Err()
	exerciseTheme(t, s)
}

func TestStoredGarbageFallsBack(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Set(context.Background(), ThemeKey, []byte(`"purple"`))
	got, found, err := LoadTheme(context.Background(), s)
	if err != nil || found {
		t.Fatalf("theme=%q found=%v err=%v want not found", got, found, err)
	}
}

func TestFromClientHint(t *testing.T) {
	cases := []struct {
		hint     string
		fallback Theme
		want     Theme
	}{
		{"dark", Light, Dark},
		{`"light"`, Dark, Light},
		{"", Dark, Dark},
		{"no-preference", Light, Light},
	}
	for _, c := range cases {
		if got := FromClientHint(c.hint, c.fallback); got != c.want {
			t.Fatalf("hint=%q got=%q want=%q", c.hint, got, c.want)
		}
	}
}

func TestToggle(t *testing.T) {
	if Light.Toggle() != Dark || Dark.Toggle() != Light {
		t.Fatalf("toggle broken")
	}
}
