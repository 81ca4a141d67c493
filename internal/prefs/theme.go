package prefs

import (
	"context"
	"encoding/json"
	"strings"
)

// ThemeKey is the fixed storage key for the theme preference.
const ThemeKey = "theme"

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

func ParseTheme(raw string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// FromClientHint reads a Sec-CH-Prefers-Color-Scheme value, falling back
// when the hint is absent or unrecognised.
func FromClientHint(hint string, fallback Theme) Theme {
	if t, ok := ParseTheme(strings.Trim(hint, `" `)); ok {
		return t
	}
	return fallback
}

// LoadTheme returns the stored theme. found is false when nothing valid is
// stored, in which case the caller picks the system default.
func LoadTheme(ctx context.Context, s Store) (theme Theme, found bool, err error) {
	b, ok, err := s.Get(ctx, ThemeKey)
	if err != nil || !ok {
		return "", false, err
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return "", false, nil
	}
	t, ok := ParseTheme(raw)
	return t, ok, nil
}

func SaveTheme(ctx context.Context, s Store, t Theme) error {
	b, err := json.Marshal(string(t))
	if err != nil {
		return err
	}
	return s.Set(ctx, ThemeKey, b)
}
