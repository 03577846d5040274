package handlers

import (
	"errors"
	"strings"
	"sync"
)

const (
	ThemeKey   = "rp_theme"
	ThemeDark  = "dark"
	ThemeLight = "light"
	EventTheme = "theme"
)

var ErrUnknownTheme = errors.New("theme must be dark or light")

// Theme is the persisted colour scheme. It starts dark.
type Theme struct {
	store   Store
	mutex   sync.Mutex
	current string
}

func NewTheme(store Store) *Theme {
	t := &Theme{store: store, current: ThemeDark}
	var saved string
	if store != nil && store.Get(ThemeKey, &saved) && validTheme(saved) {
		t.current = saved
	}
	return t
}

func validTheme(name string) bool {
	return name == ThemeDark || name == ThemeLight
}

func (t *Theme) Current() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.current
}

func (t *Theme) Set(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !validTheme(name) {
		return ErrUnknownTheme
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.setLocked(name)
	return nil
}

func (t *Theme) Toggle() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	next := ThemeLight
	if t.current == ThemeLight {
		next = ThemeDark
	}
	t.setLocked(next)
	return next
}

func (t *Theme) setLocked(name string) {
	t.current = name
	if t.store != nil {
		t.store.Set(ThemeKey, name)
	}
}
