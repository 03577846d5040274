package handlers

import (
	"strings"
	"testing"
	"time"
)

func alwaysHints(tips ...string) *Hints {
	return &Hints{
		cooldowns:   make(map[string]time.Time),
		cooldownDur: 5 * time.Minute,
		hintChance:  1.0,
		hints:       tips,
	}
}

func TestHints_ShouldShowHint(t *testing.T) {
	hints := alwaysHints("tip one", "tip two")

	if _, show := hints.ShouldShowHint("client-1"); !show {
		t.Error("Expected hint to show with 100% chance")
	}
	if _, show := hints.ShouldShowHint("client-1"); show {
		t.Error("Expected no hint due to cooldown")
	}
	if remaining := hints.GetCooldownRemaining("client-1"); remaining <= 0 {
		t.Errorf("GetCooldownRemaining() = %v, want > 0", remaining)
	}
}

func TestHints_ClearCooldown(t *testing.T) {
	hints := alwaysHints("tip")

	if hint := hints.ShowIfApplicable("client"); !strings.HasPrefix(hint, "💡 ") {
		t.Errorf("ShowIfApplicable() = %q, want the 💡 prefix", hint)
	}
	if hint := hints.ShowIfApplicable("client"); hint != "" {
		t.Errorf("ShowIfApplicable() during cooldown = %q, want empty", hint)
	}

	hints.ClearCooldown("client")
	if remaining := hints.GetCooldownRemaining("client"); remaining != 0 {
		t.Errorf("GetCooldownRemaining() after clear = %v, want 0", remaining)
	}
	if hint := hints.ShowIfApplicable("client"); hint == "" {
		t.Error("Expected hint after cooldown clear")
	}
}

func TestHints_ClientsCoolDownIndependently(t *testing.T) {
	hints := alwaysHints("tip")

	hints.ShouldShowHint("a")
	if _, show := hints.ShouldShowHint("b"); !show {
		t.Error("Expected a hint for a second client")
	}
	if remaining := hints.GetCooldownRemaining("never-seen"); remaining != 0 {
		t.Errorf("GetCooldownRemaining(unknown) = %v, want 0", remaining)
	}
}

func TestHints_NeverShowsWithoutTips(t *testing.T) {
	hints := alwaysHints()
	if _, show := hints.ShouldShowHint("client"); show {
		t.Error("Expected no hint from an empty tip list")
	}
}

func TestNewHints(t *testing.T) {
	hints := NewHints()

	if hints.cooldownDur != 5*time.Minute {
		t.Errorf("cooldownDur = %v, want 5m", hints.cooldownDur)
	}
	if hints.hintChance != 0.15 {
		t.Errorf("hintChance = %v, want 0.15", hints.hintChance)
	}
	for _, key := range []string{"press k", "press space", "press t"} {
		found := false
		for _, hint := range hints.hints {
			if strings.Contains(hint, key) {
				found = true
			}
		}
		if !found {
			t.Errorf("no hint mentions %q", key)
		}
	}
}
