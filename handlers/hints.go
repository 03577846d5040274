package handlers

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Hints hands out occasional tips after a track is queued, at most one per
// client per cooldown.
type Hints struct {
	cooldowns   map[string]time.Time // client id -> last hint time
	cooldownMu  sync.RWMutex
	cooldownDur time.Duration
	hintChance  float32
	hints       []string
}

func NewHints() *Hints {
	shortcutTips := lo.FilterMap(Shortcuts, func(s Shortcut, _ int) (string, bool) {
		return fmt.Sprintf("Pro tip: press %s to %s", s.Key, s.Description), !s.ClientOnly
	})
	return &Hints{
		cooldowns:   make(map[string]time.Time),
		cooldownDur: 5 * time.Minute,
		hintChance:  0.15,
		hints: append(shortcutTips,
			"Pro tip: press / to jump straight to the search box",
			"Pro tip: paste a Spotify playlist or album link to queue every previewable track",
			"Pro tip: drag tracks in the queue to reorder them",
			"Pro tip: add local audio files to the library to play them without a connection",
			"Pro tip: with repeat on, a single-track queue loops forever",
		),
	}
}

// clientID identifies a browser for hint cooldowns.
func clientID(c *gin.Context) string {
	if id := c.GetHeader("X-Client-ID"); id != "" {
		return id
	}
	return c.ClientIP()
}

// ShouldShowHint returns a hint and true when the dice roll passes and the
// client is not cooling down.
func (h *Hints) ShouldShowHint(clientID string) (string, bool) {
	if len(h.hints) == 0 || rand.Float32() > h.hintChance {
		return "", false
	}

	h.cooldownMu.Lock()
	defer h.cooldownMu.Unlock()

	if lastHint, ok := h.cooldowns[clientID]; ok && time.Since(lastHint) < h.cooldownDur {
		return "", false
	}

	hint := h.hints[rand.IntN(len(h.hints))]
	h.cooldowns[clientID] = time.Now()

	log.WithFields(log.Fields{"module": "handlers", "method": "ShouldShowHint"}).
		Debugf("Showing hint for client %s: %s", clientID, hint)
	return hint, true
}

func (h *Hints) ClearCooldown(clientID string) {
	h.cooldownMu.Lock()
	delete(h.cooldowns, clientID)
	h.cooldownMu.Unlock()
}

func (h *Hints) GetCooldownRemaining(clientID string) time.Duration {
	h.cooldownMu.RLock()
	defer h.cooldownMu.RUnlock()
	lastHint, exists := h.cooldowns[clientID]
	if !exists {
		return 0
	}
	return max(h.cooldownDur-time.Since(lastHint), 0)
}

// ShowIfApplicable returns a formatted hint, or "" when none is due.
func (h *Hints) ShowIfApplicable(clientID string) string {
	if hint, show := h.ShouldShowHint(clientID); show {
		return "💡 " + hint
	}
	return ""
}
