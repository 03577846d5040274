package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"retroplayer/controller"
	"retroplayer/events"
	"retroplayer/lyrics"
)

const keepaliveInterval = 30 * time.Second

// streamEvents pushes media instructions and state updates to one browser
// over Server-Sent Events. The stream opens with the current queue, lyrics
// and theme so a fresh tab can draw itself without extra requests.
func (m *Manager) streamEvents(c *gin.Context) {
	logger := m.logger.WithField("method", "streamEvents")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := m.events.Subscribe()
	defer m.events.Unsubscribe(client)

	now := time.Now()
	initial := []events.Event{
		{Type: controller.EventQueue, Data: m.controller.Snapshot(), Timestamp: now},
		{Type: lyrics.EventDocument, Data: m.lyrics.State(), Timestamp: now},
		{Type: EventTheme, Data: m.theme.Current(), Timestamp: now},
	}
	for _, event := range initial {
		c.SSEvent(event.Type, event)
	}
	c.Writer.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			logger.Debug("client disconnected from event stream")
			return false
		case event, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-keepalive.C:
			_, err := w.Write([]byte(": keepalive\n\n"))
			return err == nil
		}
	})
}
