package lyrics

const (
	EventDocument = "lyrics.document"
	EventActive   = "lyrics.active"
)

type Publisher interface {
	Publish(eventType string, data any)
}

// PublishRenderer forwards rendering requests to connected clients.
type PublishRenderer struct {
	publisher Publisher
}

func NewPublishRenderer(publisher Publisher) *PublishRenderer {
	return &PublishRenderer{publisher: publisher}
}

func (r *PublishRenderer) Document(doc Document) {
	r.publisher.Publish(EventDocument, map[string]any{
		"lines": doc.Lines,
		"found": !doc.Empty(),
	})
}

func (r *PublishRenderer) ActiveLine(previous, active int) {
	r.publisher.Publish(EventActive, map[string]any{
		"previous": previous,
		"active":   active,
		"scroll":   active >= 0,
	})
}
