package search

import (
	"context"
	"errors"

	"retroplayer/models"
)

// ErrSearchFailed wraps every transport or decode failure from a provider.
var ErrSearchFailed = errors.New("search failed")

// Provider turns a free-text query into playable track records. A blank
// query returns an empty list without contacting the remote service.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]models.Track, error)
}

const DefaultLimit = 40
