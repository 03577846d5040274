package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"retroplayer/models"
)

const (
	StoreKey    = "rp_library"
	MediaPrefix = "/media/local/"
	// EventLibrary is published with the full track list after it changes.
	EventLibrary = "library"
)

var (
	ErrUnsupportedFile = errors.New("unsupported audio file")
	ErrNotFound        = errors.New("library entry not found")
)

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".wav":  true,
	".webm": true,
}

type Store interface {
	Get(key string, out any) bool
	Set(key string, value any)
	Delete(key string)
}

// Entry ties a local-file track to the file the media route serves.
type Entry struct {
	Track models.Track `json:"track"`
	Path  string       `json:"path"`
}

func (e Entry) ID() string {
	return e.Track.SourceID
}

type Library struct {
	store   Store
	mutex   sync.RWMutex
	entries []Entry
	logger  *log.Entry
}

// New restores previously ingested files from the store. Entries whose
// file has disappeared are kept; serving them fails until the file is back.
func New(store Store) *Library {
	l := &Library{
		store:  store,
		logger: log.WithFields(log.Fields{"module": "library"}),
	}
	if store != nil && store.Get(StoreKey, &l.entries) {
		l.logger.Debugf("restored %d library entries", len(l.entries))
	}
	return l
}

func Supported(path string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Ingest turns file paths into local-file tracks. Paths already in the
// library return their existing track. Files that cannot be used are
// skipped and reported together in the returned error.
func (l *Library) Ingest(paths []string) ([]models.Track, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	var (
		tracks []models.Track
		errs   []error
		added  int
	)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}

		if existing, ok := lo.Find(l.entries, func(e Entry) bool { return e.Path == abs }); ok {
			tracks = append(tracks, existing.Track)
			continue
		}

		entry, err := readEntry(abs)
		if err != nil {
			l.logger.Warnf("skipping %s: %v", abs, err)
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}

		l.entries = append(l.entries, entry)
		tracks = append(tracks, entry.Track)
		added++
	}

	if added > 0 {
		l.persist()
		l.logger.Infof("added %d files to the library", added)
	}

	return tracks, errors.Join(errs...)
}

// IngestDir walks root and ingests every supported file under it.
func (l *Library) IngestDir(root string) ([]models.Track, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return l.Ingest(paths)
}

func readEntry(path string) (Entry, error) {
	if !Supported(path) {
		return Entry{}, ErrUnsupportedFile
	}

	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	if !info.Mode().IsRegular() {
		return Entry{}, ErrUnsupportedFile
	}

	var title, artist string
	if f, err := os.Open(path); err == nil {
		if meta, err := tag.ReadFrom(f); err == nil {
			title = strings.TrimSpace(meta.Title())
			artist = strings.TrimSpace(meta.Artist())
		}
		f.Close()
	}
	if title == "" {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fromName, rest := models.SplitArtistTitle(name)
		title = rest
		if artist == "" {
			artist = fromName
		}
	}

	id := uuid.NewString()
	return Entry{
		Path: path,
		Track: models.Track{
			Origin:      models.OriginLocalFile,
			Title:       title,
			Artist:      artist,
			PlayableURL: MediaPrefix + id,
			SourceID:    id,
		},
	}, nil
}

func (l *Library) List() []models.Track {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return lo.Map(l.entries, func(e Entry, _ int) models.Track { return e.Track })
}

// Resolve returns the entry for an id taken from a /media/local/ URL.
func (l *Library) Resolve(id string) (Entry, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	entry, ok := lo.Find(l.entries, func(e Entry) bool { return e.ID() == id })
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (l *Library) Clear() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries = nil
	if l.store != nil {
		l.store.Delete(StoreKey)
	}
}

func (l *Library) persist() {
	if l.store == nil {
		return
	}
	if l.entries == nil {
		l.store.Set(StoreKey, []Entry{})
		return
	}
	l.store.Set(StoreKey, l.entries)
}
