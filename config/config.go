package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type ConfigStruct struct {
	Server  ServerConfig
	Storage StorageConfig
	Lyrics  LyricsConfig
	Search  SearchConfig
	Spotify SpotifyConfig
	Player  PlayerConfig
	Library LibraryConfig
	Sentry  SentryConfig
	Options Options
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type StorageConfig struct {
	DBPath string
}

type LyricsConfig struct {
	BaseURL        string
	TimeoutSeconds int
	DiscardStale   bool
}

func (l *LyricsConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

type SearchConfig struct {
	Provider  string
	DeezerURL string
	Limit     int
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Enabled      bool
}

func (s *SpotifyConfig) Configured() bool {
	return s.Enabled && s.ClientID != "" && s.ClientSecret != ""
}

type PlayerConfig struct {
	RestartThresholdSeconds int
}

type LibraryConfig struct {
	Dir   string
	Watch bool
}

type SentryConfig struct {
	DSN     string
	Release string
}

type Options struct {
	LogLevel string
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Server: ServerConfig{
			Port:    getPort(),
			GinMode: os.Getenv("GIN_MODE"),
		},
		Storage: StorageConfig{
			DBPath: getString("DB_PATH", "data/retroplayer.db"),
		},
		Lyrics: LyricsConfig{
			BaseURL:        getString("LRCLIB_URL", "https://lrclib.net"),
			TimeoutSeconds: getLyricsTimeout(),
			DiscardStale:   os.Getenv("LYRICS_DISCARD_STALE") == "true",
		},
		Search: SearchConfig{
			Provider:  getSearchProvider(),
			DeezerURL: getString("DEEZER_API_URL", "https://api.deezer.com"),
			Limit:     getSearchLimit(),
		},
		Spotify: SpotifyConfig{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			Enabled:      os.Getenv("SPOTIFY_ENABLED") == "true",
		},
		Player: PlayerConfig{
			RestartThresholdSeconds: getRestartThreshold(),
		},
		Library: LibraryConfig{
			Dir:   os.Getenv("LIBRARY_DIR"),
			Watch: os.Getenv("LIBRARY_WATCH") == "true",
		},
		Sentry: SentryConfig{
			DSN:     os.Getenv("SENTRY_DSN"),
			Release: os.Getenv("RELEASE"),
		},
		Options: Options{
			LogLevel: getString("LOG_LEVEL", "info"),
		},
	}

	Config = config
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getPort() string {
	port := os.Getenv("PORT")
	if port == "" {
		return "8080"
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		log.Warnf("Ignoring invalid PORT %q, using 8080", port)
		return "8080"
	}
	return port
}

func getLyricsTimeout() int {
	timeoutStr := os.Getenv("LYRICS_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		return 10
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		log.Warnf("Ignoring invalid LYRICS_TIMEOUT_SECONDS %q, using 10", timeoutStr)
		return 10
	}
	if timeout > 60 {
		log.Warnf("LYRICS_TIMEOUT_SECONDS %d is above the maximum, using 60", timeout)
		return 60
	}
	return timeout
}

func getSearchLimit() int {
	limitStr := os.Getenv("SEARCH_LIMIT")
	if limitStr == "" {
		return 40
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		log.Warnf("Ignoring invalid SEARCH_LIMIT %q, using 40", limitStr)
		return 40
	}
	if limit > 100 {
		log.Warnf("SEARCH_LIMIT %d is above the maximum, using 100", limit)
		return 100 // Deezer caps a page at 100
	}
	return limit
}

func getRestartThreshold() int {
	thresholdStr := os.Getenv("RESTART_THRESHOLD_SECONDS")
	if thresholdStr == "" {
		return 3
	}
	threshold, err := strconv.Atoi(thresholdStr)
	if err != nil || threshold <= 0 {
		log.Warnf("Ignoring invalid RESTART_THRESHOLD_SECONDS %q, using 3", thresholdStr)
		return 3
	}
	if threshold > 30 {
		log.Warnf("RESTART_THRESHOLD_SECONDS %d is above the maximum, using 30", threshold)
		return 30
	}
	return threshold
}

func getSearchProvider() string {
	switch strings.ToLower(os.Getenv("SEARCH_PROVIDER")) {
	case "spotify":
		return "spotify"
	default:
		return "deezer"
	}
}
