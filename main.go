package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"retroplayer/audio"
	"retroplayer/config"
	"retroplayer/controller"
	"retroplayer/database"
	"retroplayer/events"
	"retroplayer/handlers"
	"retroplayer/library"
	"retroplayer/lyrics"
	"retroplayer/models"
	"retroplayer/search"
	"retroplayer/sentry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	config.NewConfig()
	setupLogging(config.Config.Options.LogLevel)

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "retroplayer",
		Short:        "Music player backend with queue, search, lyrics and a local library",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	cmd.AddCommand(serveCmd(), scanCmd(), historyCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	sentry.Init(config.Config.Sentry)
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error(err)
		sentry.ReportFatal(err)
		return err
	}
	return nil
}

func setupLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		FieldsOrder:     []string{"module", "method"},
		TimestampFormat: time.RFC3339,
	})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func run(ctx context.Context) error {
	cfg := config.Config
	logger := log.WithFields(log.Fields{"module": "main"})

	db, err := database.New(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	broadcaster := events.NewBroadcaster()
	element := audio.NewElement(broadcaster)

	lyricsClient := lyrics.New(lyrics.ClientOptions{
		BaseURL: cfg.Lyrics.BaseURL,
		Timeout: cfg.Lyrics.Timeout(),
	})
	lyricsEngine := lyrics.NewEngine(lyrics.EngineOptions{
		Fetcher:      lyricsClient,
		Renderer:     lyrics.NewPublishRenderer(broadcaster),
		DiscardStale: cfg.Lyrics.DiscardStale,
	})

	seed := uint64(time.Now().UnixNano())
	player := controller.New(controller.Options{
		Store:            db,
		Media:            element,
		Lyrics:           lyricsEngine,
		History:          db,
		Publisher:        broadcaster,
		Rand:             rand.New(rand.NewPCG(seed, seed>>1)),
		RestartThreshold: float64(cfg.Player.RestartThresholdSeconds),
	})
	go player.Listen(ctx, element.Notifications)
	player.Resume()

	lib := library.New(db)
	if cfg.Library.Dir != "" {
		tracks, err := lib.IngestDir(cfg.Library.Dir)
		if err != nil {
			logger.Warnf("Some library files could not be read: %v", err)
		}
		logger.Infof("Library scan of %s found %d tracks", cfg.Library.Dir, len(tracks))

		if cfg.Library.Watch {
			err := lib.Watch(ctx, cfg.Library.Dir, func(added []models.Track) {
				logger.Infof("Library watcher added %d tracks", len(added))
				broadcaster.Publish(library.EventLibrary, lib.List())
			})
			if err != nil {
				logger.Errorf("Could not watch %s: %v", cfg.Library.Dir, err)
			}
		}
	}

	var provider search.Provider = search.NewDeezer(search.DeezerOptions{
		BaseURL: cfg.Search.DeezerURL,
		Limit:   cfg.Search.Limit,
	})
	options := handlers.Options{
		Controller:   player,
		Element:      element,
		Lyrics:       lyricsEngine,
		LyricsSearch: lyricsClient,
		Library:      lib,
		Store:        db,
		History:      db,
		Events:       broadcaster,
	}
	if cfg.Spotify.Configured() {
		spotify, err := search.NewSpotify(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Search.Limit)
		if err != nil {
			logger.Errorf("Spotify is enabled but could not authenticate: %v", err)
		} else {
			options.Resolver = spotify
			if cfg.Search.Provider == "spotify" {
				provider = spotify
			}
		}
	}
	options.Search = provider
	logger.Infof("Using %s for search", provider.Name())
	sentry.SetContext("player", map[string]interface{}{
		"search_provider": provider.Name(),
		"spotify_links":   options.Resolver != nil,
		"discard_stale":   cfg.Lyrics.DiscardStale,
	})

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	router := gin.Default()
	router.Use(sentry.GetSentryGin())
	handlers.NewManager(options).Register(router)

	// request contexts end with ctx so open event streams close on shutdown
	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on :%s", cfg.Server.Port)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	lyricsEngine.Wait()
	return err
}
