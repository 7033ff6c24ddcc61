package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"framecast/internal/application/catalog"
	"framecast/internal/application/streaming"
	"framecast/internal/config"
	"framecast/internal/infrastructure/ffmpeg"
	"framecast/internal/infrastructure/filesystem"
	"framecast/internal/infrastructure/imaging"
	"framecast/internal/logger"
	httptransport "framecast/internal/transport/http"
	"framecast/internal/transport/tcp"
	"github.com/hashicorp/go-hclog"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		hclog.Default().Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log hclog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := filesystem.NewStore(cfg.VideosDir)
	if err := store.EnsureDirs(); err != nil {
		return err
	}
	catalogService := catalog.NewService(store, log)

	codec, err := imaging.ParseCodec(cfg.FrameCodec)
	if err != nil {
		return err
	}
	encoder := imaging.NewEncoder(codec, cfg.FrameWidth, cfg.FrameQuality)
	decoder := ffmpeg.NewDecoder(cfg.FFmpegPath, cfg.FFprobePath)

	registry := streaming.NewRegistry()
	supervisor := streaming.NewSupervisor(catalogService, decoder, encoder, registry, streaming.Options{
		FrameInterval: cfg.FrameInterval(),
		EndMarker:     cfg.EndMarker,
	}, log)

	g, ctx := errgroup.WithContext(ctx)

	var changes <-chan struct{}
	watcher, err := filesystem.NewWatcher(cfg.VideosDir, 0, log)
	if err != nil {
		log.Warn("library watcher unavailable, relying on periodic rescans", "error", err)
	} else {
		changes = watcher.Changes()
		g.Go(func() error {
			watcher.Run(ctx)
			return nil
		})
	}
	g.Go(func() error {
		catalogService.Run(ctx, cfg.CatalogRescan(), changes)
		return nil
	})

	if cfg.StreamAddr != "" {
		streamServer := tcp.NewServer(supervisor, cfg.ControlMaxBytes, cfg.WriteTimeout(), log)
		g.Go(func() error {
			return streamServer.ListenAndServe(ctx, cfg.StreamAddr)
		})
	}

	if cfg.ServerAddr != "" {
		handler := httptransport.NewHandler(catalogService, supervisor, registry, httptransport.Options{
			MaxControlBytes: cfg.ControlMaxBytes,
			WriteTimeout:    cfg.WriteTimeout(),
			AllowedOrigins:  cfg.AllowedOrigins,
		}, log)
		router := httptransport.NewRouter(handler)

		c := cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
		})
		httpServer := &http.Server{
			Addr:              cfg.ServerAddr,
			Handler:           c.Handler(router),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			log.Info("http server started", "addr", cfg.ServerAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		// WebSocket sessions are hijacked and invisible to http.Server.Shutdown.
		registry.CloseAll()
		return nil
	})

	log.Info("framecast started", "videos_dir", cfg.VideosDir, "codec", string(codec), "interval", cfg.FrameInterval())
	return g.Wait()
}
