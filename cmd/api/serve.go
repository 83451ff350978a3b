package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/aura-impact/internal/application"
	appai "github.com/bryanwahyu/aura-impact/internal/application/ai"
	appanalysis "github.com/bryanwahyu/aura-impact/internal/application/analysis"
	appdashboard "github.com/bryanwahyu/aura-impact/internal/application/dashboard"
	appocr "github.com/bryanwahyu/aura-impact/internal/application/ocr"
	apppoints "github.com/bryanwahyu/aura-impact/internal/application/points"
	"github.com/bryanwahyu/aura-impact/internal/config"
	"github.com/bryanwahyu/aura-impact/internal/domain/ocr"
	"github.com/bryanwahyu/aura-impact/internal/infra/ai/openai"
	"github.com/bryanwahyu/aura-impact/internal/infra/cache"
	"github.com/bryanwahyu/aura-impact/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/aura-impact/internal/infra/httpserver"
	"github.com/bryanwahyu/aura-impact/internal/infra/metrics"
	"github.com/bryanwahyu/aura-impact/internal/infra/ocr/ocrspace"
	"github.com/bryanwahyu/aura-impact/internal/infra/ocr/rekognition"
	"github.com/bryanwahyu/aura-impact/internal/infra/ocr/tesseract"
	minioStore "github.com/bryanwahyu/aura-impact/internal/infra/storage"
	"github.com/bryanwahyu/aura-impact/internal/infra/throttle"
	"github.com/bryanwahyu/aura-impact/internal/logging"
	"github.com/bryanwahyu/aura-impact/internal/middleware"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config load error: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)

	if migrateOnStart {
		if err := runMigrations(cfg, 0); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("migrations applied")
	}

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	health := map[string]middleware.HealthChecker{"database": &middleware.DatabaseHealthChecker{DB: db}}

	// throttle OCR.Space; shared through redis when configured
	var thr ocr.Throttle = throttle.NewMemory(cfg.OCR.Throttle)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		thr = throttle.NewRedis(rdb, "aura:ocr:throttle", cfg.OCR.Throttle)
		health["redis"] = &middleware.RedisHealthChecker{Client: rdb}
	}

	rec := metrics.Recorder{}
	ocrSvc := &appocr.Service{
		Extractors:    buildExtractors(ctx, cfg, thr, log),
		MaxImageBytes: cfg.Server.MaxImageBytes,
		Log:           log.With().Str("component", "ocr").Logger(),
		Metrics:       rec,
	}

	aiClient := openai.NewClient(openai.Options{
		APIKey:     cfg.AI.APIKey,
		BaseURL:    cfg.AI.BaseURL,
		Model:      cfg.AI.Model,
		MaxTokens:  cfg.AI.MaxTokens,
		Timeout:    cfg.AI.Timeout,
		JSONSchema: cfg.AI.JSONSchema,
	})
	scorer := appai.NewService(aiClient, log.With().Str("component", "scoring").Logger(), rec)

	repo := sqlstore.NewAnalysisRepository(store)
	analysisSvc := &appanalysis.Service{
		Repo:          repo,
		OCR:           ocrSvc,
		Scorer:        scorer,
		Failures:      sqlstore.NewFailureRepository(store),
		Clock:         application.SystemClock{},
		Log:           log.With().Str("component", "analysis").Logger(),
		Metrics:       rec,
		MaxImageBytes: cfg.Server.MaxImageBytes,
		Timeout:       cfg.Server.AnalysisTimeout,
	}

	// init minio
	if cfg.Minio.Enabled {
		archive, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init error: %w", err)
		}
		analysisSvc.Archive = archive
		health["minio"] = archive
	}

	pointsSvc := &apppoints.Service{
		Ledger:  sqlstore.NewLedgerRepository(store),
		Streaks: sqlstore.NewStreakRepository(store),
		Cache:   cache.NewLeaderboard(cfg.Cache.SizeMB, cfg.Cache.TTLSeconds, log),
		Clock:   application.SystemClock{},
		Log:     log.With().Str("component", "points").Logger(),
	}

	stopSweep := make(chan struct{})
	defer close(stopSweep)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.PerSecond)
	go limiter.Run(5*time.Minute, stopSweep)

	handler := httpserver.NewRouter(httpserver.Options{
		Analysis:      analysisSvc,
		OCR:           ocrSvc,
		Points:        pointsSvc,
		Dashboard:     &appdashboard.Service{Analyses: repo, Points: pointsSvc},
		Health:        health,
		Limiter:       limiter,
		JWTSecret:     []byte(cfg.Auth.JWTSecret),
		JWTIssuer:     cfg.Auth.Issuer,
		CORSOrigins:   cfg.Server.CORSOrigins,
		MaxImageBytes: cfg.Server.MaxImageBytes,
		Log:           log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Info().Msg("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	return nil
}

// buildExtractors returns the OCR strategies in configured order, skipping
// the ones that cannot run here.
func buildExtractors(ctx context.Context, cfg *config.Config, thr ocr.Throttle, log zerolog.Logger) []ocr.Extractor {
	var out []ocr.Extractor
	for _, name := range cfg.OCR.Order {
		switch name {
		case "ocrspace":
			if cfg.OCR.OCRSpace.APIKey == "" {
				log.Warn().Msg("ocrspace skipped: no api key")
				continue
			}
			out = append(out, ocrspace.New(ocrspace.Options{
				APIKey:   cfg.OCR.OCRSpace.APIKey,
				Endpoint: cfg.OCR.OCRSpace.Endpoint,
				Language: cfg.OCR.OCRSpace.Language,
				Engine:   cfg.OCR.OCRSpace.Engine,
				Timeout:  cfg.OCR.OCRSpace.Timeout,
			}, thr))
		case "rekognition":
			c, err := rekognition.New(ctx, cfg.OCR.Rekognition.Region, cfg.OCR.Rekognition.Timeout, thr)
			if err != nil {
				log.Warn().Err(err).Msg("rekognition skipped")
				continue
			}
			out = append(out, c)
		case "tesseract":
			cli := tesseract.NewCLI(cfg.OCR.Tesseract.Binary, cfg.OCR.Tesseract.Language, cfg.OCR.Tesseract.Timeout)
			if !cli.Available() {
				log.Warn().Str("binary", cfg.OCR.Tesseract.Binary).Msg("tesseract skipped: binary not found")
				continue
			}
			out = append(out, tesseract.NewEngine(cli, log.With().Str("component", "tesseract").Logger()))
		}
	}
	if len(out) == 0 {
		log.Warn().Msg("no ocr provider available; image analyses will fail")
	}
	return out
}
