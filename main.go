package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/serisow/narrador/background"
	"github.com/serisow/narrador/caption"
	"github.com/serisow/narrador/category"
	"github.com/serisow/narrador/config"
	"github.com/serisow/narrador/db"
	"github.com/serisow/narrador/logging"
	"github.com/serisow/narrador/media"
	"github.com/serisow/narrador/narration_type"
	"github.com/serisow/narrador/notify"
	"github.com/serisow/narrador/pipeline"
	"github.com/serisow/narrador/plugin_registry"
	"github.com/serisow/narrador/scheduler"
	"github.com/serisow/narrador/server"
	"github.com/serisow/narrador/speech"
	"github.com/serisow/narrador/stock"
	"github.com/serisow/narrador/timeline"
)

func main() {
	cfg := config.Load()

	logger, err := initLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	registry := plugin_registry.NewPluginRegistry()
	registerProviders(registry, cfg, logger)
	if err := registerLibraries(registry, cfg); err != nil {
		log.Fatalf("Failed to open stock catalog: %v", err)
	}

	provider, err := registry.GetProvider(cfg.TTSProvider)
	if err != nil {
		log.Fatalf("Failed to select speech provider: %v (available: %v)", err, registry.ProviderNames())
	}

	categories, err := category.NewStore(logger, cfg.CategoriesFile)
	if err != nil {
		log.Fatalf("Failed to load categories: %v", err)
	}

	frame := media.GetResolution(cfg.VideoQuality)
	executor := media.NewFFmpegExecutor(logger, cfg.FFmpegPath, cfg.FFprobePath)
	synth := speech.NewAdapter(logger, provider, executor, speech.RetryPolicy{
		MaxAttempts: cfg.TTSMaxAttempts,
		BaseDelay:   cfg.TTSBaseDelay,
	})

	captions, err := caption.NewRenderer(logger, cfg.FontPath, cfg.FontBoldPath, newCaptionStyle(frame), caption.SubscribeCard{
		Width:   frame.Width,
		Height:  frame.Height,
		LogoURL: cfg.LogoURL,
	})
	if err != nil {
		log.Fatalf("Failed to load caption fonts: %v", err)
	}

	resolver := background.NewResolver(logger, executor, registry.Libraries(), newProceduralSpec(frame, cfg.FrameRate),
		background.PickMode(cfg.StockPick), time.Now().UnixNano())

	assembler := timeline.NewAssembler(logger, synth, category.NewClassifier("spanish"), resolver,
		captions, executor, media.NewRenderer(logger, executor), timeline.Config{
			Frame: frame,
			Options: narration_type.RenderOptions{
				FrameRate:  cfg.FrameRate,
				VideoCodec: cfg.VideoCodec,
				AudioCodec: cfg.AudioCodec,
			},
			Pacing:    cfg.SegmentPacing,
			TempDir:   cfg.TempDir,
			CharCap:   cfg.CharCap,
			StockRoot: cfg.StockDir,
			Stock:     registry.Libraries(),
		})

	outputDir := filepath.Join(cfg.StorageDir, "videos")
	store := pipeline.NewRunStore(logger)
	store.StartCleanup(cfg.RunRetention, 10*time.Minute)
	runner := pipeline.NewRunner(logger, assembler, categories, store, outputDir)

	s := scheduler.New(logger)
	addJob(s, logger, scheduler.VideoCleanupJob(logger, outputDir, cfg.VideoRetentionDays, cfg.CleanupSchedule))
	addJob(s, logger, scheduler.StaleScopeJob(logger, cfg.TempDir, 6*time.Hour, cfg.CleanupSchedule))
	addJob(s, logger, scheduler.CategoryReloadJob(categories, cfg.CategoryReloadSchedule))

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		pool, err := db.Connect(ctx, logger, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		repo := db.NewRunRepository(pool)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare run history: %v", err)
		}
		runner.WithRepository(repo)
		addJob(s, logger, scheduler.RunHistoryJob(logger, repo, cfg.VideoRetentionDays, cfg.CleanupSchedule))
	}

	if cfg.TwilioAccountSID != "" && cfg.NotifyTo != "" {
		runner.WithNotifier(notify.NewSMSNotifier(logger, notify.TwilioCredentials{
			AccountSid: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFrom,
			ToNumber:   cfg.NotifyTo,
		}, cfg.ServiceBaseURL))
	}

	s.Start()
	defer s.Stop()

	r := server.SetupRoutes(logger, runner, categories, filepath.Join(cfg.StorageDir, "uploads"))
	n := setupNegroni(r)

	logger.Info("Narration service starting",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.HTTPPort),
		slog.String("tts_provider", provider.Name()),
		slog.Int("width", frame.Width),
		slog.Int("height", frame.Height))

	// Long timeouts for multipart uploads and video downloads.
	if cfg.Environment == "production" {
		server.ServeProduction(n, server.Config{
			Domains:      cfg.Domains,
			CertCacheDir: cfg.CertCacheDir,
			IdleTimeout:  time.Minute,
			ReadTimeout:  2 * time.Minute,
			WriteTimeout: 10 * time.Minute,
		})
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  2 * time.Minute,
			WriteTimeout: 10 * time.Minute,
		}
		server.ServeDevelopment(srv)
	}
}

// newCaptionStyle sizes the caption band to the lower half of the frame.
func newCaptionStyle(frame media.FrameSize) caption.Style {
	style := caption.DefaultStyle
	style.Width = frame.Width
	style.Height = frame.Height / 2
	return style
}

func newProceduralSpec(frame media.FrameSize, frameRate int) media.ProceduralSpec {
	return media.ProceduralSpec{Width: frame.Width, Height: frame.Height, FrameRate: frameRate}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}

func registerProviders(registry *plugin_registry.PluginRegistry, cfg config.Config, logger *slog.Logger) {
	registry.RegisterProvider(speech.NewElevenLabsProvider(logger, speech.ElevenLabsConfig{
		APIURL:   cfg.ElevenLabsAPIURL,
		APIKey:   cfg.ElevenLabsAPIKey,
		ModelID:  cfg.ElevenLabsModel,
		VoiceIDs: cfg.ElevenLabsVoiceIDs,
	}))

	// Polly is cheaper than ElevenLabs for development runs.
	polly, err := speech.NewPollyProvider(logger, speech.PollyConfig{
		Region:    cfg.AWSRegion,
		AccessKey: cfg.AWSAPIKey,
		SecretKey: cfg.AWSAPISecret,
	})
	if err != nil {
		logger.Warn("AWS Polly provider unavailable", slog.String("error", err.Error()))
		return
	}
	registry.RegisterProvider(polly)
}

func registerLibraries(registry *plugin_registry.PluginRegistry, cfg config.Config) error {
	registry.RegisterLibrary("directory", &stock.DirLibrary{Root: cfg.StockDir})
	if cfg.StockCatalogDB == "" {
		return nil
	}
	catalog, err := stock.OpenCatalog(cfg.StockCatalogDB, cfg.StockDir)
	if err != nil {
		return err
	}
	registry.RegisterLibrary("catalog", catalog)
	return nil
}

func addJob(s *scheduler.Scheduler, logger *slog.Logger, job scheduler.Job) {
	if err := s.Add(job); err != nil {
		logger.Error("Failed to schedule job",
			slog.String("job", job.Name),
			slog.String("error", err.Error()))
	}
}

func initLogger(logDir string) (*slog.Logger, error) {
	fileHandler, err := logging.NewDailyFileHandler(logDir, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}
	return slog.New(fileHandler), nil
}
