package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"

	wwconfig "github.com/wordwise/wordwise/config"
	"github.com/wordwise/wordwise/internal/httputil"
	speechhandler "github.com/wordwise/wordwise/internal/speech/handler"
	"github.com/wordwise/wordwise/internal/speech/registry"
	"github.com/wordwise/wordwise/pkg/events"
	"github.com/wordwise/wordwise/pkg/notify"
	notifyapi "github.com/wordwise/wordwise/pkg/notify/api"
	"github.com/wordwise/wordwise/pkg/script"
	"github.com/wordwise/wordwise/pkg/speech"

	// Register speech platforms via init().
	_ "github.com/wordwise/wordwise/internal/speech/backends/espeak"
	_ "github.com/wordwise/wordwise/internal/speech/backends/none"
	_ "github.com/wordwise/wordwise/internal/speech/backends/say"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[wwconfig.SpeechServiceConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	serviceOpts := []frame.Option{
		frame.WithConfig(&cfg),
		frame.WithName("wordwise"),
		frame.WithRegisterServerOauth2Client(),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	}
	if cfg.UseDatabase() {
		serviceOpts = append(serviceOpts, frame.WithDatastore())
	}

	ctx, srv := frame.NewService(serviceOpts...)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	authenticator := srv.SecurityManager().GetAuthenticator(ctx)

	pub := events.NewPublisher(srv.QueueManager(), "wordwise", eventRef)
	journal := events.NewJournal(cfg.EventJournalSize)

	// --- Speech engine ---
	platform, err := registry.Platforms.Create(cfg.SpeechPlatform, cfg.PlatformConfig())
	if err != nil {
		log.Fatalf("creating speech platform: %v", err)
	}
	engine := speech.NewEngine(platform, cfg.EngineConfig(), pub)
	if !engine.IsSupported() {
		slog.WarnContext(ctx, "speech platform unavailable, speak requests will fail",
			slog.String("platform", cfg.SpeechPlatform))
	}

	// --- Scripts ---
	loader := script.NewLoader(cfg.ScriptDir)
	if _, err := loader.LoadAll(); err != nil {
		log.Printf("warning: loading scripts: %v", err)
	}
	if cfg.ScriptWatch {
		watch := func() {
			if err := loader.WatchAndReload(ctx.Done()); err != nil {
				slog.WarnContext(ctx, "script watcher stopped", slog.String("error", err.Error()))
			}
		}
		if err := pool.Submit(ctx, watch); err != nil {
			go watch()
		}
	}
	player := script.NewPlayer(engine, pub)

	// Load voices up front so the first speak request does not pay for it.
	if engine.IsSupported() {
		_ = pool.Submit(ctx, func() {
			if err := engine.Initialize(ctx); err != nil {
				slog.WarnContext(ctx, "speech engine initialization failed", slog.String("error", err.Error()))
			}
		})
	}

	// --- Event listeners ---
	initOpts := []frame.Option{
		frame.WithRegisterSubscriber(eventRef+".journal", eventURL, journal),
	}
	var listenerAPI *notifyapi.Handler
	if cfg.ListenersEnabled {
		var store notify.Store = notify.NewMemoryStore()
		if cfg.UseDatabase() {
			gormStore := notify.NewGormStore(srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"))
			if err := gormStore.Migrate(ctx); err != nil {
				log.Fatalf("migrating listener tables: %v", err)
			}
			store = gormStore
		}
		deliverer := notify.NewDeliverer(store, cfg.DelivererConfig(), pool)
		router := &notify.Router{Store: store, Deliverer: deliverer}
		listenerAPI = notifyapi.NewHandler(store, deliverer)
		initOpts = append(initOpts, frame.WithRegisterSubscriber(eventRef+".listeners", eventURL, router))
	}

	// --- HTTP ---
	speechHdlr := speechhandler.NewHandler(engine, cfg.SpeechPlatform, pub, pool)
	speechHdlr.SetScripts(loader, player)
	speechHdlr.SetJournal(journal)

	restMux := http.NewServeMux()
	speechHdlr.RegisterRoutes(restMux)
	if listenerAPI != nil {
		listenerAPI.RegisterRoutes(restMux)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", httputil.AuthenticatedMiddleware(restMux, authenticator))

	initOpts = append(initOpts, frame.WithHTTPHandler(httputil.H2CHandler(httputil.LoggingMiddleware(mux))))
	srv.Init(ctx, initOpts...)

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
