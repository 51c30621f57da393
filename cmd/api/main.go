package main

import (
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/renatodap/fitness-backend/internal/config"
	"github.com/renatodap/fitness-backend/internal/dbmigrate"
	"github.com/renatodap/fitness-backend/internal/httpserver"
	"github.com/renatodap/fitness-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	printStartupBanner(cfg)

	if cfg.RunMigrationsOnStartup {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.Printf("startup migrations: command=up using=%s", source)
		if err := dbmigrate.Run("up", dbURL, dbmigrate.DefaultMigrationsDir); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Printf("startup migrations: completed")
	}

	natsURL := cfg.NATSURL
	if natsURL == "" {
		url, embedded, err := worker.StartEmbeddedServer()
		if err != nil {
			log.Fatalf("FATAL embedded NATS server: %v", err)
		}
		defer embedded.Shutdown()
		natsURL = url
		log.Printf("nats: embedded server at %s", natsURL)
	}

	queue, err := worker.Connect(natsURL, "api", cfg.WorkerQueueHighWater)
	if err != nil {
		log.Fatalf("FATAL NATS connection: %v", err)
	}
	defer queue.Close()

	server := httpserver.New(cfg, queue)

	// With an embedded broker there is no separate worker process, so
	// consume tasks in-process too.
	if cfg.NATSURL == "" {
		startInProcessWorker(cfg, server, queue)
	}

	log.Fatal(server.Start())
}

func startInProcessWorker(cfg *config.Config, server *httpserver.Server, queue *worker.Queue) {
	deps := worker.BuildDeps(cfg, server.Storage())
	consumer := worker.NewWorker(queue, server.Storage(), deps.Embeddings)
	if err := consumer.Start(); err != nil {
		log.Fatalf("FATAL in-process worker: %v", err)
	}

	scheduler := worker.NewScheduler(server.Storage(), deps.Embeddings, deps.Summaries, deps.Reports)
	scheduler.Start()
}

// printStartupBanner logs the resolved configuration. No secrets are
// ever printed — only "set" / "not set" indicators.
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Fitness Backend API ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)

	log.Println("---- database ----")
	log.Printf("  runtime_url      = %s", setOrNot(cfg.DatabaseURL))
	log.Printf("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
	log.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)

	log.Println("---- auth ----")
	log.Printf("  auth_required    = %t", cfg.AuthRequired)
	log.Printf("  jwt_secret       = %s", secretStatus(cfg.JWTSecret))

	log.Println("---- ai ----")
	log.Printf("  ai_mode          = %s", cfg.AIMode)
	log.Printf("  fast_provider    = %s (key %s)", cfg.FastProvider.BaseURL, setOrNot(cfg.FastProvider.APIKey))
	log.Printf("  accurate_provider = %s (key %s)", cfg.AccurateProvider.BaseURL, setOrNot(cfg.AccurateProvider.APIKey))
	log.Printf("  embedding_model  = %s", cfg.EmbeddingModel)

	log.Println("---- worker ----")
	if cfg.NATSURL == "" {
		log.Printf("  nats             = embedded")
	} else {
		log.Printf("  nats             = %s", cfg.NATSURL)
	}

	log.Println("---- blob ----")
	log.Printf("  s3_bucket        = %s", orDash(cfg.S3.Bucket))
	log.Println("=========================================")
}

func setOrNot(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}

func secretStatus(v string) string {
	if v == "" || v == "change_me" {
		return "DEFAULT (change me!)"
	}
	return "set"
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
