package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/renatodap/fitness-backend/internal/config"
	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/storage/memory"
	"github.com/renatodap/fitness-backend/internal/storage/postgres"
	"github.com/renatodap/fitness-backend/internal/worker"
)

// The worker binary consumes queue tasks and runs the schedule floor.
// It is deployed separately from the API when NATS_URL points at a
// shared broker.
func main() {
	cfg := config.Load()

	if cfg.NATSURL == "" {
		log.Fatal("FATAL: NATS_URL is required for the standalone worker (the API embeds a broker otherwise)")
	}

	var store storage.Store
	if cfg.DatabaseURL == "" {
		log.Println("storage: using in-memory store (no DATABASE_URL)")
		store = memory.New()
	} else {
		pgStore, err := postgres.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("FATAL storage: %v", err)
		}
		store = pgStore
	}
	defer store.Close()

	queue, err := worker.Connect(cfg.NATSURL, "worker", cfg.WorkerQueueHighWater)
	if err != nil {
		log.Fatalf("FATAL NATS connection: %v", err)
	}
	defer queue.Close()

	deps := worker.BuildDeps(cfg, store)

	consumer := worker.NewWorker(queue, store, deps.Embeddings)
	if err := consumer.Start(); err != nil {
		log.Fatalf("FATAL worker start: %v", err)
	}
	defer consumer.Stop()

	scheduler := worker.NewScheduler(store, deps.Embeddings, deps.Summaries, deps.Reports)
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("worker: running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("worker: shutting down")
}
