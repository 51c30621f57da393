package worker

import (
	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/blob"
	"github.com/renatodap/fitness-backend/internal/config"
	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/reports"
	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/summaries"
)

// Deps bundles the services the worker and scheduler consume.
type Deps struct {
	Embeddings *embeddings.Service
	Summaries  *summaries.Service
	Reports    *reports.Generator
}

// BuildDeps wires the worker-side services from config and a store.
func BuildDeps(cfg *config.Config, store storage.Store) Deps {
	router := ai.NewRouterFromConfig(cfg)

	var model embeddings.Model
	if cfg.AIMode == config.AIModeMock || cfg.EmbeddingBaseURL == "" {
		model = embeddings.NewMockModel(384)
	} else {
		model = embeddings.NewHTTPModel(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
	}

	blobStore := blob.NewFromConfig(cfg)

	embedService := embeddings.NewService(store, model, router)
	return Deps{
		Embeddings: embedService,
		Summaries:  summaries.NewService(store),
		Reports:    reports.NewGenerator(store, blobStore),
	}
}
