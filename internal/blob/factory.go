package blob

import (
	"log"

	appcfg "github.com/renatodap/fitness-backend/internal/config"
)

// NewFromConfig builds the S3 store when configured and falls back to
// the in-memory store otherwise, mirroring the storage factory.
func NewFromConfig(cfg *appcfg.Config) Store {
	if !cfg.S3.IsConfigured() {
		log.Println("blob: S3 not configured, using in-memory object store")
		return NewMemoryStore()
	}

	store, err := NewS3Store(cfg.S3)
	if err != nil {
		log.Printf("blob: S3 init failed (%v), using in-memory object store", err)
		return NewMemoryStore()
	}

	log.Printf("blob: S3 store ready, bucket=%s", cfg.S3.Bucket)
	return store
}
