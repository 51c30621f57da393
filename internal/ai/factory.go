package ai

import (
	"github.com/renatodap/fitness-backend/internal/config"
)

// NewRouterFromConfig builds the dual-provider router. In mock mode both
// roles share one MockClient so handler tests never reach the network.
func NewRouterFromConfig(cfg *config.Config) *Router {
	if cfg.AIMode == config.AIModeMock {
		mock := NewMockClient()
		return NewRouter(mock, mock)
	}

	fast := NewHTTPClient(cfg.FastProvider.BaseURL, cfg.FastProvider.APIKey, cfg.AITimeoutSeconds)
	accurate := NewHTTPClient(cfg.AccurateProvider.BaseURL, cfg.AccurateProvider.APIKey, cfg.AITimeoutSeconds)
	return NewRouter(fast, accurate)
}
