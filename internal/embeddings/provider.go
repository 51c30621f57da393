// Package embeddings implements the unified multimodal memory: vector
// generation for text and images, persistence to the embedding store,
// and similarity + temporal retrieval over a user's history.
package embeddings

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Model produces fixed-length vectors. One text model family is fixed at
// process start and stamped on every row it produces.
type Model interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, imageBytes []byte) ([]float32, error)
	Dimensions() int
	Name() string
}

// HTTPModel calls an OpenAI-compatible /embeddings endpoint. Image input
// is sent base64-encoded to a joint vision-text model so image vectors
// stay comparable to text vectors.
type HTTPModel struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	dimensions int
}

func NewHTTPModel(baseURL, apiKey, model string) *HTTPModel {
	return &HTTPModel{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		client:     &http.Client{Timeout: 30 * time.Second},
		dimensions: 384,
	}
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

func (m *HTTPModel) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	return m.embed(ctx, text)
}

func (m *HTTPModel) EmbedImage(ctx context.Context, imageBytes []byte) ([]float32, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("cannot embed empty image")
	}
	return m.embed(ctx, base64.StdEncoding.EncodeToString(imageBytes))
}

func (m *HTTPModel) embed(ctx context.Context, input string) ([]float32, error) {
	payload := embeddingRequest{Input: input, Model: m.model}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embedding API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API error: %s - %s", resp.Status, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	embedding := parsed.Data[0].Embedding
	m.dimensions = len(embedding)
	return embedding, nil
}

func (m *HTTPModel) Dimensions() int { return m.dimensions }
func (m *HTTPModel) Name() string    { return m.model }

// MockModel produces deterministic unit vectors from content hashes, so
// identical inputs always land at the same point and tests can rely on
// exact self-similarity.
type MockModel struct {
	dimensions int
	name       string
}

func NewMockModel(dimensions int) *MockModel {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockModel{dimensions: dimensions, name: "mock-embedding"}
}

func (m *MockModel) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	return m.vectorFor([]byte(text)), nil
}

func (m *MockModel) EmbedImage(ctx context.Context, imageBytes []byte) ([]float32, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("cannot embed empty image")
	}
	return m.vectorFor(imageBytes), nil
}

func (m *MockModel) vectorFor(content []byte) []float32 {
	vector := make([]float32, m.dimensions)
	var norm float64
	for i := range vector {
		h := fnv.New32a()
		h.Write(content)
		h.Write([]byte{byte(i), byte(i >> 8)})
		v := float32(h.Sum32()%1000)/500.0 - 1.0
		vector[i] = v
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}
	return vector
}

func (m *MockModel) Dimensions() int { return m.dimensions }
func (m *MockModel) Name() string    { return m.name }
