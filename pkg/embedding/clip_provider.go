package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"metrocare-be/pkg/similarity"
)

// ClipProvider calls a self-hosted CLIP image-embedding service
// (e.g. clip-as-service or an Ollama-style sidecar).
type ClipProvider struct {
	BaseURL string
	Model   string
	client  *http.Client
}

func NewClipProvider(baseURL string, model string, timeout time.Duration) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:51000"
	}
	if model == "" {
		model = "ViT-B-32"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ClipProvider{
		BaseURL: baseURL,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type clipEmbeddingRequest struct {
	Model    string `json:"model"`
	ImageURL string `json:"image_url"`
}

type clipEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func (p *ClipProvider) Generate(ctx context.Context, imageRef string) ([]float32, error) {
	if imageRef == "" {
		return nil, newGenerationError("clip", imageRef, ErrEmptyImageRef)
	}

	jsonBody, err := json.Marshal(clipEmbeddingRequest{
		Model:    p.Model,
		ImageURL: imageRef,
	})
	if err != nil {
		return nil, newGenerationError("clip", imageRef, err)
	}

	endpoint := fmt.Sprintf("%s/embed", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, newGenerationError("clip", imageRef, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, newGenerationError("clip", imageRef, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newGenerationError("clip", imageRef, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newGenerationError("clip", imageRef,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	var clipResp clipEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &clipResp); err != nil {
		return nil, newGenerationError("clip", imageRef, err)
	}
	if clipResp.Error != "" {
		return nil, newGenerationError("clip", imageRef, errors.New(clipResp.Error))
	}
	if len(clipResp.Embedding) == 0 {
		return nil, newGenerationError("clip", imageRef, errors.New("empty embedding"))
	}

	values := make([]float32, len(clipResp.Embedding))
	for i, v := range clipResp.Embedding {
		values[i] = float32(v)
	}

	// Stored vectors are unit length so pgvector cosine distance and the
	// in-process engine agree.
	return similarity.Normalize(values), nil
}
