package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"metrocare-be/pkg/embedding"
)

// JinaProvider embeds images with the Jina CLIP API.
type JinaProvider struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

type imageInput struct {
	Image string `json:"image"`
}

type embeddingRequest struct {
	Model      string       `json:"model"`
	Input      []imageInput `json:"input"`
	Normalized bool         `json:"normalized"`
	Dimensions int          `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Detail string `json:"detail,omitempty"`
}

func NewJinaProvider(apiKey string, dimensions int, timeout time.Duration) *JinaProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &JinaProvider{
		apiKey:     apiKey,
		baseURL:    "https://api.jina.ai/v1/embeddings",
		model:      "jina-clip-v2",
		dimensions: dimensions,
		client:     &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the provider at another endpoint (tests, proxies).
func (p *JinaProvider) WithBaseURL(baseURL string) *JinaProvider {
	p.baseURL = baseURL
	return p
}

func (p *JinaProvider) Generate(ctx context.Context, imageRef string) ([]float32, error) {
	if imageRef == "" {
		return nil, embedding.NewGenerationError("jina", imageRef, embedding.ErrEmptyImageRef)
	}

	reqBody := embeddingRequest{
		Model:      p.model,
		Input:      []imageInput{{Image: imageRef}},
		Normalized: true,
		Dimensions: p.dimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, embedding.NewGenerationError("jina", imageRef, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, embedding.NewGenerationError("jina", imageRef, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, embedding.NewGenerationError("jina", imageRef, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, embedding.NewGenerationError("jina", imageRef,
			fmt.Errorf("jina api error (status %d): %s", resp.StatusCode, string(bodyBytes)))
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, embedding.NewGenerationError("jina", imageRef, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(jinaResp.Data) == 0 || len(jinaResp.Data[0].Embedding) == 0 {
		return nil, embedding.NewGenerationError("jina", imageRef, fmt.Errorf("empty embeddings from jina api"))
	}

	return jinaResp.Data[0].Embedding, nil
}
