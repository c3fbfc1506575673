package service

import (
	"context"
	"errors"
	"net/http"

	"metrocare-be/internal/dto"
	"metrocare-be/internal/pkg/apperror"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/pkg/embedding"
)

type IEmbeddingService interface {
	Generate(ctx context.Context, req *dto.GenerateEmbeddingRequest) (*dto.GenerateEmbeddingResponse, error)
}

type embeddingService struct {
	provider embedding.EmbeddingProvider
	logger   logger.ILogger
}

func NewEmbeddingService(provider embedding.EmbeddingProvider, logger logger.ILogger) IEmbeddingService {
	return &embeddingService{provider: provider, logger: logger}
}

func (s *embeddingService) Generate(ctx context.Context, req *dto.GenerateEmbeddingRequest) (*dto.GenerateEmbeddingResponse, error) {
	values, err := s.provider.Generate(ctx, req.ImageUrl)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyImageRef) {
			return nil, apperror.BadRequest("imageUrl is required")
		}
		s.logger.Warn("EmbeddingService", "Embedding generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, apperror.Wrap(http.StatusBadGateway, "failed to generate embedding", err)
	}

	return &dto.GenerateEmbeddingResponse{
		Embedding:  values,
		Dimensions: len(values),
	}, nil
}
