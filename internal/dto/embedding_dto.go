package dto

type GenerateEmbeddingRequest struct {
	ImageUrl string `json:"imageUrl" validate:"required,max=2048"`
}

type GenerateEmbeddingResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}
