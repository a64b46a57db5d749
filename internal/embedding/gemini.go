package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini embeds text with a Google Gemini embedding model.
type Gemini struct {
	client *genai.Client
	model  string
	dims   int
}

// NewGemini creates a provider for the given model. dims must match the
// model's output dimension; every returned vector is checked against it.
func NewGemini(ctx context.Context, apiKey, model string, dims int) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return &Gemini{client: client, model: model, dims: dims}, nil
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	em := g.client.EmbeddingModel(g.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &Error{Model: g.model, Err: err}
	}
	if res.Embedding == nil {
		return nil, &Error{Model: g.model, Err: fmt.Errorf("empty embedding response")}
	}
	return g.checkAndNormalize(res.Embedding.Values)
}

func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := g.client.EmbeddingModel(g.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, &Error{Model: g.model, Err: err}
	}
	if len(res.Embeddings) != len(texts) {
		return nil, &Error{
			Model: g.model,
			Err:   fmt.Errorf("got %d embeddings for %d texts", len(res.Embeddings), len(texts)),
		}
	}
	vecs := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		vec, err := g.checkAndNormalize(e.Values)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (g *Gemini) checkAndNormalize(vec []float32) ([]float32, error) {
	if len(vec) != g.dims {
		return nil, &Error{
			Model: g.model,
			Err:   fmt.Errorf("model returned %d dimensions, expected %d", len(vec), g.dims),
		}
	}
	return Normalize(vec), nil
}

func (g *Gemini) Dimensions() int { return g.dims }

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Close() error { return g.client.Close() }
