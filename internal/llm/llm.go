package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the default Gemini model for article generation.
	DefaultModel = "gemini-2.5-flash"
	// DefaultEmbeddingModel is the default model for passage embeddings.
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions is the output dimension for embeddings.
	DefaultEmbeddingDimensions = int32(768)
)

// Client wraps the Gemini SDK as the pipeline's text-generation
// capability.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
}

// Constraints bounds one generation call.
type Constraints struct {
	MaxTokens   int32   // Maximum number of tokens to generate
	Temperature float32 // 0.0 to 1.0
	Model       string  // Optional override of the client's model
}

// NewClient creates a new LLM client. The API key is resolved from
// GEMINI_API_KEY (or alternatives) first, then viper's
// ai.gemini.api_key.
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("ai.gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required; set GEMINI_API_KEY or ai.gemini.api_key in the config file")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:    apiKey,
		modelName: modelName,
		gClient:   gClient,
	}, nil
}

// Complete generates text from a prompt under the given constraints.
// An empty model response is an error; callers decide whether that is
// fatal for their stage.
func (c *Client) Complete(ctx context.Context, prompt string, constraints Constraints) (string, error) {
	model := constraints.Model
	if model == "" {
		model = c.modelName
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	var cfg *genai.GenerateContentConfig
	if constraints.MaxTokens > 0 || constraints.Temperature > 0 {
		cfg = &genai.GenerateContentConfig{}
		if constraints.MaxTokens > 0 {
			cfg.MaxOutputTokens = constraints.MaxTokens
		}
		if constraints.Temperature > 0 {
			temp := constraints.Temperature
			cfg.Temperature = &temp
		}
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", model)
	}

	return text, nil
}

// GenerateEmbedding creates an embedding vector for the given text,
// used by the internal knowledge index.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	embeddingModel := viper.GetString("ai.gemini.embedding_model")
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
	}}

	dims := DefaultEmbeddingDimensions
	resp, err := c.gClient.Models.EmbedContent(ctx, embeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for text")
	}

	values := resp.Embeddings[0].Values
	embedding := make([]float64, len(values))
	for i, v := range values {
		embedding[i] = float64(v)
	}
	return embedding, nil
}

// GetModelName returns the configured model name.
func (c *Client) GetModelName() string {
	return c.modelName
}
