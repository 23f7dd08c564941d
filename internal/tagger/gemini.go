package tagger

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/sakif/madison-marketplace/internal/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// generator is the part of *genai.Models the tagger calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini tags images with Google's Gemini API.
type Gemini struct {
	models generator
	model  string
}

// NewGemini creates a Gemini tagger. An empty model selects DefaultModel.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("tagger: Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("tagger: creating GenAI client: %w", err)
	}
	return newGemini(client.Models, model), nil
}

func newGemini(models generator, model string) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{models: models, model: model}
}

// Tag sends the image and Prompt in a single request and parses the reply.
// Every failure, transport or parse, comes back as an upstream error.
func (g *Gemini) Tag(ctx context.Context, image []byte, mediaType string) (*model.TagSet, error) {
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mediaType),
			genai.NewPartFromText(Prompt),
		}, genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  1000,
	})
	if err != nil {
		return nil, failed(fmt.Errorf("GenAI generate failed: %w", err))
	}

	text := resp.Text()
	if text == "" {
		return nil, failed(errors.New("empty model response"))
	}

	tags, err := ParseTags(text)
	if err != nil {
		return nil, failed(err)
	}
	return tags, nil
}
