// Package gemini tags images through the Gemini API. It fills the same
// role as the azure engine for deployments without an Azure subscription.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"nonemergency-bot/api/internal/util"
	"nonemergency-bot/api/internal/vision"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string { return "gemini" }

const systemPrompt = `You are an image tagging service. Given a photo, return STRICT JSON:
{
  "caption": string,              // one short sentence describing the photo
  "tags": [{"name": string, "confidence": number}]  // lowercase single-word object tags, confidence in [0,1]
}
Tag concrete physical objects only. No text outside the JSON.`

func (e *Engine) Tag(ctx context.Context, image []byte) (vision.Analysis, error) {
	if e.APIKey == "" {
		return vision.Analysis{}, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return vision.Analysis{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	parts := []genai.Part{
		genai.Text("Tag this photo. Respond with the JSON only."),
		&genai.Blob{MIMEType: util.SniffMimeHTTP(image), Data: image},
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return vision.Analysis{}, err
	}
	raw := firstText(resp)
	if raw == "" {
		return vision.Analysis{}, errors.New("gemini: empty response")
	}

	var a vision.Analysis
	if err := json.Unmarshal([]byte(util.StripCodeFences(raw)), &a); err != nil {
		return vision.Analysis{}, fmt.Errorf("gemini: bad JSON: %w", err)
	}
	if a.Tags == nil {
		a.Tags = []vision.Tag{}
	}
	return a, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				return strings.TrimSpace(string(t))
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
