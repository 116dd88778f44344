// Package azure tags images with the Azure Computer Vision v2.0 analyze
// endpoint. Single call per image, no retries, no caching.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nonemergency-bot/api/internal/vision"
)

const visualFeatures = "Categories,Description,Faces,ImageType,Tags"

type Engine struct {
	Endpoint string
	APIKey   string
	httpc    *http.Client
}

func New(endpoint, apiKey string) *Engine {
	return &Engine{
		Endpoint: strings.TrimRight(endpoint, "/"),
		APIKey:   apiKey,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "azure" }

type response struct {
	Description struct {
		Captions []struct {
			Text       string  `json:"text"`
			Confidence float64 `json:"confidence"`
		} `json:"captions"`
	} `json:"description"`
	Tags []vision.Tag `json:"tags"`
}

func (e *Engine) Tag(ctx context.Context, image []byte) (vision.Analysis, error) {
	if e.APIKey == "" {
		return vision.Analysis{}, fmt.Errorf("VISION_API_KEY is empty")
	}
	u := e.Endpoint + "/vision/v2.0/analyze?visualFeatures=" + visualFeatures

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(image))
	if err != nil {
		return vision.Analysis{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return vision.Analysis{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return vision.Analysis{}, fmt.Errorf("vision %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return vision.Analysis{}, fmt.Errorf("vision: decode response: %w", err)
	}

	a := vision.Analysis{Tags: out.Tags}
	if len(out.Description.Captions) > 0 {
		a.Caption = out.Description.Captions[0].Text
	}
	if a.Tags == nil {
		a.Tags = []vision.Tag{}
	}
	return a, nil
}
