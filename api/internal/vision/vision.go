// Package vision defines the image tagging contract shared by the
// concrete engines in the subpackages.
package vision

import "context"

type Tag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Analysis is what the wizard needs from an evidence photo: a short
// natural-language caption and a set of descriptive tags.
type Analysis struct {
	Caption string `json:"caption"`
	Tags    []Tag  `json:"tags"`
}

type Tagger interface {
	Name() string
	Tag(ctx context.Context, image []byte) (Analysis, error)
}
