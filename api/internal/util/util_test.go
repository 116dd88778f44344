package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffMimeHTTP(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}

	assert.Equal(t, "image/jpeg", SniffMimeHTTP(jpeg))
	assert.Equal(t, "image/png", SniffMimeHTTP(png))
	assert.Equal(t, "application/octet-stream", SniffMimeHTTP(nil))
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(nil))
	assert.Len(t, SHA256Hex([]byte("evidence")), 64)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
}
