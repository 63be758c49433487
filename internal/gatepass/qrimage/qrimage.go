// Package qrimage renders credential payloads as PNG QR codes.
package qrimage

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 512
	MinSize     = 128
	MaxSize     = 2048
)

var ErrEmptyContent = errors.New("qrimage: empty content")

// ClampSize maps 0 to DefaultSize and bounds everything else.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

// PNG encodes content at medium error correction.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qrimage: encode: %w", err)
	}
	b, err := q.PNG(ClampSize(size))
	if err != nil {
		return nil, fmt.Errorf("qrimage: png: %w", err)
	}
	return b, nil
}
