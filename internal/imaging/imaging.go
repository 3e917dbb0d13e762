// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging prepares uploaded category banners. Banners wider than
// the display width are scaled down and re-encoded as JPEG; smaller ones
// are kept as uploaded so animated GIFs and WebP survive untouched.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif" // register GIF decoder
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// BannerWidth is the widest a banner is ever displayed.
	BannerWidth = 1920

	// maxPixels guards against decompression bombs.
	maxPixels = 40_000_000

	jpegQuality = 85
)

var (
	// ErrNotImage is returned for data no registered decoder understands.
	ErrNotImage = errors.New("imaging: not a supported image")

	// ErrTooLarge is returned for images over the pixel limit.
	ErrTooLarge = errors.New("imaging: image dimensions too large")
)

// Info describes an image without decoding its pixels.
type Info struct {
	Format string
	Width  int
	Height int
}

// Inspect reads the image header.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// PrepareBanner validates a banner and scales it to at most BannerWidth
// pixels wide, preserving the aspect ratio.
func PrepareBanner(data []byte) ([]byte, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, ErrNotImage
	}
	if int64(info.Width)*int64(info.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, info.Width, info.Height)
	}
	if info.Width <= BannerWidth {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	bounds := src.Bounds()
	height := max(1, bounds.Dy()*BannerWidth/bounds.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, BannerWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode banner: %w", err)
	}
	return buf.Bytes(), nil
}
