// Package imagepipeline decodes upstream emote image bytes into a
// canonical WebP frame sequence plus an optional sprite atlas (spec
// §4.2, component C2). GIF and animated WebP always produce an atlas;
// everything else yields a single still frame.
package imagepipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/kolesa-team/go-webp/webp"
	xwebp "golang.org/x/image/webp"

	"github.com/Juliapixel/twitch-emote-api/internal/platform"
)

// Emote is a decoded, cache-ready image bundle (spec §3).
type Emote struct {
	ID     string
	Width  int
	Height int
	Frames []Frame
	Atlas  *AtlasTexture
}

var mimeToFormat = map[string]string{
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/png":  "png",
	"image/jpeg": "jpeg",
}

// DetectFormat implements the two-step discovery rule: trust
// Content-Type when it maps to a known format, otherwise sniff the
// magic bytes of body.
func DetectFormat(contentType string, body []byte) (string, error) {
	if f, ok := mimeToFormat[contentType]; ok {
		return f, nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err == nil && format != "" {
		return format, nil
	}

	return "", platform.New(platform.DecodeError, 0, fmt.Errorf("unable to determine image format"))
}

// DecodeFromResponse reads resp's body, determines its format (preferring
// Content-Type, falling back to magic-byte sniffing), and decodes it on
// the dedicated blocking-work pool.
func DecodeFromResponse(resp *http.Response, id string) (*Emote, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, 0, fmt.Errorf("reading upstream body: %w", err))
	}

	format, err := DetectFormat(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}

	return run(func() (*Emote, error) {
		return Decode(body, format, id)
	})
}

// Decode dispatches on format and builds the canonical Emote.
func Decode(data []byte, format string, id string) (*Emote, error) {
	switch format {
	case "gif":
		return decodeGIF(data, id)
	case "webp":
		return decodeWebP(data, id)
	default:
		return decodeStill(data, id)
	}
}

func decodeGIF(data []byte, id string) (*Emote, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, platform.New(platform.DecodeError, 0, fmt.Errorf("decoding gif: %w", err))
	}

	width, height := g.Config.Width, g.Config.Height

	frames := make([]Frame, 0, len(g.Image))
	images := make([]image.Image, 0, len(g.Image))
	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, paletted := range g.Image {
		draw.Draw(canvas, canvas.Bounds(), paletted, paletted.Bounds().Min, draw.Over)
		frameImg := cloneNRGBA(canvas)

		encoded, err := encodeFrame(frameImg)
		if err != nil {
			return nil, err
		}

		delaySec := float64(g.Delay[i]) / 100.0
		frames = append(frames, Frame{Delay: delaySec, Data: encoded})
		images = append(images, frameImg)
	}

	atlas, err := buildAtlas(images, width, height)
	if err != nil {
		return nil, platform.New(platform.DecodeError, 0, fmt.Errorf("building atlas: %w", err))
	}

	return &Emote{ID: id, Width: width, Height: height, Frames: frames, Atlas: atlas}, nil
}

func decodeWebP(data []byte, id string) (*Emote, error) {
	anim, err := webp.DecodeAnimation(bytes.NewReader(data))
	if err != nil || anim == nil || len(anim.Frames) <= 1 {
		return decodeStillFromBytes(data, id)
	}

	width, height := anim.Width, anim.Height
	frames := make([]Frame, 0, len(anim.Frames))
	images := make([]image.Image, 0, len(anim.Frames))

	for _, f := range anim.Frames {
		encoded, err := encodeFrame(f.Image)
		if err != nil {
			return nil, err
		}
		frames = append(frames, Frame{Delay: f.Duration.Seconds(), Data: encoded})
		images = append(images, f.Image)
	}

	atlas, err := buildAtlas(images, width, height)
	if err != nil {
		return nil, platform.New(platform.DecodeError, 0, fmt.Errorf("building atlas: %w", err))
	}

	return &Emote{ID: id, Width: width, Height: height, Frames: frames, Atlas: atlas}, nil
}

func decodeStill(data []byte, id string) (*Emote, error) {
	return decodeStillFromBytes(data, id)
}

func decodeStillFromBytes(data []byte, id string) (*Emote, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// x/image/webp registers itself as a stdlib image.Decode backend
		// via its init(); if both that and a plain decode failed, try it
		// explicitly in case only the webp-specific decoder understands
		// this payload's VP8 variant.
		if img2, err2 := xwebp.Decode(bytes.NewReader(data)); err2 == nil {
			img = img2
			err = nil
		} else {
			return nil, platform.New(platform.DecodeError, 0, fmt.Errorf("decoding still image: %w", err))
		}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	encoded, err := encodeFrame(img)
	if err != nil {
		return nil, err
	}

	return &Emote{
		ID:     id,
		Width:  width,
		Height: height,
		Frames: []Frame{{Delay: StillDelay, Data: encoded}},
		Atlas:  nil,
	}, nil
}

func encodeFrame(img image.Image) ([]byte, error) {
	buf, err := encodeWebP(toNRGBA(img))
	if err != nil {
		return nil, platform.New(platform.DecodeError, 0, fmt.Errorf("encoding frame to webp: %w", err))
	}
	return buf, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return cloneNRGBA(img)
}

func cloneNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
