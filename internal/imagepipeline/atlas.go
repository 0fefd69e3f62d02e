package imagepipeline

import (
	"image"
	"math"
	"net/http"

	"github.com/disintegration/imaging"
)

const atlasCacheControl = "max-age=54000, public"

// AtlasTexture packs every frame of an animated emote into a single
// static WebP sprite sheet, row-major, transparent-padded.
type AtlasTexture struct {
	Data       []byte
	FrameCount uint32
	XSize      uint32
	YSize      uint32
}

// WriteResponse writes the atlas as a binary WebP response.
func (a AtlasTexture) WriteResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", atlasCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

// buildAtlas blits frames (all width x height, RGBA) into a
// ceil(sqrt(N)) x ceil(N/cols) grid and WebP-encodes the canvas.
func buildAtlas(frames []image.Image, width, height int) (*AtlasTexture, error) {
	n := len(frames)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	canvas := imaging.New(width*cols, height*rows, image.Transparent)
	for i, frame := range frames {
		x := width * (i % cols)
		y := height * (i / cols)
		canvas = imaging.Paste(canvas, frame, image.Pt(x, y))
	}

	buf, err := encodeWebP(canvas)
	if err != nil {
		return nil, err
	}

	return &AtlasTexture{
		Data:       buf,
		FrameCount: uint32(n),
		XSize:      uint32(cols),
		YSize:      uint32(rows),
	}, nil
}
