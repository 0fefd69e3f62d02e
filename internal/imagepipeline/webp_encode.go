package imagepipeline

import (
	"bytes"
	"image"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// encodeWebP re-encodes img (the canonical container for every frame and
// atlas this gateway serves) at the library's default quality preset.
func encodeWebP(img image.Image) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 80)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
