package imagepipeline

import (
	"math"
	"net/http"
)

const frameCacheControl = "max-age=54000, public"

// StillDelay is the sentinel delay recorded for the single frame of a
// non-animated emote: any value larger than any real animation length.
const StillDelay = math.MaxFloat64

// Frame is one canonical, WebP-encoded image in an Emote's frame
// sequence.
type Frame struct {
	Delay float64 // seconds; StillDelay for a non-animated frame
	Data  []byte  // WebP-encoded bytes
}

// WriteResponse writes the frame as a binary WebP response with the
// gateway's standard image Cache-Control header.
func (f Frame) WriteResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", frameCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}
