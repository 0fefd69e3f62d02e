package imagepipeline

import "github.com/Juliapixel/twitch-emote-api/internal/platform"

// AtlasInfo is the atlas_info sub-object of EmoteInfo's JSON shape.
type AtlasInfo struct {
	XSize uint32 `json:"x_size"`
	YSize uint32 `json:"y_size"`
}

// EmoteInfo is the JSON response shape for a single emote (spec §6).
type EmoteInfo struct {
	Name        string         `json:"name"`
	ID          string         `json:"id"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Animated    bool           `json:"animated"`
	Platform    platform.Platform `json:"platform"`
	FrameCount  int            `json:"frame_count"`
	FrameDelays []float64      `json:"frame_delays"`
	AtlasInfo   *AtlasInfo     `json:"atlas_info,omitempty"`
}

// NewInfo builds an EmoteInfo for a third-party emote, whose display name
// and animated flag come from its channel-catalog entry.
func NewInfo(name string, p platform.Platform, animated bool, e *Emote) EmoteInfo {
	return EmoteInfo{
		Name:        name,
		ID:          e.ID,
		Width:       e.Width,
		Height:      e.Height,
		Animated:    animated,
		Platform:    p,
		FrameCount:  len(e.Frames),
		FrameDelays: delays(e),
		AtlasInfo:   atlasInfo(e),
	}
}

// NewTwitchInfo builds an EmoteInfo for a Twitch emote, whose name is its
// opaque id and whose animated flag is derived from atlas presence
// (Twitch's own catalog does not carry one).
func NewTwitchInfo(e *Emote) EmoteInfo {
	return EmoteInfo{
		Name:        e.ID,
		ID:          e.ID,
		Width:       e.Width,
		Height:      e.Height,
		Animated:    e.Atlas != nil,
		Platform:    platform.Twitch,
		FrameCount:  len(e.Frames),
		FrameDelays: delays(e),
		AtlasInfo:   atlasInfo(e),
	}
}

func delays(e *Emote) []float64 {
	out := make([]float64, len(e.Frames))
	for i, f := range e.Frames {
		out[i] = f.Delay
	}
	return out
}

func atlasInfo(e *Emote) *AtlasInfo {
	if e.Atlas == nil {
		return nil
	}
	return &AtlasInfo{XSize: e.Atlas.XSize, YSize: e.Atlas.YSize}
}
