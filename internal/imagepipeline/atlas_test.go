package imagepipeline

import (
	"image"
	"image/color"
	"testing"
)

func solidFrame(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestBuildAtlasGridDimensions(t *testing.T) {
	cases := []struct {
		frames   int
		wantCols int
		wantRows int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 2, 2},
		{5, 3, 2},
		{9, 3, 3},
		{10, 4, 3},
	}

	for _, c := range cases {
		frames := make([]image.Image, c.frames)
		for i := range frames {
			frames[i] = solidFrame(4, 4, color.White)
		}

		atlas, err := buildAtlas(frames, 4, 4)
		if err != nil {
			t.Fatalf("buildAtlas(%d frames) failed: %v", c.frames, err)
		}
		if int(atlas.XSize) != c.wantCols {
			t.Fatalf("frames=%d: unexpected XSize: got=%d want=%d", c.frames, atlas.XSize, c.wantCols)
		}
		if int(atlas.YSize) != c.wantRows {
			t.Fatalf("frames=%d: unexpected YSize: got=%d want=%d", c.frames, atlas.YSize, c.wantRows)
		}
		if int(atlas.FrameCount) != c.frames {
			t.Fatalf("frames=%d: unexpected FrameCount: got=%d want=%d", c.frames, atlas.FrameCount, c.frames)
		}
	}
}
