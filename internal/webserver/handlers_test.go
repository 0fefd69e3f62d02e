package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Juliapixel/twitch-emote-api/internal/imagepipeline"
	"github.com/Juliapixel/twitch-emote-api/internal/version"
)

// TestVersionHandler verifies GET /version serves the process's
// build-info snapshot as JSON.
func TestVersionHandler(t *testing.T) {
	h := &handlers{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	h.version(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}

	var got version.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding /version response failed: %v", err)
	}
	if got.Version != version.Version {
		t.Fatalf("unexpected version: got=%q want=%q", got.Version, version.Version)
	}
}

// TestParseFrame verifies spec §8 invariant 9 and §9's clarified rule:
// a frame path must literally end in ".webp" (case-insensitive), with a
// non-negative integer prefix.
func TestParseFrame(t *testing.T) {
	cases := []struct {
		name    string
		segment string
		wantN   int
		wantOK  bool
	}{
		{"valid frame", "3.webp", 3, true},
		{"valid frame zero", "0.webp", 0, true},
		{"uppercase extension", "3.WEBP", 3, true},
		{"mixed case extension", "3.WebP", 3, true},
		{"missing extension", "3", 0, false},
		{"non-numeric prefix", "abc.webp", 0, false},
		{"negative prefix", "-1.webp", 0, false},
		{"empty prefix", ".webp", 0, false},
		{"wrong extension", "3.png", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, ok := parseFrame(tc.segment)
			if ok != tc.wantOK {
				t.Fatalf("parseFrame(%q) ok = %v, want %v", tc.segment, ok, tc.wantOK)
			}
			if ok && n != tc.wantN {
				t.Fatalf("parseFrame(%q) = %d, want %d", tc.segment, n, tc.wantN)
			}
		})
	}
}

// TestWriteFrameOutOfRange verifies requesting a frame index beyond an
// emote's frame count yields 404 (spec §8 scenario: frame 99 of a
// 30-frame emote).
func TestWriteFrameOutOfRange(t *testing.T) {
	emote := &imagepipeline.Emote{
		Frames: []imagepipeline.Frame{
			{Delay: 0.04, Data: []byte{1, 2, 3}},
		},
	}

	rec := httptest.NewRecorder()
	writeFrame(rec, emote, 1)
	if rec.Code != 404 {
		t.Fatalf("expected 404 for an out-of-range frame index, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	writeFrame(rec, emote, 0)
	if rec.Code != 200 {
		t.Fatalf("expected 200 for a valid frame index, got %d", rec.Code)
	}
	if rec.Body.Len() != 3 {
		t.Fatalf("unexpected body length: got=%d want=3", rec.Body.Len())
	}
}

// TestWriteAtlasMissingYields404 verifies requesting the atlas of a
// still (non-animated) emote yields 404 rather than an empty image.
func TestWriteAtlasMissingYields404(t *testing.T) {
	emote := &imagepipeline.Emote{
		Frames: []imagepipeline.Frame{{Delay: imagepipeline.StillDelay, Data: []byte{1}}},
		Atlas:  nil,
	}

	rec := httptest.NewRecorder()
	writeAtlas(rec, emote)
	if rec.Code != 404 {
		t.Fatalf("expected 404 for a still emote's atlas, got %d", rec.Code)
	}
}

// TestWriteAtlasPresent verifies an animated emote's atlas is written
// with the webp content type.
func TestWriteAtlasPresent(t *testing.T) {
	emote := &imagepipeline.Emote{
		Frames: []imagepipeline.Frame{{}, {}},
		Atlas:  &imagepipeline.AtlasTexture{Data: []byte{9, 9}, FrameCount: 2, XSize: 2, YSize: 1},
	}

	rec := httptest.NewRecorder()
	writeAtlas(rec, emote)
	if rec.Code != 200 {
		t.Fatalf("expected 200 for an animated emote's atlas, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/webp" {
		t.Fatalf("unexpected Content-Type: got=%q want=image/webp", ct)
	}
}
