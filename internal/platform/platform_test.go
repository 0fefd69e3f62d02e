package platform

import (
	"errors"
	"net/http"
	"testing"
)

func TestPlatformStringRoundTripsThroughParsePlatform(t *testing.T) {
	for _, p := range []Platform{Twitch, SevenTV, BetterTTV, FrankerFaceZ} {
		parsed, ok := ParsePlatform(p.String())
		if !ok {
			t.Fatalf("ParsePlatform(%q) returned ok=false", p.String())
		}
		if parsed != p {
			t.Fatalf("round-trip mismatch: got=%v want=%v", parsed, p)
		}
	}
}

func TestParsePlatformRejectsUnknownToken(t *testing.T) {
	if _, ok := ParsePlatform("discord"); ok {
		t.Fatalf("ParsePlatform accepted an unknown platform token")
	}
}

func TestKindStatusCode(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{ChannelNotFound, http.StatusNotFound},
		{EmoteNotFound, http.StatusNotFound},
		{RequestFailure, http.StatusBadGateway},
		{PlatformUpstreamError, http.StatusBadGateway},
		{Unauthorized, http.StatusInternalServerError},
		{DecodeError, http.StatusInternalServerError},
		{TwitchChannelEmotesUnsupported, http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := c.kind.StatusCode(); got != c.want {
			t.Fatalf("%v.StatusCode(): got=%d want=%d", c.kind, got, c.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(RequestFailure, SevenTV, cause)

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is did not find the wrapped cause")
	}
	if err.Error() == "" {
		t.Fatalf("Error() returned an empty string")
	}
}

func TestErrorWithoutCauseStillFormats(t *testing.T) {
	err := New(EmoteNotFound, FrankerFaceZ, nil)
	if err.Error() != EmoteNotFound.String() {
		t.Fatalf("unexpected message with nil cause: got=%q want=%q", err.Error(), EmoteNotFound.String())
	}
}
