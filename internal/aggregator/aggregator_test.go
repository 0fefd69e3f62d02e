package aggregator

import (
	"errors"
	"testing"

	"github.com/Juliapixel/twitch-emote-api/internal/imagepipeline"
	"github.com/Juliapixel/twitch-emote-api/internal/platform"
)

// stubTwitch is a twitchProvider stub that always resolves to a fixed
// numeric channel id.
type stubTwitch struct {
	id  string
	err error
}

func (s stubTwitch) GetChannelID(string) (string, error)                     { return s.id, s.err }
func (s stubTwitch) EmoteByID(string) (*imagepipeline.Emote, error)          { return nil, errors.New("unused") }
func (s stubTwitch) GlobalCatalog() ([]platform.ChannelEmote, error)         { return nil, errors.New("unused") }

// stubRest is a restProvider stub (7TV/BTTV shape) returning a fixed
// catalog or error.
type stubRest struct {
	emotes []platform.ChannelEmote
	err    error
}

func (s stubRest) ChannelCatalog(string) ([]platform.ChannelEmote, error) { return s.emotes, s.err }
func (s stubRest) EmoteByID(string) (*imagepipeline.Emote, error)         { return nil, errors.New("unused") }
func (s stubRest) GlobalCatalog() ([]platform.ChannelEmote, error)        { return nil, errors.New("unused") }

// stubFFZ is an ffzProvider stub.
type stubFFZ struct {
	emotes []platform.ChannelEmote
	err    error
}

func (s stubFFZ) ChannelCatalog(string) ([]platform.ChannelEmote, error) { return s.emotes, s.err }
func (s stubFFZ) EmoteByID(string, *bool) (*imagepipeline.Emote, error)  { return nil, errors.New("unused") }
func (s stubFFZ) GlobalCatalog() ([]platform.ChannelEmote, error)        { return nil, errors.New("unused") }

// TestChannelCatalogMergeOrder verifies spec §8 invariant 5: with
// stubbed providers all contributing the same emote name, the merged
// catalog keeps the last writer in the S, B, F order (FFZ wins).
func TestChannelCatalogMergeOrder(t *testing.T) {
	m := newWithProviders(
		stubTwitch{id: "123"},
		stubRest{emotes: []platform.ChannelEmote{{Platform: platform.SevenTV, ID: "a", Name: "x"}}},
		stubRest{emotes: []platform.ChannelEmote{{Platform: platform.BetterTTV, ID: "b", Name: "x"}}},
		stubFFZ{emotes: []platform.ChannelEmote{{Platform: platform.FrankerFaceZ, ID: "c", Name: "x"}}},
	)

	catalog, err := m.ChannelCatalog("chan")
	if err != nil {
		t.Fatalf("ChannelCatalog failed: %v", err)
	}

	got, ok := catalog["x"]
	if !ok {
		t.Fatalf("expected catalog to contain %q", "x")
	}
	if got.Platform != platform.FrankerFaceZ || got.ID != "c" {
		t.Fatalf("expected FFZ's entry to win the merge, got %+v", got)
	}
}

// TestChannelCatalogPartialFailure verifies spec §8 invariant 6: two
// providers erroring and one succeeding still yields that provider's
// emotes, with no aggregate-level error.
func TestChannelCatalogPartialFailure(t *testing.T) {
	m := newWithProviders(
		stubTwitch{id: "123"},
		stubRest{err: errors.New("7tv is down")},
		stubRest{err: errors.New("bttv is down")},
		stubFFZ{emotes: []platform.ChannelEmote{
			{Platform: platform.FrankerFaceZ, ID: "1", Name: "a"},
			{Platform: platform.FrankerFaceZ, ID: "2", Name: "b"},
		}},
	)

	catalog, err := m.ChannelCatalog("chan")
	if err != nil {
		t.Fatalf("expected partial failure to still succeed, got error: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected exactly 2 emotes from the surviving provider, got %d", len(catalog))
	}
}

// TestChannelCatalogTotalFailureNotCached verifies the REDESIGN FLAG
// resolution: when all three providers fail, the (empty) result is
// still returned for that request, but is not cached, so the very next
// call retries the providers instead of replaying an empty mapping.
func TestChannelCatalogTotalFailureNotCached(t *testing.T) {
	calls := 0
	m := newWithProviders(
		stubTwitch{id: "123"},
		countingRest{counter: &calls},
		countingRest{counter: &calls},
		countingFFZ{counter: &calls},
	)

	catalog, err := m.ChannelCatalog("chan")
	if err != nil {
		t.Fatalf("total provider failure should still return a result, got error: %v", err)
	}
	if len(catalog) != 0 {
		t.Fatalf("expected an empty catalog, got %d entries", len(catalog))
	}

	firstCalls := calls
	if _, err := m.ChannelCatalog("chan"); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if calls <= firstCalls {
		t.Fatalf("expected the second call to retry the providers (total failure must not be cached); calls before=%d after=%d", firstCalls, calls)
	}
}

// countingRest and countingFFZ record an invocation and always fail, used
// to confirm a provider is re-queried rather than served from a cached
// empty catalog.
type countingRest struct{ counter *int }

func (c countingRest) ChannelCatalog(string) ([]platform.ChannelEmote, error) {
	*c.counter++
	return nil, errors.New("down")
}
func (c countingRest) EmoteByID(string) (*imagepipeline.Emote, error)  { return nil, errors.New("unused") }
func (c countingRest) GlobalCatalog() ([]platform.ChannelEmote, error) { return nil, errors.New("unused") }

type countingFFZ struct{ counter *int }

func (c countingFFZ) ChannelCatalog(string) ([]platform.ChannelEmote, error) {
	*c.counter++
	return nil, errors.New("down")
}
func (c countingFFZ) EmoteByID(string, *bool) (*imagepipeline.Emote, error) {
	return nil, errors.New("unused")
}
func (c countingFFZ) GlobalCatalog() ([]platform.ChannelEmote, error) { return nil, errors.New("unused") }

// TestEmoteDispatchesToPlatform verifies Manager.Emote routes the
// Twitch platform tag to the twitch provider's EmoteByID.
func TestEmoteDispatchesToPlatform(t *testing.T) {
	want := &imagepipeline.Emote{ID: "abc"}
	m := newWithProviders(
		stubTwitchEmote{emote: want},
		stubRest{},
		stubRest{},
		stubFFZ{},
	)

	got, err := m.Emote(platform.Twitch, "abc", nil)
	if err != nil {
		t.Fatalf("Emote failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected dispatch to the twitch provider's EmoteByID result")
	}
}

type stubTwitchEmote struct{ emote *imagepipeline.Emote }

func (s stubTwitchEmote) GetChannelID(string) (string, error) { return "", errors.New("unused") }
func (s stubTwitchEmote) EmoteByID(string) (*imagepipeline.Emote, error) {
	return s.emote, nil
}
func (s stubTwitchEmote) GlobalCatalog() ([]platform.ChannelEmote, error) {
	return nil, errors.New("unused")
}
