// Package aggregator implements the EmoteManager (spec §4.5, component
// C5): it fans requests out across the four provider clients, merges
// third-party channel catalogs into one name-keyed mapping, and routes
// emote-by-id lookups to the right provider.
package aggregator

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Juliapixel/twitch-emote-api/internal/cache"
	"github.com/Juliapixel/twitch-emote-api/internal/imagepipeline"
	"github.com/Juliapixel/twitch-emote-api/internal/logger"
	"github.com/Juliapixel/twitch-emote-api/internal/platform"
	"github.com/Juliapixel/twitch-emote-api/internal/providers/bttv"
	"github.com/Juliapixel/twitch-emote-api/internal/providers/ffz"
	"github.com/Juliapixel/twitch-emote-api/internal/providers/seventv"
	"github.com/Juliapixel/twitch-emote-api/internal/providers/twitch"
	"github.com/Juliapixel/twitch-emote-api/internal/token"
	"go.uber.org/zap"
)

// ChannelCatalog is a name-keyed mapping of one channel's merged
// third-party emotes.
type ChannelCatalog map[string]platform.ChannelEmote

// twitchProvider is satisfied by *twitch.Client; narrowed to an interface
// so the aggregator's fan-out and merge logic can be exercised against
// stubs in tests without reaching into a provider package's private
// httptest plumbing.
type twitchProvider interface {
	GetChannelID(login string) (string, error)
	EmoteByID(id string) (*imagepipeline.Emote, error)
	GlobalCatalog() ([]platform.ChannelEmote, error)
}

// restProvider is satisfied by *seventv.Client and *bttv.Client, whose
// public contracts are identical.
type restProvider interface {
	ChannelCatalog(twitchID string) ([]platform.ChannelEmote, error)
	EmoteByID(id string) (*imagepipeline.Emote, error)
	GlobalCatalog() ([]platform.ChannelEmote, error)
}

// ffzProvider is satisfied by *ffz.Client; EmoteByID takes the extra
// animated hint described in spec §4.4.4 and the REDESIGN FLAGS.
type ffzProvider interface {
	ChannelCatalog(twitchID string) ([]platform.ChannelEmote, error)
	EmoteByID(id string, animated *bool) (*imagepipeline.Emote, error)
	GlobalCatalog() ([]platform.ChannelEmote, error)
}

// Manager owns every provider client plus the top-level channel-catalog
// cache the aggregation step feeds.
type Manager struct {
	twitch  twitchProvider
	seventv restProvider
	bttv    restProvider
	ffz     ffzProvider

	channelCache *cache.Cache[string, ChannelCatalog]
}

// New builds an EmoteManager: a refreshing Twitch token holder, the four
// provider clients (each spawning its own cache evictor), and this
// manager's own channel-catalog cache (spec §4.7 startup order).
func New(clientID, clientSecret string) (*Manager, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}

	holder, err := token.New(httpClient, clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("acquiring twitch token: %w", err)
	}

	m := &Manager{
		twitch:       twitch.New(httpClient, clientID, holder),
		seventv:      seventv.New(httpClient),
		bttv:         bttv.New(httpClient),
		ffz:          ffz.New(httpClient),
		channelCache: cache.New[string, ChannelCatalog](platform.ChannelCatalogMaxAge),
	}
	cache.SpawnSingleEvictor(m.channelCache, platform.ChannelCatalogMaxAge)
	return m, nil
}

// newWithProviders builds a Manager around already-constructed provider
// clients (or test stubs satisfying the same interfaces), bypassing the
// live Twitch token acquisition New performs. Exercised by this package's
// own tests to verify the merge and partial-failure semantics of
// ChannelCatalog without a network dependency.
func newWithProviders(twitchP twitchProvider, sevenP, bttvP restProvider, ffzP ffzProvider) *Manager {
	return &Manager{
		twitch:       twitchP,
		seventv:      sevenP,
		bttv:         bttvP,
		ffz:          ffzP,
		channelCache: cache.New[string, ChannelCatalog](platform.ChannelCatalogMaxAge),
	}
}

// ChannelCatalog resolves login's numeric Twitch id (fatal on failure),
// then fans out to the three third-party providers concurrently and
// merges their results in the deterministic order S, B, F — later
// writers win on name collision (spec §4.5).
func (m *Manager) ChannelCatalog(login string) (ChannelCatalog, error) {
	if hit, ok := m.channelCache.Get(login); ok {
		return hit, nil
	}

	twitchID, err := m.twitch.GetChannelID(login)
	if err != nil {
		return nil, err
	}

	var sevenResp, bttvResp, ffzResp []platform.ChannelEmote
	var sevenErr, bttvErr, ffzErr error

	var g errgroup.Group
	g.Go(func() error { sevenResp, sevenErr = m.seventv.ChannelCatalog(twitchID); return nil })
	g.Go(func() error { bttvResp, bttvErr = m.bttv.ChannelCatalog(twitchID); return nil })
	g.Go(func() error { ffzResp, ffzErr = m.ffz.ChannelCatalog(twitchID); return nil })
	_ = g.Wait() // each goroutine swallows its own error into *Err above

	merged := ChannelCatalog{}
	succeeded := 0

	if sevenErr != nil {
		logger.Warn("7tv channel catalog fetch failed", zap.String("channel", login), zap.Error(sevenErr))
	} else {
		succeeded++
		for _, e := range sevenResp {
			merged[e.Name] = e
		}
	}

	if bttvErr != nil {
		logger.Warn("bttv channel catalog fetch failed", zap.String("channel", login), zap.Error(bttvErr))
	} else {
		succeeded++
		for _, e := range bttvResp {
			merged[e.Name] = e
		}
	}

	if ffzErr != nil {
		logger.Warn("ffz channel catalog fetch failed", zap.String("channel", login), zap.Error(ffzErr))
	} else {
		succeeded++
		for _, e := range ffzResp {
			merged[e.Name] = e
		}
	}

	if succeeded == 0 {
		// Don't cache a total failure: the next request should retry the
		// providers instead of serving an empty mapping for the full TTL
		// (spec §9 open question, resolved in SPEC_FULL.md REDESIGN FLAGS).
		return merged, nil
	}

	m.channelCache.Insert(login, merged)
	return merged, nil
}

// Emote dispatches an emote-by-id lookup to the named provider. animated
// is an optional hint (from an already-resolved ChannelEmote) that lets
// the FFZ client skip its extra metadata probe; pass nil when unknown.
func (m *Manager) Emote(p platform.Platform, id string, animated *bool) (*imagepipeline.Emote, error) {
	switch p {
	case platform.Twitch:
		return m.twitch.EmoteByID(id)
	case platform.SevenTV:
		return m.seventv.EmoteByID(id)
	case platform.BetterTTV:
		return m.bttv.EmoteByID(id)
	case platform.FrankerFaceZ:
		return m.ffz.EmoteByID(id, animated)
	default:
		return nil, platform.New(platform.PlatformUpstreamError, p, fmt.Errorf("unknown platform"))
	}
}

// GlobalCatalog dispatches to the named provider's process-lifetime
// global catalog.
func (m *Manager) GlobalCatalog(p platform.Platform) (ChannelCatalog, error) {
	var emotes []platform.ChannelEmote
	var err error

	switch p {
	case platform.Twitch:
		emotes, err = m.twitch.GlobalCatalog()
	case platform.SevenTV:
		emotes, err = m.seventv.GlobalCatalog()
	case platform.BetterTTV:
		emotes, err = m.bttv.GlobalCatalog()
	case platform.FrankerFaceZ:
		emotes, err = m.ffz.GlobalCatalog()
	default:
		return nil, platform.New(platform.PlatformUpstreamError, p, fmt.Errorf("unknown platform"))
	}
	if err != nil {
		return nil, err
	}

	out := ChannelCatalog{}
	for _, e := range emotes {
		out[e.Name] = e
	}
	return out, nil
}
