// Package seventv implements the 7TV provider client (spec §4.4.2).
package seventv

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Juliapixel/twitch-emote-api/internal/cache"
	"github.com/Juliapixel/twitch-emote-api/internal/imagepipeline"
	"github.com/Juliapixel/twitch-emote-api/internal/logger"
	"github.com/Juliapixel/twitch-emote-api/internal/platform"
	"go.uber.org/zap"
)

// apiBaseURL and cdnBaseURL are vars rather than consts so tests can
// point this client at a local httptest.Server.
var (
	apiBaseURL = "https://7tv.io"
	cdnBaseURL = "https://cdn.7tv.app"
)

// Client is the 7TV provider client. It owns a user-catalog cache and an
// emote-image cache sharing a single background evictor, plus a
// once-initialized global catalog.
type Client struct {
	http *http.Client

	userCache  *cache.Cache[string, []platform.ChannelEmote]
	emoteCache *cache.Cache[string, *imagepipeline.Emote]

	global platform.OnceCell[[]platform.ChannelEmote]
}

func New(client *http.Client) *Client {
	c := &Client{
		http:       client,
		userCache:  cache.New[string, []platform.ChannelEmote](platform.UserCacheMaxAge),
		emoteCache: cache.New[string, *imagepipeline.Emote](platform.EmoteCacheMaxAge),
	}
	cache.SpawnEvictor(c.userCache, platform.UserCacheEvictInterval, c.emoteCache, platform.EmoteCacheEvictInterval)
	return c
}

type emoteSet struct {
	Emotes []sevenTvEmote `json:"emotes"`
}

type sevenTvEmote struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data struct {
		Listed   bool `json:"listed"`
		Animated bool `json:"animated"`
	} `json:"data"`
}

func (e sevenTvEmote) toChannelEmote() platform.ChannelEmote {
	return platform.ChannelEmote{Platform: platform.SevenTV, ID: e.ID, Name: e.Name, Animated: e.Data.Animated}
}

// ChannelCatalog fetches the channel's 7TV emote set for the given
// Twitch numeric id.
func (c *Client) ChannelCatalog(twitchID string) ([]platform.ChannelEmote, error) {
	if hit, ok := c.userCache.Get(twitchID); ok {
		return hit, nil
	}

	resp, err := c.http.Get(fmt.Sprintf("%s/v3/users/twitch/%s", apiBaseURL, twitchID))
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.SevenTV, fmt.Errorf("requesting 7tv channel emotes: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, platform.New(platform.PlatformUpstreamError, platform.SevenTV, fmt.Errorf("7tv channel emotes returned status %d", resp.StatusCode))
	}

	var body struct {
		EmoteSet emoteSet `json:"emote_set"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, platform.New(platform.PlatformUpstreamError, platform.SevenTV, fmt.Errorf("decoding 7tv channel emotes: %w", err))
	}

	emotes := make([]platform.ChannelEmote, 0, len(body.EmoteSet.Emotes))
	for _, e := range body.EmoteSet.Emotes {
		emotes = append(emotes, e.toChannelEmote())
	}

	c.userCache.Insert(twitchID, emotes)
	return emotes, nil
}

// EmoteByID fetches and decodes one 7TV emote's image.
func (c *Client) EmoteByID(id string) (*imagepipeline.Emote, error) {
	if hit, ok := c.emoteCache.Get(id); ok {
		return hit, nil
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/emote/%s/4x.webp", cdnBaseURL, id), nil)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.SevenTV, err)
	}
	req.Header.Set("Accept", "image/png, image/webp, image/gif")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.SevenTV, fmt.Errorf("requesting 7tv emote image: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, platform.New(platform.EmoteNotFound, platform.SevenTV, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, platform.New(platform.PlatformUpstreamError, platform.SevenTV, fmt.Errorf("7tv emote cdn returned status %d", resp.StatusCode))
	}

	emote, err := imagepipeline.DecodeFromResponse(resp, id)
	if err != nil {
		return nil, err
	}

	c.emoteCache.Insert(id, emote)
	return emote, nil
}

// GlobalCatalog fetches 7TV's global emote set once per process
// lifetime.
func (c *Client) GlobalCatalog() ([]platform.ChannelEmote, error) {
	return c.global.GetOrInit(func() ([]platform.ChannelEmote, error) {
		resp, err := c.http.Get(apiBaseURL + "/v3/emote-sets/global")
		if err != nil {
			return nil, platform.New(platform.RequestFailure, platform.SevenTV, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, platform.New(platform.PlatformUpstreamError, platform.SevenTV, fmt.Errorf("7tv global emotes returned status %d", resp.StatusCode))
		}

		var body emoteSet
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, platform.New(platform.PlatformUpstreamError, platform.SevenTV, fmt.Errorf("decoding 7tv global emotes: %w", err))
		}

		emotes := make([]platform.ChannelEmote, 0, len(body.Emotes))
		for _, e := range body.Emotes {
			emotes = append(emotes, e.toChannelEmote())
		}
		logger.Info("initialized 7tv global emote catalog", zap.Int("count", len(emotes)))
		return emotes, nil
	})
}
