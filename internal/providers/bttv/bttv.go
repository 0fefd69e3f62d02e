// Package bttv implements the BetterTTV provider client (spec §4.4.3).
package bttv

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
	apiBaseURL = "https://api.betterttv.net"
	cdnBaseURL = "https://cdn.betterttv.net"
)

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

type bttvEmote struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Animated bool   `json:"animated"`
}

func (e bttvEmote) toChannelEmote() platform.ChannelEmote {
	return platform.ChannelEmote{Platform: platform.BetterTTV, ID: e.ID, Name: e.Code, Animated: e.Animated}
}

// ChannelCatalog fetches the channel's shared AND personal BTTV emotes;
// the upstream response splits them into two arrays and both are part
// of what a channel's chat can render (spec §4.4.3).
func (c *Client) ChannelCatalog(twitchID string) ([]platform.ChannelEmote, error) {
	if hit, ok := c.userCache.Get(twitchID); ok {
		return hit, nil
	}

	resp, err := c.http.Get(fmt.Sprintf("%s/3/cached/users/twitch/%s", apiBaseURL, twitchID))
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.BetterTTV, fmt.Errorf("requesting bttv channel emotes: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, platform.New(platform.PlatformUpstreamError, platform.BetterTTV, fmt.Errorf("bttv channel emotes returned status %d", resp.StatusCode))
	}

	var body struct {
		SharedEmotes  []bttvEmote `json:"sharedEmotes"`
		ChannelEmotes []bttvEmote `json:"channelEmotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, platform.New(platform.PlatformUpstreamError, platform.BetterTTV, fmt.Errorf("decoding bttv channel emotes: %w", err))
	}

	emotes := make([]platform.ChannelEmote, 0, len(body.SharedEmotes)+len(body.ChannelEmotes))
	for _, e := range body.SharedEmotes {
		emotes = append(emotes, e.toChannelEmote())
	}
	for _, e := range body.ChannelEmotes {
		emotes = append(emotes, e.toChannelEmote())
	}

	c.userCache.Insert(twitchID, emotes)
	return emotes, nil
}

func (c *Client) EmoteByID(id string) (*imagepipeline.Emote, error) {
	if hit, ok := c.emoteCache.Get(id); ok {
		return hit, nil
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/emote/%s/3x", cdnBaseURL, id), nil)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.BetterTTV, err)
	}
	req.Header.Set("Accept", "image/png, image/webp, image/gif")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.BetterTTV, fmt.Errorf("requesting bttv emote image: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, platform.New(platform.EmoteNotFound, platform.BetterTTV, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, platform.New(platform.PlatformUpstreamError, platform.BetterTTV, fmt.Errorf("bttv emote cdn returned status %d", resp.StatusCode))
	}

	emote, err := imagepipeline.DecodeFromResponse(resp, id)
	if err != nil {
		return nil, err
	}

	c.emoteCache.Insert(id, emote)
	return emote, nil
}

func (c *Client) GlobalCatalog() ([]platform.ChannelEmote, error) {
	return c.global.GetOrInit(func() ([]platform.ChannelEmote, error) {
		resp, err := c.http.Get(apiBaseURL + "/3/cached/emotes/global")
		if err != nil {
			return nil, platform.New(platform.RequestFailure, platform.BetterTTV, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, platform.New(platform.PlatformUpstreamError, platform.BetterTTV, fmt.Errorf("bttv global emotes returned status %d", resp.StatusCode))
		}

		var body []bttvEmote
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, platform.New(platform.PlatformUpstreamError, platform.BetterTTV, fmt.Errorf("decoding bttv global emotes: %w", err))
		}

		emotes := make([]platform.ChannelEmote, 0, len(body))
		for _, e := range body {
			emotes = append(emotes, e.toChannelEmote())
		}
		logger.Info("initialized bttv global emote catalog", zap.Int("count", len(emotes)))
		return emotes, nil
	})
}
