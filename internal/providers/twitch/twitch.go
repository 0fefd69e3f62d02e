// Package twitch implements the Twitch Helix provider client (spec
// §4.4.1), including the channel login -> numeric id lookup every other
// provider fans out from.
package twitch

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Juliapixel/twitch-emote-api/internal/cache"
	"github.com/Juliapixel/twitch-emote-api/internal/imagepipeline"
	"github.com/Juliapixel/twitch-emote-api/internal/logger"
	"github.com/Juliapixel/twitch-emote-api/internal/platform"
	"github.com/Juliapixel/twitch-emote-api/internal/token"
	"go.uber.org/zap"
)

// apiBaseURL and cdnBaseURL are vars rather than consts so tests can
// point this client at a local httptest.Server.
var (
	apiBaseURL = "https://api.twitch.tv"
	cdnBaseURL = "https://static-cdn.jtvnw.net"
)

type Client struct {
	http     *http.Client
	clientID string
	token    *token.Holder

	idCache    *cache.Cache[string, string]
	emoteCache *cache.Cache[string, *imagepipeline.Emote]

	global platform.OnceCell[[]platform.ChannelEmote]
}

func New(client *http.Client, clientID string, holder *token.Holder) *Client {
	c := &Client{
		http:       client,
		clientID:   clientID,
		token:      holder,
		idCache:    cache.New[string, string](platform.ChannelIDCacheMaxAge),
		emoteCache: cache.New[string, *imagepipeline.Emote](platform.EmoteCacheMaxAge),
	}
	cache.SpawnEvictor(c.idCache, platform.ChannelIDCacheEvictInterval, c.emoteCache, platform.EmoteCacheEvictInterval)
	return c
}

// ChannelCatalog is intentionally unsupported: Twitch's per-channel
// emote catalog is not exposed through this gateway (spec §4.4.1).
func (c *Client) ChannelCatalog(string) ([]platform.ChannelEmote, error) {
	return nil, platform.New(platform.TwitchChannelEmotesUnsupported, platform.Twitch, nil)
}

// GetChannelID resolves a channel login to its numeric Twitch user id.
func (c *Client) GetChannelID(login string) (string, error) {
	if hit, ok := c.idCache.Get(login); ok {
		return hit, nil
	}

	tok, err := c.token.Get()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/helix/users?login=%s", apiBaseURL, login), nil)
	if err != nil {
		return "", platform.New(platform.RequestFailure, platform.Twitch, err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", platform.New(platform.RequestFailure, platform.Twitch, fmt.Errorf("requesting twitch user id: %w", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return "", platform.New(platform.Unauthorized, platform.Twitch, nil)
	case http.StatusNotFound:
		return "", platform.New(platform.ChannelNotFound, platform.Twitch, nil)
	case http.StatusOK:
		// fall through
	default:
		return "", platform.New(platform.PlatformUpstreamError, platform.Twitch, fmt.Errorf("twitch users endpoint returned status %d", resp.StatusCode))
	}

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", platform.New(platform.PlatformUpstreamError, platform.Twitch, fmt.Errorf("decoding twitch user response: %w", err))
	}
	if len(body.Data) == 0 {
		return "", platform.New(platform.ChannelNotFound, platform.Twitch, nil)
	}

	id := body.Data[0].ID
	c.idCache.Insert(login, id)
	return id, nil
}

// EmoteByID fetches and decodes one Twitch emote's image from its CDN.
func (c *Client) EmoteByID(id string) (*imagepipeline.Emote, error) {
	if hit, ok := c.emoteCache.Get(id); ok {
		return hit, nil
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/emoticons/v2/%s/default/dark/3.0", cdnBaseURL, id), nil)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.Twitch, err)
	}
	req.Header.Set("Accept", "image/png, image/webp, image/gif")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.Twitch, fmt.Errorf("requesting twitch emote image: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, platform.New(platform.EmoteNotFound, platform.Twitch, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, platform.New(platform.PlatformUpstreamError, platform.Twitch, fmt.Errorf("twitch emote cdn returned status %d", resp.StatusCode))
	}

	emote, err := imagepipeline.DecodeFromResponse(resp, id)
	if err != nil {
		return nil, err
	}

	c.emoteCache.Insert(id, emote)
	return emote, nil
}

type twitchEmote struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Format []string `json:"format"`
}

func (e twitchEmote) toChannelEmote() platform.ChannelEmote {
	animated := false
	for _, f := range e.Format {
		if f == "animated" {
			animated = true
		}
	}
	return platform.ChannelEmote{Platform: platform.Twitch, ID: e.ID, Name: e.Name, Animated: animated}
}

// GlobalCatalog fetches Twitch's global emote set once per process
// lifetime.
func (c *Client) GlobalCatalog() ([]platform.ChannelEmote, error) {
	return c.global.GetOrInit(func() ([]platform.ChannelEmote, error) {
		tok, err := c.token.Get()
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequest(http.MethodGet, apiBaseURL+"/helix/chat/emotes/global", nil)
		if err != nil {
			return nil, platform.New(platform.RequestFailure, platform.Twitch, err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Client-Id", c.clientID)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, platform.New(platform.RequestFailure, platform.Twitch, fmt.Errorf("requesting twitch global emotes: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, platform.New(platform.Unauthorized, platform.Twitch, nil)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, platform.New(platform.PlatformUpstreamError, platform.Twitch, fmt.Errorf("twitch global emotes returned status %d", resp.StatusCode))
		}

		var body struct {
			Data []twitchEmote `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, platform.New(platform.PlatformUpstreamError, platform.Twitch, fmt.Errorf("decoding twitch global emotes: %w", err))
		}

		emotes := make([]platform.ChannelEmote, 0, len(body.Data))
		for _, e := range body.Data {
			emotes = append(emotes, e.toChannelEmote())
		}

		logger.Info("initialized twitch global emote catalog", zap.Int("count", len(emotes)))
		return emotes, nil
	})
}
