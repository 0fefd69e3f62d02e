// Package ffz implements the FrankerFaceZ provider client (spec §4.4.4).
package ffz

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
	apiBaseURL = "https://api.frankerfacez.com"
	cdnBaseURL = "https://cdn.frankerfacez.com"
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

// flexID accepts an id field that upstream sends as either a JSON number
// or a JSON string across different endpoints, and normalizes it to a
// Go string (spec §4.4.4, "FFZ id polymorphism").
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// ffzEmoteRaw is one upstream emoticon object. AnimatedURLs keeps the raw
// "animated" sibling of "urls" that FFZ sends in both the room and
// global-set responses; a present, non-null value marks the emote as
// animated.
type ffzEmoteRaw struct {
	ID       flexID          `json:"id"`
	Name     string          `json:"name"`
	AnimatedURLs json.RawMessage `json:"animated"`
}

func (e ffzEmoteRaw) toChannelEmote() platform.ChannelEmote {
	return platform.ChannelEmote{
		Platform: platform.FrankerFaceZ,
		ID:       string(e.ID),
		Name:     e.Name,
		Animated: len(e.AnimatedURLs) > 0 && string(e.AnimatedURLs) != "null",
	}
}

type ffzSet struct {
	ID         flexID        `json:"id"`
	Emoticons  []ffzEmoteRaw `json:"emoticons"`
}

type roomEmotes struct {
	Sets map[string]ffzSet `json:"sets"`
}

// ChannelCatalog fetches and flattens every emote set in the channel's
// FFZ room.
func (c *Client) ChannelCatalog(twitchID string) ([]platform.ChannelEmote, error) {
	if hit, ok := c.userCache.Get(twitchID); ok {
		return hit, nil
	}

	resp, err := c.http.Get(fmt.Sprintf("%s/v1/room/id/%s", apiBaseURL, twitchID))
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.FrankerFaceZ, fmt.Errorf("requesting ffz channel emotes: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, platform.New(platform.PlatformUpstreamError, platform.FrankerFaceZ, fmt.Errorf("ffz channel emotes returned status %d", resp.StatusCode))
	}

	var body roomEmotes
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, platform.New(platform.PlatformUpstreamError, platform.FrankerFaceZ, fmt.Errorf("decoding ffz channel emotes: %w", err))
	}

	emotes := flattenSets(body.Sets)
	c.userCache.Insert(twitchID, emotes)
	return emotes, nil
}

func flattenSets(sets map[string]ffzSet) []platform.ChannelEmote {
	out := []platform.ChannelEmote{}
	for _, set := range sets {
		for _, e := range set.Emoticons {
			out = append(out, e.toChannelEmote())
		}
	}
	return out
}

// EmoteByID fetches and decodes one FFZ emote's image. If animated is
// known (carried through from a channel or global catalog lookup) the
// animated CDN URL is used directly, avoiding the metadata probe this
// method otherwise has to make for a cold-start by-id lookup.
func (c *Client) EmoteByID(id string, animated *bool) (*imagepipeline.Emote, error) {
	if hit, ok := c.emoteCache.Get(id); ok {
		return hit, nil
	}

	isAnimated := false
	if animated != nil {
		isAnimated = *animated
	} else {
		probed, err := c.probeAnimated(id)
		if err != nil {
			return nil, err
		}
		isAnimated = probed
	}

	url := fmt.Sprintf("%s/emote/%s/4", cdnBaseURL, id)
	if isAnimated {
		url = fmt.Sprintf("%s/emote/%s/animated/4", cdnBaseURL, id)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.FrankerFaceZ, err)
	}
	req.Header.Set("Accept", "image/png, image/webp, image/gif")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, platform.New(platform.RequestFailure, platform.FrankerFaceZ, fmt.Errorf("requesting ffz emote image: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, platform.New(platform.EmoteNotFound, platform.FrankerFaceZ, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, platform.New(platform.PlatformUpstreamError, platform.FrankerFaceZ, fmt.Errorf("ffz emote cdn returned status %d", resp.StatusCode))
	}

	emote, err := imagepipeline.DecodeFromResponse(resp, id)
	if err != nil {
		return nil, err
	}

	c.emoteCache.Insert(id, emote)
	return emote, nil
}

// probeAnimated issues the extra metadata request spec §4.4.4 and §9
// describe: GET /v1/emote/{id}, 404 means the emote doesn't exist at
// all.
func (c *Client) probeAnimated(id string) (bool, error) {
	resp, err := c.http.Get(fmt.Sprintf("%s/v1/emote/%s", apiBaseURL, id))
	if err != nil {
		return false, platform.New(platform.RequestFailure, platform.FrankerFaceZ, fmt.Errorf("probing ffz emote metadata: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, platform.New(platform.EmoteNotFound, platform.FrankerFaceZ, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return false, platform.New(platform.PlatformUpstreamError, platform.FrankerFaceZ, fmt.Errorf("ffz emote metadata returned status %d", resp.StatusCode))
	}

	var body struct {
		Emote ffzEmoteRaw `json:"emote"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, platform.New(platform.PlatformUpstreamError, platform.FrankerFaceZ, fmt.Errorf("decoding ffz emote metadata: %w", err))
	}

	return len(body.Emote.AnimatedURLs) > 0 && string(body.Emote.AnimatedURLs) != "null", nil
}

type defaultSets struct {
	DefaultSets []flexID          `json:"default_sets"`
	Sets        map[string]ffzSet `json:"sets"`
}

// GlobalCatalog fetches FFZ's global default emote sets once per process
// lifetime, keeping only sets whose id is listed in default_sets.
func (c *Client) GlobalCatalog() ([]platform.ChannelEmote, error) {
	return c.global.GetOrInit(func() ([]platform.ChannelEmote, error) {
		resp, err := c.http.Get(apiBaseURL + "/v1/set/global/ids")
		if err != nil {
			return nil, platform.New(platform.RequestFailure, platform.FrankerFaceZ, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, platform.New(platform.PlatformUpstreamError, platform.FrankerFaceZ, fmt.Errorf("ffz global sets returned status %d", resp.StatusCode))
		}

		var body defaultSets
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, platform.New(platform.PlatformUpstreamError, platform.FrankerFaceZ, fmt.Errorf("decoding ffz global sets: %w", err))
		}

		allowed := make(map[string]struct{}, len(body.DefaultSets))
		for _, id := range body.DefaultSets {
			allowed[string(id)] = struct{}{}
		}

		out := []platform.ChannelEmote{}
		for _, set := range body.Sets {
			if _, ok := allowed[string(set.ID)]; !ok {
				continue
			}
			for _, e := range set.Emoticons {
				out = append(out, e.toChannelEmote())
			}
		}

		logger.Info("initialized ffz global emote catalog", zap.Int("count", len(out)))
		return out, nil
	})
}
