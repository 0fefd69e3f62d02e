package webserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Juliapixel/twitch-emote-api/internal/aggregator"
	"github.com/Juliapixel/twitch-emote-api/internal/imagepipeline"
	"github.com/Juliapixel/twitch-emote-api/internal/platform"
	"github.com/Juliapixel/twitch-emote-api/internal/version"
)

type handlers struct {
	manager *aggregator.Manager
}

const (
	globalInfoCacheControl = "max-age=86400, public"
	infoCacheControl       = "max-age=54000, public"
)

func (h *handlers) routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /version": h.version,

		"GET /user/{username}": h.channelEmotes,

		"GET /emote/twitch/{id}/atlas.webp": h.twitchAtlas,
		"GET /emote/twitch/{id}/{frame}":    h.twitchFrame,
		"GET /emote/twitch/{id}":            h.twitchInfo,

		"GET /emote/globals/{platform}/{name}/atlas.webp": h.globalAtlas,
		"GET /emote/globals/{platform}/{name}/{frame}":    h.globalFrame,
		"GET /emote/globals/{platform}/{name}":            h.globalInfo,
		"GET /emote/globals/{platform}":                   h.globalCatalog,

		// The channel atlas shares the {frame} pattern: a literal
		// ".../{name}/atlas.webp" pattern would overlap
		// "/emote/twitch/{id}/{frame}" with neither more specific, which
		// ServeMux rejects at registration.
		"GET /emote/{channel}/{name}/{frame}": func(w http.ResponseWriter, r *http.Request) {
			if r.PathValue("frame") == "atlas.webp" {
				h.channelAtlas(w, r)
				return
			}
			h.channelFrame(w, r)
		},
		"GET /emote/{channel}/{name}": h.channelInfo,
	}
}

func writeJSON(w http.ResponseWriter, cacheControl string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if pe, ok := err.(*platform.Error); ok {
		http.Error(w, pe.Error(), pe.Kind.StatusCode())
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// parseFrame validates the "case-insensitive suffix .webp" rule (spec §9)
// and parses the remaining prefix as a non-negative integer.
func parseFrame(segment string) (int, bool) {
	lower := strings.ToLower(segment)
	if !strings.HasSuffix(lower, ".webp") {
		return 0, false
	}
	digits := segment[:len(segment)-len(".webp")]
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func writeFrame(w http.ResponseWriter, emote *imagepipeline.Emote, n int) {
	if n < 0 || n >= len(emote.Frames) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	emote.Frames[n].WriteResponse(w)
}

func writeAtlas(w http.ResponseWriter, emote *imagepipeline.Emote) {
	if emote.Atlas == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	emote.Atlas.WriteResponse(w)
}

// --- /version ---

func (h *handlers) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "", version.Current())
}

// --- /user/{username} ---

func (h *handlers) channelEmotes(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.manager.ChannelCatalog(r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, "", catalog)
}

// --- /emote/{channel}/{name}... ---

func (h *handlers) resolveChannelEmote(w http.ResponseWriter, r *http.Request) (platform.ChannelEmote, bool) {
	catalog, err := h.manager.ChannelCatalog(r.PathValue("channel"))
	if err != nil {
		writeError(w, err)
		return platform.ChannelEmote{}, false
	}
	info, ok := catalog[r.PathValue("name")]
	if !ok {
		writeError(w, platform.New(platform.EmoteNotFound, 0, nil))
		return platform.ChannelEmote{}, false
	}
	return info, true
}

func (h *handlers) channelInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := h.resolveChannelEmote(w, r)
	if !ok {
		return
	}
	emote, err := h.manager.Emote(info.Platform, info.ID, &info.Animated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, infoCacheControl, imagepipeline.NewInfo(info.Name, info.Platform, info.Animated, emote))
}

func (h *handlers) channelFrame(w http.ResponseWriter, r *http.Request) {
	n, ok := parseFrame(r.PathValue("frame"))
	if !ok {
		http.Error(w, platform.EmoteNotFound.String(), http.StatusNotFound)
		return
	}
	info, ok := h.resolveChannelEmote(w, r)
	if !ok {
		return
	}
	emote, err := h.manager.Emote(info.Platform, info.ID, &info.Animated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFrame(w, emote, n)
}

func (h *handlers) channelAtlas(w http.ResponseWriter, r *http.Request) {
	info, ok := h.resolveChannelEmote(w, r)
	if !ok {
		return
	}
	emote, err := h.manager.Emote(info.Platform, info.ID, &info.Animated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAtlas(w, emote)
}

// --- /emote/twitch/{id}... ---

func (h *handlers) twitchInfo(w http.ResponseWriter, r *http.Request) {
	emote, err := h.manager.Emote(platform.Twitch, r.PathValue("id"), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, infoCacheControl, imagepipeline.NewTwitchInfo(emote))
}

func (h *handlers) twitchFrame(w http.ResponseWriter, r *http.Request) {
	n, ok := parseFrame(r.PathValue("frame"))
	if !ok {
		http.Error(w, platform.EmoteNotFound.String(), http.StatusNotFound)
		return
	}
	emote, err := h.manager.Emote(platform.Twitch, r.PathValue("id"), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFrame(w, emote, n)
}

func (h *handlers) twitchAtlas(w http.ResponseWriter, r *http.Request) {
	emote, err := h.manager.Emote(platform.Twitch, r.PathValue("id"), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAtlas(w, emote)
}

// --- /emote/globals/{platform}... ---

func (h *handlers) parsePlatform(w http.ResponseWriter, r *http.Request) (platform.Platform, bool) {
	p, ok := platform.ParsePlatform(r.PathValue("platform"))
	if !ok {
		http.Error(w, platform.EmoteNotFound.String(), http.StatusNotFound)
		return 0, false
	}
	return p, true
}

func (h *handlers) globalCatalog(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parsePlatform(w, r)
	if !ok {
		return
	}
	catalog, err := h.manager.GlobalCatalog(p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, "", catalog)
}

func (h *handlers) resolveGlobalEmote(w http.ResponseWriter, r *http.Request) (platform.ChannelEmote, bool) {
	p, ok := h.parsePlatform(w, r)
	if !ok {
		return platform.ChannelEmote{}, false
	}
	catalog, err := h.manager.GlobalCatalog(p)
	if err != nil {
		writeError(w, err)
		return platform.ChannelEmote{}, false
	}
	info, ok := catalog[r.PathValue("name")]
	if !ok {
		writeError(w, platform.New(platform.EmoteNotFound, p, nil))
		return platform.ChannelEmote{}, false
	}
	return info, true
}

func (h *handlers) globalInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := h.resolveGlobalEmote(w, r)
	if !ok {
		return
	}
	emote, err := h.manager.Emote(info.Platform, info.ID, &info.Animated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, globalInfoCacheControl, imagepipeline.NewInfo(info.Name, info.Platform, info.Animated, emote))
}

func (h *handlers) globalFrame(w http.ResponseWriter, r *http.Request) {
	n, ok := parseFrame(r.PathValue("frame"))
	if !ok {
		http.Error(w, platform.EmoteNotFound.String(), http.StatusNotFound)
		return
	}
	info, ok := h.resolveGlobalEmote(w, r)
	if !ok {
		return
	}
	emote, err := h.manager.Emote(info.Platform, info.ID, &info.Animated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFrame(w, emote, n)
}

func (h *handlers) globalAtlas(w http.ResponseWriter, r *http.Request) {
	info, ok := h.resolveGlobalEmote(w, r)
	if !ok {
		return
	}
	emote, err := h.manager.Emote(info.Platform, info.ID, &info.Animated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAtlas(w, emote)
}
