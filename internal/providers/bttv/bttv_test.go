package bttv

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withAPIServer(t *testing.T, handler http.Handler) *http.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	orig := apiBaseURL
	apiBaseURL = srv.URL
	t.Cleanup(func() { apiBaseURL = orig })
	return srv.Client()
}

func TestChannelCatalogMergesSharedAndChannelEmotes(t *testing.T) {
	httpClient := withAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"sharedEmotes":[{"id":"s1","code":"SharedEmote","animated":false}],
			"channelEmotes":[{"id":"c1","code":"ChannelEmote","animated":true}]
		}`)
	}))

	c := New(httpClient)
	emotes, err := c.ChannelCatalog("123")
	if err != nil {
		t.Fatalf("ChannelCatalog failed: %v", err)
	}
	if len(emotes) != 2 {
		t.Fatalf("expected both shared and channel emotes: got %d", len(emotes))
	}

	names := map[string]bool{}
	for _, e := range emotes {
		names[e.Name] = true
	}
	if !names["SharedEmote"] || !names["ChannelEmote"] {
		t.Fatalf("missing expected emote names: got %+v", emotes)
	}
}

func TestChannelCatalogNotFoundStatusIsUpstreamError(t *testing.T) {
	httpClient := withAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	c := New(httpClient)
	if _, err := c.ChannelCatalog("123"); err == nil {
		t.Fatalf("expected an error for a non-200 upstream response")
	}
}
