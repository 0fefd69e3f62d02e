package twitch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Juliapixel/twitch-emote-api/internal/platform"
	"github.com/Juliapixel/twitch-emote-api/internal/token"
)

func testHolder(t *testing.T) (*token.Holder, *http.Client) {
	t.Helper()
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"test-token","expires_in":3600}`)
	}))
	t.Cleanup(tokenSrv.Close)

	httpClient := tokenSrv.Client()
	holder, err := token.NewWithEndpoint(httpClient, "client-id", "client-secret", tokenSrv.URL)
	if err != nil {
		t.Fatalf("building test token holder failed: %v", err)
	}
	return holder, httpClient
}

func withAPIServer(t *testing.T, handler http.Handler) *http.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	orig := apiBaseURL
	apiBaseURL = srv.URL
	t.Cleanup(func() { apiBaseURL = orig })
	return srv.Client()
}

func TestChannelCatalogIsUnsupported(t *testing.T) {
	holder, httpClient := testHolder(t)
	c := New(httpClient, "client-id", holder)

	_, err := c.ChannelCatalog("somechannel")
	if err == nil {
		t.Fatalf("expected ChannelCatalog to return an error")
	}
	pe, ok := err.(*platform.Error)
	if !ok || pe.Kind != platform.TwitchChannelEmotesUnsupported {
		t.Fatalf("expected TwitchChannelEmotesUnsupported, got %v", err)
	}
}

func TestGetChannelIDCaches(t *testing.T) {
	holder, _ := testHolder(t)
	calls := 0
	httpClient := withAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"data":[{"id":"42"}]}`)
	}))

	c := New(httpClient, "client-id", holder)

	id, err := c.GetChannelID("someuser")
	if err != nil {
		t.Fatalf("GetChannelID failed: %v", err)
	}
	if id != "42" {
		t.Fatalf("unexpected id: got=%q want=%q", id, "42")
	}

	if _, err := c.GetChannelID("someuser"); err != nil {
		t.Fatalf("second GetChannelID call failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the second call to be served from cache: got %d upstream calls", calls)
	}
}

func TestGetChannelIDNotFound(t *testing.T) {
	holder, _ := testHolder(t)
	httpClient := withAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))

	c := New(httpClient, "client-id", holder)
	_, err := c.GetChannelID("ghost")
	if err == nil {
		t.Fatalf("expected an error for an empty data array")
	}
	pe, ok := err.(*platform.Error)
	if !ok || pe.Kind != platform.ChannelNotFound {
		t.Fatalf("expected ChannelNotFound, got %v", err)
	}
}
