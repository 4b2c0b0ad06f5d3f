package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"notify/internal/catalog"
	"notify/internal/config"
	"notify/internal/i18n"
	"notify/internal/session"
	"notify/internal/view"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *http.Client) {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	cat := catalog.Sample()
	tr := i18n.NewTranslator(cfg.Locale)
	views, err := view.NewRenderer(tr, time.UTC)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	srv := NewServer(cfg, cat, session.NewStore(cat, cfg.HeaderHeight), views, tr)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return ts, &http.Client{Jar: jar}
}

func getBody(t *testing.T, c *http.Client, u string) string {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", u, resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func postForm(t *testing.T, c *http.Client, u string, form url.Values) string {
	t.Helper()
	resp, err := c.PostForm(u, form)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s: status %d after redirect", u, resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func TestHealth(t *testing.T) {
	ts, c := newTestServer(t, nil)
	if got := getBody(t, c, ts.URL+"/health"); got != "OK" {
		t.Errorf("health = %q", got)
	}
}

func TestIndexListsAllEvents(t *testing.T) {
	ts, c := newTestServer(t, nil)
	out := getBody(t, c, ts.URL+"/")
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		if !strings.Contains(out, `data-event-id="`+id+`"`) {
			t.Errorf("event %s missing from initial page", id)
		}
	}
	if strings.Contains(out, "data-scroll-target") {
		t.Error("initial page requests a scroll")
	}
}

func TestSearchFiltersAndScrollsOnce(t *testing.T) {
	ts, c := newTestServer(t, nil)

	out := postForm(t, c, ts.URL+"/search", url.Values{"q": {"tech"}})
	if !strings.Contains(out, `data-event-id="2"`) || strings.Contains(out, `data-event-id="1"`) {
		t.Error("search result not filtered to the tech summit")
	}
	if !strings.Contains(out, `data-scroll-target="upcoming-events"`) {
		t.Error("scroll request not delivered after search")
	}

	// The request is consumed by the first render.
	if strings.Contains(getBody(t, c, ts.URL+"/"), "data-scroll-target") {
		t.Error("scroll request delivered twice")
	}
}

func TestSearchNoResults(t *testing.T) {
	ts, c := newTestServer(t, nil)
	out := postForm(t, c, ts.URL+"/search", url.Values{"q": {"xyz"}})
	if !strings.Contains(out, "No events found. Try adjusting your filters.") {
		t.Error("no-results message missing")
	}
}

func TestSelectAndClear(t *testing.T) {
	ts, c := newTestServer(t, nil)

	out := postForm(t, c, ts.URL+"/select", url.Values{"id": {"3"}})
	if !strings.Contains(out, `role="dialog"`) || !strings.Contains(out, "Food &amp; Wine Expo") {
		t.Fatal("overlay not shown after select")
	}

	out = postForm(t, c, ts.URL+"/selection/clear", nil)
	if strings.Contains(out, `role="dialog"`) {
		t.Error("overlay still shown after clear")
	}
}

func TestFavoriteDoesNotSelect(t *testing.T) {
	ts, c := newTestServer(t, nil)

	postForm(t, c, ts.URL+"/favorite", url.Values{"id": {"1"}})

	var st sessionResponse
	resp, err := c.Get(ts.URL + "/api/session")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if len(st.FavoriteIDs) != 1 || st.FavoriteIDs[0] != "1" {
		t.Errorf("favorites = %v", st.FavoriteIDs)
	}
	if st.SelectedEventID != nil {
		t.Errorf("favorite toggle selected %v", *st.SelectedEventID)
	}
	if len(st.FilteredIDs) != 6 {
		t.Errorf("filtered = %v", st.FilteredIDs)
	}
}

func TestMenuToggle(t *testing.T) {
	ts, c := newTestServer(t, nil)
	out := postForm(t, c, ts.URL+"/menu/toggle", nil)
	if strings.Contains(out, `class="mobile-menu" hidden`) {
		t.Error("menu still hidden after toggle")
	}
	out = postForm(t, c, ts.URL+"/menu/toggle", nil)
	if !strings.Contains(out, `class="mobile-menu" hidden`) {
		t.Error("menu open after second toggle")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	ts, a := newTestServer(t, nil)
	postForm(t, a, ts.URL+"/search", url.Values{"q": {"boston"}})

	jar, _ := cookiejar.New(nil)
	b := &http.Client{Jar: jar}
	if out := getBody(t, b, ts.URL+"/"); !strings.Contains(out, `data-event-id="1"`) {
		t.Error("second browser sees the first browser's search")
	}
}

func TestAPIEvents(t *testing.T) {
	ts, c := newTestServer(t, nil)

	resp, err := c.Get(ts.URL + "/api/events?q=free")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content-type = %q", ct)
	}
	var got eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.SearchTerm != "free" || got.Count != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestAPIEventLookup(t *testing.T) {
	ts, c := newTestServer(t, nil)

	resp, err := c.Get(ts.URL + "/api/events/5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var ev struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.ID != "5" || ev.Name != "City Marathon" {
		t.Errorf("event = %+v", ev)
	}

	resp, err = c.Get(ts.URL + "/api/events/ghost")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	ts, c := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "Événements à venir") {
		t.Error("page not rendered in french")
	}
}

func TestBasicAuth(t *testing.T) {
	ts, c := newTestServer(t, func(cfg *config.Config) {
		cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	})

	resp, err := c.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	// Health stays open.
	if got := getBody(t, c, ts.URL+"/health"); got != "OK" {
		t.Errorf("health = %q", got)
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("abc", "abc") {
		t.Error("equal strings reported different")
	}
	if secureCompare("abc", "abd") || secureCompare("abc", "ab") {
		t.Error("different strings reported equal")
	}
}

func dialLive(t *testing.T, ts *httptest.Server, c *http.Client) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	conn, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPClient: c})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg liveMessage) liveReply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply liveReply
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestLiveChannel(t *testing.T) {
	ts, c := newTestServer(t, nil)
	getBody(t, c, ts.URL+"/")
	conn := dialLive(t, ts, c)

	reply := roundTrip(t, conn, liveMessage{Type: "search", Term: "music"})
	if reply.Type != "render" || reply.SearchTerm != "music" {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.Scroll == nil || reply.Scroll.Target != session.ResultsAnchor || reply.Scroll.HeaderOffset != 64 {
		t.Errorf("scroll = %+v", reply.Scroll)
	}
	if !strings.Contains(reply.HTML, `data-event-id="1"`) || strings.Contains(reply.HTML, `data-event-id="2"`) {
		t.Error("live fragment not filtered")
	}

	reply = roundTrip(t, conn, liveMessage{Type: "select", ID: "1"})
	if reply.Scroll != nil {
		t.Error("select emitted a scroll request")
	}
	if !strings.Contains(reply.HTML, `role="dialog"`) {
		t.Error("overlay missing after live select")
	}

	reply = roundTrip(t, conn, liveMessage{Type: "menu"})
	if !reply.MenuOpen {
		t.Error("menu not open after live toggle")
	}

	reply = roundTrip(t, conn, liveMessage{Type: "bogus"})
	if reply.Type != "error" {
		t.Errorf("unknown message answered with %q", reply.Type)
	}

	// The websocket shares the cookie session with the form routes.
	out := getBody(t, c, ts.URL+"/")
	if !strings.Contains(out, `value="music"`) || !strings.Contains(out, `role="dialog"`) {
		t.Error("live actions not visible on page reload")
	}
}

func TestLiveMalformedMessage(t *testing.T) {
	ts, c := newTestServer(t, nil)
	conn := dialLive(t, ts, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	var reply liveReply
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != "error" {
		t.Errorf("reply = %+v", reply)
	}

	// The connection stays usable.
	if got := roundTrip(t, conn, liveMessage{Type: "clear"}); got.Type != "render" {
		t.Errorf("reply after error = %+v", got)
	}
}
