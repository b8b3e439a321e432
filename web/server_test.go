package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thewug/aurora/auth"
	"github.com/thewug/aurora/raffle"
	"github.com/thewug/aurora/reveal"
	"github.com/thewug/aurora/store"
)

type instant struct {
	mu sync.Mutex
	n  int
}

func (c *instant) After(time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

var newYear = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func catalog(winners, prizes []string) *store.Catalog {
	c := &store.Catalog{Event: store.Event{Name: "Test Reveal", SeedPrefix: "aurora"}}
	for i, w := range winners {
		c.Winners = append(c.Winners, store.Winner{Id: i + 1, Name: w, City: "City " + w, Entries: i + 1})
	}
	for i, p := range prizes {
		c.Prizes = append(c.Prizes, store.Prize{Id: i + 1, Name: p, Emoji: "🎁"})
	}
	return c
}

func newServer(t *testing.T, c *store.Catalog) (*Server, *store.MemoryFlags) {
	t.Helper()
	codec, err := auth.NewCodec("test-key", "test-coder")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	flags := store.NewMemoryFlags()
	s := NewServer(ctx, Deps{
		Catalog:    c,
		Flags:      flags,
		Sessions:   codec,
		SeedPrefix: "aurora",
		Reveal:     reveal.Options{Clock: &instant{}},
		Now:        func() time.Time { return newYear },
	})
	return s, flags
}

func get(t *testing.T, h http.Handler, method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSeed(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A"}, []string{"X"}))

	req := httptest.NewRequest(http.MethodGet, "/api/draw?seed=custom", nil)
	if got := s.Seed(req); got != "custom" {
		t.Errorf("explicit seed = %q", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/draw", nil)
	if got := s.Seed(req); got != "aurora-Mon Jan 01 2024" {
		t.Errorf("daily seed = %q", got)
	}

	s.deps.Catalog.Event.DrawnOn = time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)
	s.deps.Catalog.Event.SeedPrefix = ""
	if got := s.Seed(req); got != "aurora-Fri Mar 08 2024" {
		t.Errorf("event day seed = %q", got)
	}
}

func TestHomeShowsLoaderOnce(t *testing.T) {
	s, flags := newServer(t, catalog([]string{"A", "B"}, []string{"X"}))
	mux := s.Routes()

	first := get(t, mux, http.MethodGet, "/")
	if first.Code != 200 {
		t.Fatalf("status = %d", first.Code)
	}
	if !strings.Contains(first.Body.String(), `id="loader"`) {
		t.Fatal("first visit did not show the loader")
	}
	cookies := first.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %+v", cookies)
	}

	second := get(t, mux, http.MethodGet, "/", cookies...)
	if strings.Contains(second.Body.String(), `id="loader"`) {
		t.Fatal("loader shown twice in one session")
	}
	if !strings.Contains(second.Body.String(), "Test Reveal") {
		t.Fatal("event name missing")
	}

	session, err := s.deps.Sessions.Get(func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(cookies[0])
		return r
	}())
	if err != nil {
		t.Fatal(err)
	}
	if shown, _ := flags.GetFlag(context.Background(), session.Id, store.FlagLoaderShown); !shown {
		t.Fatal("loader flag not stored")
	}

	fresh := get(t, mux, http.MethodGet, "/")
	if !strings.Contains(fresh.Body.String(), `id="loader"`) {
		t.Fatal("new session did not show the loader")
	}
}

func TestNotFound(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A"}, []string{"X"}))
	if w := get(t, s.Routes(), http.MethodGet, "/nope"); w.Code != 404 {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDrawAPI(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A", "B", "C"}, []string{"X", "Y", "Z"}))

	w := get(t, s.Routes(), http.MethodGet, PATH_API_DRAW)
	if w.Code != 200 {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got DrawResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Seed != "aurora-Mon Jan 01 2024" || got.Winner.Name != "A" || got.Prize.Name != "Y" {
		t.Fatalf("draw = %s %s %s", got.Seed, got.Winner.Name, got.Prize.Name)
	}

	want, _ := raffle.Draw(got.Seed, s.deps.Catalog.Winners, s.deps.Catalog.Prizes)
	for i := range want.ShuffledWinners {
		if got.Winners[i] != want.ShuffledWinners[i] {
			t.Fatalf("winners[%d] = %+v, want %+v", i, got.Winners[i], want.ShuffledWinners[i])
		}
	}

	if w := get(t, s.Routes(), http.MethodPost, PATH_API_DRAW); w.Code != 405 {
		t.Fatalf("POST status = %d", w.Code)
	}
}

func TestDrawAPIEmptyCatalog(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A"}, nil))
	if w := get(t, s.Routes(), http.MethodGet, PATH_API_DRAW); w.Code != 400 {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestMuteToggle(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A"}, []string{"X"}))
	mux := s.Routes()

	read := func(w *httptest.ResponseRecorder) bool {
		t.Helper()
		var m MuteResponse
		if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
			t.Fatal(err)
		}
		return m.Muted
	}

	w := get(t, mux, http.MethodGet, PATH_API_MUTE)
	if read(w) {
		t.Fatal("new session starts muted")
	}
	cookies := w.Result().Cookies()

	if !read(get(t, mux, http.MethodPost, PATH_API_MUTE, cookies...)) {
		t.Fatal("POST did not mute")
	}
	if !read(get(t, mux, http.MethodGet, PATH_API_MUTE, cookies...)) {
		t.Fatal("mute not remembered")
	}
	if read(get(t, mux, http.MethodPost, PATH_API_MUTE, cookies...)) {
		t.Fatal("second POST did not unmute")
	}
	if w := get(t, mux, http.MethodDelete, PATH_API_MUTE, cookies...); w.Code != 405 {
		t.Fatalf("DELETE status = %d", w.Code)
	}
}

func TestPages(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A", "B", "C"}, []string{"X", "Y", "Z"}))
	mux := s.Routes()

	tests := []struct {
		target string
		want   []string
	}{
		{PATH_PRIZES, []string{"<h2>X</h2>", "<h2>Y</h2>", "<h2>Z</h2>"}},
		{PATH_ADMIN, []string{"3 guides, 6 entries, 3 cities", "A wins", "aurora-Mon Jan 01 2024"}},
		{PATH_REVEAL + "?seed=abc", []string{`data-socket="/ws/reveal?seed=abc"`, `id="next"`}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, mux, http.MethodGet, tt.target)
			if w.Code != 200 {
				t.Fatalf("status = %d", w.Code)
			}
			body := w.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestStartRedirect(t *testing.T) {
	w := get(t, http.HandlerFunc(RedirectToReveal), http.MethodGet, "/start?seed=a+b")
	if w.Code != 303 || w.Header().Get("Location") != "/reveal?seed=a+b" {
		t.Fatalf("redirect = %d %q", w.Code, w.Header().Get("Location"))
	}
	if w := get(t, http.HandlerFunc(RedirectToReveal), http.MethodGet, "/start?seed=a%0Ab"); w.Code != 400 {
		t.Fatalf("multi-line seed status = %d", w.Code)
	}
}

func TestSocketReveal(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A", "B"}, []string{"X", "Y"}))
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WebsocketURL("abc")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	want, _ := raffle.Draw("abc", s.deps.Catalog.Winners, s.deps.Catalog.Prizes)
	pairs := want.Pairs()

	var results, viewers int
	cues := map[string]int{}
	for {
		var msg struct {
			Type   string       `json:"type"`
			Stage  reveal.Stage `json:"stage"`
			Index  int          `json:"index"`
			Winner store.Winner `json:"winner"`
			Prize  store.Prize  `json:"prize"`
			Cue    string       `json:"cue"`
			Count  int          `json:"count"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}

		switch msg.Type {
		case "viewers":
			viewers = msg.Count
			continue
		case "cue":
			cues[msg.Cue]++
			continue
		}

		if msg.Winner != pairs[msg.Index].Winner || msg.Prize != pairs[msg.Index].Prize {
			t.Fatalf("pair %d = %s/%s", msg.Index, msg.Winner.Name, msg.Prize.Name)
		}
		if msg.Stage == reveal.StageResults {
			results++
			if err := conn.WriteJSON(Command{Type: "next"}); err != nil {
				t.Fatal(err)
			}
		}
		if msg.Stage == reveal.StageDone {
			break
		}
	}

	if results != 2 {
		t.Errorf("results shown %d times, want 2", results)
	}
	if viewers != 1 {
		t.Errorf("viewers = %d, want 1", viewers)
	}
	if cues["reveal"] != 2 || cues["ambient"] != 1 {
		t.Errorf("cues = %v", cues)
	}
}

func TestAdminAnnounce(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A", "B", "C"}, []string{"X", "Y", "Z"}))
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+WebsocketURL("abc"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	type message struct {
		Type   string       `json:"type"`
		Count  int          `json:"count"`
		Seed   string       `json:"seed"`
		Winner store.Winner `json:"winner"`
		Prize  store.Prize  `json:"prize"`
	}
	read := func(kind string) message {
		t.Helper()
		for {
			var m message
			if err := conn.ReadJSON(&m); err != nil {
				t.Fatal(err)
			}
			if m.Type == kind {
				return m
			}
		}
	}
	if v := read("viewers"); v.Count != 1 {
		t.Fatalf("viewers = %d", v.Count)
	}

	resp, err := http.PostForm(srv.URL+PATH_ADMIN, url.Values{"seed": {"abc"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 || resp.Request.URL.RequestURI() != AdminURL("abc") {
		t.Fatalf("announce landed on %d %s", resp.StatusCode, resp.Request.URL)
	}

	want, _ := raffle.Draw("abc", s.deps.Catalog.Winners, s.deps.Catalog.Prizes)
	pick := read("pick")
	if pick.Seed != "abc" || pick.Winner != want.Winner || pick.Prize != want.Prize {
		t.Fatalf("announced %+v, want %s/%s", pick, want.Winner.Name, want.Prize.Name)
	}

	if w := get(t, s.Routes(), http.MethodDelete, PATH_ADMIN); w.Code != 405 {
		t.Fatalf("DELETE status = %d", w.Code)
	}
}

func TestSocketBadSeed(t *testing.T) {
	s, _ := newServer(t, catalog([]string{"A"}, nil))
	if w := get(t, s.Routes(), http.MethodGet, WebsocketURL("abc")); w.Code != 400 {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHubViewers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewRevealHub()
	go hub.Run(ctx)

	c := NewClient(hub, nil, "abc", "session")
	if !hub.Join(c) {
		t.Fatal("join failed")
	}
	var v Viewers
	if err := json.Unmarshal(<-c.Outgoing, &v); err != nil {
		t.Fatal(err)
	}
	if v.Count != 1 || hub.Viewers("abc") != 1 {
		t.Fatalf("viewers = %+v / %d", v, hub.Viewers("abc"))
	}

	hub.Publish("abc", []byte(`{"type":"hello"}`))
	hub.Publish("other", []byte(`{"type":"ignored"}`))
	if got := string(<-c.Outgoing); got != `{"type":"hello"}` {
		t.Fatalf("published = %s", got)
	}

	if !hub.Leave(c) {
		t.Fatal("leave failed")
	}
	for range c.Outgoing {
	}
	if n := hub.Viewers("abc"); n != 0 {
		t.Fatalf("viewers after leave = %d", n)
	}

	cancel()
	<-hub.done
	if hub.Join(NewClient(hub, nil, "abc", "session")) {
		t.Fatal("join succeeded on a stopped hub")
	}
}
