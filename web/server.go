package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thewug/aurora/audio"
	"github.com/thewug/aurora/auth"
	"github.com/thewug/aurora/raffle"
	"github.com/thewug/aurora/reveal"
	"github.com/thewug/aurora/seeded"
	"github.com/thewug/aurora/store"
)

// memoLimit bounds how many seeds a server remembers.
const memoLimit = 64

type Deps struct {
	Catalog    *store.Catalog
	Flags      store.FlagStore
	Sessions   *auth.Codec
	SeedPrefix string
	Reveal     reveal.Options

	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	deps Deps
	ctx  context.Context
	memo *raffle.Memo[store.Winner, store.Prize]
	hub  *RevealHub

	upgrader websocket.Upgrader
}

// NewServer starts the reveal hub, which lives until ctx ends.
func NewServer(ctx context.Context, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Flags == nil {
		deps.Flags = store.NewMemoryFlags()
	}

	s := &Server{
		deps: deps,
		ctx:  ctx,
		memo: raffle.NewMemo(deps.Catalog.Winners, deps.Catalog.Prizes, memoLimit),
		hub:  NewRevealHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	go s.hub.Run(ctx)
	return s
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(PATH_HOME, s.Home)
	mux.HandleFunc(PATH_START, RedirectToReveal)
	mux.HandleFunc(PATH_REVEAL, s.Reveal)
	mux.HandleFunc(PATH_PRIZES, s.Prizes)
	mux.HandleFunc(PATH_ADMIN, s.Admin)
	mux.HandleFunc(PATH_API_DRAW, s.Draw)
	mux.HandleFunc(PATH_API_MUTE, s.Mute)
	mux.HandleFunc(PATH_WEBSOCKET, s.Socket)
	return mux
}

func (s *Server) Hub() *RevealHub {
	return s.hub
}

// Seed is the request's explicit seed, or the event's daily seed.
func (s *Server) Seed(req *http.Request) string {
	if seed := req.FormValue("seed"); seed != "" {
		return seed
	}

	prefix := s.deps.Catalog.Event.SeedPrefix
	if prefix == "" {
		prefix = s.deps.SeedPrefix
	}
	day := s.deps.Catalog.Event.DrawnOn
	if day.IsZero() {
		day = s.deps.Now()
	}
	return raffle.DailySeed(prefix, day)
}

func (s *Server) eventName() string {
	if s.deps.Catalog.Event.Name != "" {
		return s.deps.Catalog.Event.Name
	}
	return "Winner Reveal"
}

func (s *Server) session(w http.ResponseWriter, req *http.Request) (*auth.Session, bool) {
	session, err := s.deps.Sessions.Ensure(w, req)
	if err != nil {
		log.Printf("web: session: %v", err)
		http.Error(w, "Couldn't start a session", 500)
		return nil, false
	}
	return session, true
}

func (s *Server) Home(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != PATH_HOME {
		http.NotFound(w, req)
		return
	}

	session, ok := s.session(w, req)
	if !ok {
		return
	}

	shown, err := s.deps.Flags.GetFlag(req.Context(), session.Id, store.FlagLoaderShown)
	if err != nil {
		log.Printf("web: read loader flag: %v", err)
	}
	if !shown {
		if err := s.deps.Flags.SetFlag(req.Context(), session.Id, store.FlagLoaderShown, true); err != nil {
			log.Printf("web: set loader flag: %v", err)
		}
	}

	render(w, homePage, struct {
		Title      string
		Event      string
		ShowLoader bool
		Seed       string
		Winners    int
		Prizes     int
		StartPath  string
		PrizesPath string
	}{
		Title:      s.eventName(),
		Event:      s.eventName(),
		ShowLoader: !shown,
		Seed:       req.FormValue("seed"),
		Winners:    len(s.deps.Catalog.Winners),
		Prizes:     len(s.deps.Catalog.Prizes),
		StartPath:  PATH_START,
		PrizesPath: PATH_PRIZES,
	})
}

func (s *Server) Reveal(w http.ResponseWriter, req *http.Request) {
	seed := s.Seed(req)
	if _, err := s.memo.Get(seed); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}

	session, ok := s.session(w, req)
	if !ok {
		return
	}
	muted, err := s.deps.Flags.GetFlag(req.Context(), session.Id, store.FlagMuted)
	if err != nil {
		log.Printf("web: read mute flag: %v", err)
	}

	render(w, revealPage, struct {
		Title         string
		SocketPath    string
		Muted         bool
		ReducedMotion bool
	}{
		Title:         s.eventName(),
		SocketPath:    WebsocketURL(seed),
		Muted:         muted,
		ReducedMotion: s.deps.Reveal.ReducedMotion,
	})
}

func (s *Server) Prizes(w http.ResponseWriter, req *http.Request) {
	render(w, prizesPage, struct {
		Title    string
		Prizes   []store.Prize
		HomePath string
	}{
		Title:    "Prizes",
		Prizes:   s.deps.Catalog.Prizes,
		HomePath: PATH_HOME,
	})
}

// Announcement tells everyone watching Seed who was picked.
type Announcement struct {
	Type   string       `json:"type"`
	Seed   string       `json:"seed"`
	Winner store.Winner `json:"winner"`
	Prize  store.Prize  `json:"prize"`
}

// Admin shows the roster and today's pick. POST announces the pick to the
// seed's viewers and comes back here.
func (s *Server) Admin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodPost {
		http.Error(w, "GET or POST only", 405)
		return
	}

	seed := s.Seed(req)
	r, err := s.memo.Get(seed)
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}

	if req.Method == http.MethodPost {
		j, err := json.Marshal(Announcement{Type: "pick", Seed: seed, Winner: r.Winner, Prize: r.Prize})
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		s.hub.Publish(seed, j)
		http.Redirect(w, req, AdminURL(seed), 303)
		return
	}

	render(w, adminPage, struct {
		Title      string
		Event      string
		Winners    []store.Winner
		Entries    int
		Cities     int
		Viewers    int
		Seed       string
		Pick       store.Winner
		Prize      store.Prize
		RevealPath string
		AdminPath  string
	}{
		Title:      "Admin",
		Event:      s.eventName(),
		Winners:    s.deps.Catalog.Winners,
		Entries:    s.deps.Catalog.TotalEntries(),
		Cities:     s.deps.Catalog.Cities(),
		Viewers:    s.hub.Viewers(seed),
		Seed:       seed,
		Pick:       r.Winner,
		Prize:      r.Prize,
		RevealPath: RevealURL(seed),
		AdminPath:  PATH_ADMIN,
	})
}

type DrawResponse struct {
	Seed    string         `json:"seed"`
	Winner  store.Winner   `json:"winner"`
	Prize   store.Prize    `json:"prize"`
	Winners []store.Winner `json:"winners"`
	Prizes  []store.Prize  `json:"prizes"`
}

func (s *Server) Draw(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "GET only", 405)
		return
	}

	seed := s.Seed(req)
	r, err := s.memo.Get(seed)
	if errors.Is(err, seeded.ErrInvalidArgument) {
		http.Error(w, err.Error(), 400)
		return
	} else if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	writeJSON(w, DrawResponse{
		Seed:    r.Seed,
		Winner:  r.Winner,
		Prize:   r.Prize,
		Winners: r.ShuffledWinners,
		Prizes:  r.ShuffledPrizes,
	})
}

type MuteResponse struct {
	Muted bool `json:"muted"`
}

// Mute reports the session's mute flag. POST toggles it first.
func (s *Server) Mute(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodPost {
		http.Error(w, "GET or POST only", 405)
		return
	}

	session, ok := s.session(w, req)
	if !ok {
		return
	}

	muted, err := s.deps.Flags.GetFlag(req.Context(), session.Id, store.FlagMuted)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if req.Method == http.MethodPost {
		muted = !muted
		if err := s.deps.Flags.SetFlag(req.Context(), session.Id, store.FlagMuted, muted); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}

	writeJSON(w, MuteResponse{Muted: muted})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: write json: %v", err)
	}
}

type stageMessage struct {
	Type string `json:"type"`
	reveal.Event[store.Winner, store.Prize]
}

type cueMessage struct {
	Type string    `json:"type"`
	Cue  audio.Cue `json:"cue"`
}

// cuePlayer tells the browser which cues to play. Mute state is kept by the
// embedded Nop and saved through its OnMute.
type cuePlayer struct {
	*audio.Nop
	send func([]byte)
}

func (p *cuePlayer) Play(c audio.Cue) bool {
	if !p.Nop.Play(c) {
		return false
	}
	j, err := json.Marshal(cueMessage{Type: "cue", Cue: c})
	if err == nil {
		p.send(j)
	}
	return true
}

// Socket upgrades to a websocket and plays one reveal of the request's seed
// down it, advancing on {"type":"next"}.
func (s *Server) Socket(w http.ResponseWriter, req *http.Request) {
	seed := s.Seed(req)
	result, err := s.memo.Fresh(seed)
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}

	// a websocket can't set cookies, so a visitor without one gets a
	// throwaway session
	session, err := s.deps.Sessions.Get(req)
	if err != nil {
		session = auth.NewSession()
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("web: upgrade: %v", err)
		return
	}

	client := NewClient(s.hub, conn, seed, session.Id)
	if !s.hub.Join(client) {
		conn.Close()
		return
	}
	go client.WritePump()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	send := func(j []byte) {
		select {
		case client.Outgoing <- j:
		case <-ctx.Done():
		}
	}

	muted, err := s.deps.Flags.GetFlag(ctx, session.Id, store.FlagMuted)
	if err != nil {
		log.Printf("web: read mute flag: %v", err)
	}
	player := &cuePlayer{
		Nop: audio.NewNop(muted, func(m bool) {
			if err := s.deps.Flags.SetFlag(ctx, session.Id, store.FlagMuted, m); err != nil {
				log.Printf("web: save mute flag: %v", err)
			}
		}),
		send: send,
	}

	director := reveal.NewDirector(result, player, s.deps.Reveal, func(e reveal.Event[store.Winner, store.Prize]) {
		j, err := json.Marshal(stageMessage{Type: "stage", Event: e})
		if err != nil {
			log.Printf("web: marshal event: %v", err)
			return
		}
		send(j)
	})

	finished := make(chan error, 1)
	go func() {
		finished <- director.Run(ctx)
	}()

	client.ReadPump(func(cmd Command) {
		switch cmd.Type {
		case "next":
			director.Next()
		case "mute":
			player.SetMuted(cmd.Muted)
		default:
			log.Printf("web: client %s: unknown command %q", client.Id, cmd.Type)
		}
	})

	cancel()
	if err := <-finished; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("web: reveal %s: %v", seed, err)
	}
	if !s.hub.Leave(client) {
		conn.Close()
	}
}
