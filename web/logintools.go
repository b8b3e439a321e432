package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	PATH_HOME      = "/"
	PATH_START     = "/start"
	PATH_REVEAL    = "/reveal"
	PATH_PRIZES    = "/prizes"
	PATH_ADMIN     = "/admin"
	PATH_API_DRAW  = "/api/draw"
	PATH_API_MUTE  = "/api/mute"
	PATH_WEBSOCKET = "/ws/reveal"
)

func RevealURL(seed string) string {
	if seed == "" {
		return PATH_REVEAL
	}
	return fmt.Sprintf("%s?seed=%s", PATH_REVEAL, url.QueryEscape(seed))
}

func AdminURL(seed string) string {
	return fmt.Sprintf("%s?seed=%s", PATH_ADMIN, url.QueryEscape(seed))
}

func WebsocketURL(seed string) string {
	return fmt.Sprintf("%s?seed=%s", PATH_WEBSOCKET, url.QueryEscape(seed))
}

// RedirectToReveal sends the landing page's "start" button on to the
// reveal, carrying an explicit seed if one was given.
func RedirectToReveal(w http.ResponseWriter, req *http.Request) {
	seed := req.FormValue("seed")
	if strings.ContainsAny(seed, "\r\n") {
		http.Error(w, "Refusing to redirect with a multi-line seed", 400)
		return
	}
	http.Redirect(w, req, RevealURL(seed), 303)
}
