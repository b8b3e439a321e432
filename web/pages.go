package web

import (
	"html/template"
	"io"
	"log"
	"net/http"
)

func templateWrite(w *io.PipeWriter, t *template.Template, data interface{}) {
	w.CloseWithError(t.Execute(w, data))
}

// render streams t to w through a pipe, the same way for every page.
func render(w http.ResponseWriter, t *template.Template, data interface{}) {
	rp, wp := io.Pipe()
	go templateWrite(wp, t, data)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.Copy(w, rp); err != nil {
		log.Printf("web: render %s: %v", t.Name(), err)
	}
	rp.Close()
}

const pageHead = `{{define "head"}}<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body { background: #064e3b; color: #ecfdf5; font-family: sans-serif; margin: 0; }
main { max-width: 48rem; margin: 0 auto; padding: 2rem; }
a, button { color: #fbbf24; }
.card { background: #065f46; border-radius: 1rem; padding: 1rem; margin: 1rem 0; }
.emoji { font-size: 3rem; }
#loader { position: fixed; inset: 0; background: #022c22; display: flex; align-items: center; justify-content: center; }
#loader.gone { display: none; }
#stage { text-transform: uppercase; letter-spacing: .2em; }
#progress { height: .5rem; background: #10b981; width: 0; }
#confetti span { position: fixed; width: .5rem; height: .5rem; }
</style></head><body><main>{{end}}`

const pageFoot = `{{define "foot"}}</main></body></html>{{end}}`

func page(name, body string) *template.Template {
	t := template.Must(template.New(name).Parse(pageHead))
	template.Must(t.Parse(pageFoot))
	return template.Must(t.Parse(body))
}

var homePage = page("homepage", `{{template "head" .}}
{{if .ShowLoader}}<div id="loader"><p>Loading {{.Event}}...</p></div>
<script>setTimeout(function () { document.getElementById("loader").className = "gone"; }, 3000);</script>{{end}}
<h1>{{.Event}}</h1>
<p>{{.Winners}} guides are in the draw for {{.Prizes}} prizes.</p>
<form method="post" action="{{.StartPath}}">
<input type="hidden" name="seed" value="{{.Seed}}">
<input type="submit" value="Reveal the winners">
</form>
<p><a href="{{.PrizesPath}}">See the prizes</a></p>
{{template "foot"}}`)

var prizesPage = page("prizespage", `{{template "head" .}}
<h1>Prizes</h1>
{{range .Prizes}}<div class="card">
<span class="emoji">{{.Emoji}}</span>
<h2>{{.Name}}</h2>
<p>{{.Description}}</p>
<p>{{.Value}}{{if .Rarity}} &middot; {{.Rarity}}{{end}}</p>
</div>{{end}}
<p><a href="{{.HomePath}}">Back</a></p>
{{template "foot"}}`)

var adminPage = page("adminpage", `{{template "head" .}}
<h1>{{.Event}}: roster</h1>
<p>{{len .Winners}} guides, {{.Entries}} entries, {{.Cities}} cities. {{.Viewers}} watching today's reveal.</p>
<div class="card">
<h2>Today's pick</h2>
<p>Seed <code>{{.Seed}}</code></p>
<p>{{.Pick.Name}} wins {{.Prize.Emoji}} {{.Prize.Name}}</p>
<p><a href="{{.RevealPath}}">Open the reveal</a></p>
<form method="post" action="{{.AdminPath}}">
<input type="hidden" name="seed" value="{{.Seed}}">
<input type="submit" value="Announce to viewers">
</form>
</div>
<table>
<tr><th>#</th><th>Name</th><th>City</th><th>Entries</th></tr>
{{range .Winners}}<tr><td>{{.Id}}</td><td>{{.Name}}</td><td>{{.City}}</td><td>{{.Entries}}</td></tr>
{{end}}</table>
{{template "foot"}}`)

var revealPage = page("revealpage", `{{template "head" .}}
<div id="reveal" data-socket="{{.SocketPath}}">
<p id="stage">loading</p>
<div id="progress"></div>
<div class="card" id="pair" hidden>
<h1 id="winner"></h1>
<p><span class="emoji" id="emoji"></span> <span id="prize"></span></p>
</div>
<div id="confetti"></div>
<button id="next" hidden>Next</button>
<button id="mute">{{if .Muted}}Unmute{{else}}Mute{{end}}</button>
<p id="viewers"></p>
<p id="announcement"></p>
</div>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var $ = function (id) { return document.getElementById(id); };
  var ws = new WebSocket(proto + location.host + $("reveal").dataset.socket);
  var muted = {{.Muted}};
  var reduced = {{.ReducedMotion}} || window.matchMedia("(prefers-reduced-motion: reduce)").matches;

  ws.onmessage = function (m) {
    var msg = JSON.parse(m.data);
    if (msg.type === "viewers") {
      $("viewers").textContent = msg.count + " watching";
      return;
    }
    if (msg.type === "pick") {
      $("announcement").textContent = msg.winner.name + " wins " + msg.prize.name + "!";
      return;
    }
    if (msg.type !== "stage") {
      return;
    }
    $("stage").textContent = msg.stage;
    $("progress").style.width = (msg.progress * 100) + "%";
    $("pair").hidden = msg.stage === "loading" || msg.stage === "assembly";
    $("winner").textContent = msg.winner.name;
    $("emoji").textContent = msg.prize.emoji || "";
    $("prize").textContent = msg.prize.name;
    $("next").hidden = msg.stage !== "results";
    $("next").textContent = msg.last ? "Finish" : "Next";
    $("confetti").innerHTML = "";
    if (!reduced && msg.confetti) {
      msg.confetti.forEach(function (p) {
        var s = document.createElement("span");
        s.style.left = (p.x * 100) + "vw";
        s.style.top = (p.y * 100) + "vh";
        s.style.background = p.color;
        $("confetti").appendChild(s);
      });
    }
  };

  $("next").onclick = function () { ws.send(JSON.stringify({type: "next"})); };
  $("mute").onclick = function () {
    muted = !muted;
    $("mute").textContent = muted ? "Unmute" : "Mute";
    ws.send(JSON.stringify({type: "mute", muted: muted}));
  };
})();
</script>
{{template "foot"}}`)
