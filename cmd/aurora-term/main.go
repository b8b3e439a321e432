package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/thewug/aurora/audio"
	"github.com/thewug/aurora/audio/speakeraudio"
	"github.com/thewug/aurora/config"
	"github.com/thewug/aurora/raffle"
	"github.com/thewug/aurora/reveal"
	"github.com/thewug/aurora/store"
	"github.com/thewug/aurora/term"
)

func main() {
	seed := flag.String("seed", "", "draw seed (default: today's daily seed)")
	flag.Parse()

	settings, err := config.Load("./settings.json", ".env")
	if err != nil {
		log.Fatal("Load settings: ", err.Error())
	}

	catalog, err := store.ReadCatalog(settings.CatalogPath)
	if err != nil {
		log.Fatal("Read catalog: ", err.Error())
	}

	if *seed == "" {
		prefix := catalog.Event.SeedPrefix
		if prefix == "" {
			prefix = settings.SeedPrefix
		}
		day := catalog.Event.DrawnOn
		if day.IsZero() {
			day = time.Now()
		}
		*seed = raffle.DailySeed(prefix, day)
	}

	result, err := raffle.Draw(*seed, catalog.Winners, catalog.Prizes)
	if err != nil {
		log.Fatal("Draw: ", err.Error())
	}

	var player audio.Player = audio.NewNop(false, nil)
	if settings.AudioEnabled {
		b := speakeraudio.NewBeep(speakeraudio.Config{})
		if err := b.Init(); err != nil {
			log.Printf("aurora-term: audio disabled: %v", err)
		} else {
			player = b
		}
	}
	defer player.Dispose()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal("Open terminal: ", err.Error())
	}
	if err := screen.Init(); err != nil {
		log.Fatal("Init terminal: ", err.Error())
	}

	err = run(screen, result, player, settings.ReducedMotion, catalog.Event.Name)
	screen.Fini()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("aurora-term: %v", err)
		os.Exit(1)
	}
}

func run(screen tcell.Screen, result *raffle.Result[store.Winner, store.Prize], player audio.Player, reduced bool, title string) error {
	if title == "" {
		title = "Winner Reveal"
	}
	renderer := term.NewRenderer(screen, title)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan reveal.Event[store.Winner, store.Prize], 16)
	director := reveal.NewDirector(result, player, reveal.Options{ReducedMotion: reduced}, func(e reveal.Event[store.Winner, store.Prize]) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	})

	finished := make(chan error, 1)
	go func() {
		finished <- director.Run(ctx)
	}()

	keys := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			keys <- ev
		}
	}()

	var last reveal.Event[store.Winner, store.Prize]
	for {
		select {
		case e := <-events:
			last = e
			renderer.Draw(e)

		case err := <-finished:
			if err != nil {
				return err
			}
			for len(events) > 0 {
				renderer.Draw(<-events)
			}
			// leave "done" up until a key is pressed
			<-keys
			return nil

		case ev := <-keys:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					cancel()
					return <-finished
				}
				switch ev.Rune() {
				case 'n':
					if last.Stage == reveal.StageResults {
						director.Next()
					}
				case 'm':
					renderer.Muted = player.ToggleMute()
					renderer.Draw(last)
				}
			case *tcell.EventResize:
				screen.Sync()
				renderer.Draw(last)
			}
		}
	}
}
