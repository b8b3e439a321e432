package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"

	"github.com/thewug/aurora/auth"
	"github.com/thewug/aurora/config"
	"github.com/thewug/aurora/reveal"
	"github.com/thewug/aurora/store"
	"github.com/thewug/aurora/web"
)

func flagStore(ctx context.Context, settings config.Settings) store.FlagStore {
	if settings.DatabaseDriver == "memory" {
		return store.NewMemoryFlags()
	}

	db, err := store.Open(settings.DatabaseDriver, settings.DatabaseURL)
	if err != nil {
		log.Fatal("Open database: ", err.Error())
	}
	if err := store.Migrate(ctx, db); err != nil {
		log.Fatal("Migrate database: ", err.Error())
	}
	return store.NewSQLFlags(db)
}

func sessionKey(settings config.Settings) string {
	if settings.SessionKey != "" {
		return settings.SessionKey
	}

	// sessions won't survive a restart
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal("Generate session key: ", err.Error())
	}
	key := hex.EncodeToString(b)
	log.Printf("aurora: no session_key set, generated %s", key)
	return key
}

func main() {
	fmt.Println("aurora!")

	settings, err := config.Load("./settings.json", ".env")
	if err != nil {
		log.Fatal("Load settings: ", err.Error())
	}

	catalog, err := store.ReadCatalog(settings.CatalogPath)
	if err != nil {
		log.Fatal("Read catalog: ", err.Error())
	}

	ctx := context.Background()

	codec, err := auth.NewCodec(sessionKey(settings), settings.SessionCoder)
	if err != nil {
		log.Fatal("Session codec: ", err.Error())
	}
	codec.Secure = settings.SecureCookies

	server := web.NewServer(ctx, web.Deps{
		Catalog:    catalog,
		Flags:      flagStore(ctx, settings),
		Sessions:   codec,
		SeedPrefix: settings.SeedPrefix,
		Reveal:     reveal.Options{ReducedMotion: settings.ReducedMotion},
	})

	log.Printf("aurora: %d winners, %d prizes, listening on %s", len(catalog.Winners), len(catalog.Prizes), settings.Listen)
	err = http.ListenAndServe(settings.Listen, server.Routes())
	if err != nil {
		log.Fatal("ListenAndServe: ", err.Error())
	}
}
