package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/jsonq"
)

var ErrEmptyCatalog error = errors.New("catalog has no winners or no prizes")

type Event struct {
	Name       string
	SeedPrefix string
	DrawnOn    time.Time
}

type Winner struct {
	Id      int    `json:"id"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar,omitempty"`
	City    string `json:"city,omitempty"`
	Email   string `json:"email,omitempty"`
	Entries int    `json:"entries,omitempty"`
}

type Prize struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
	Value       string `json:"value,omitempty"`
	Rarity      string `json:"rarity,omitempty"`
	Image       string `json:"image,omitempty"`
}

type Catalog struct {
	Event   Event
	Winners []Winner
	Prizes  []Prize
}

// TotalEntries sums the entries of every winner.
func (c *Catalog) TotalEntries() int {
	total := 0
	for _, w := range c.Winners {
		total += w.Entries
	}
	return total
}

// Cities counts distinct winner cities.
func (c *Catalog) Cities() int {
	seen := make(map[string]bool)
	for _, w := range c.Winners {
		if w.City != "" {
			seen[w.City] = true
		}
	}
	return len(seen)
}

func ReadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadCatalog(f)
}

// LoadCatalog parses the static reveal asset:
//
//	{"event": {...}, "winners": [...], "prizes": [...]}
//
// Record order is preserved. It is part of the draw's input.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data := map[string]interface{}{}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	q := jsonq.NewQuery(data)

	var c Catalog
	c.Event.Name = optString(q, "event", "name")
	c.Event.SeedPrefix = optString(q, "event", "seed_prefix")
	if drawn := optString(q, "event", "drawn_on"); drawn != "" {
		t, err := time.Parse("2006-01-02", drawn)
		if err != nil {
			return nil, fmt.Errorf("event drawn_on: %w", err)
		}
		c.Event.DrawnOn = t
	}

	winners, err := q.ArrayOfObjects("winners")
	if err != nil {
		return nil, fmt.Errorf("winners: %w", err)
	}
	for i, obj := range winners {
		wq := jsonq.NewQuery(obj)
		name, err := wq.String("name")
		if err != nil {
			return nil, fmt.Errorf("winner %d: %w", i, err)
		}
		c.Winners = append(c.Winners, Winner{
			Id:      optInt(wq, i+1, "id"),
			Name:    name,
			Avatar:  optString(wq, "avatar"),
			City:    optString(wq, "city"),
			Email:   optString(wq, "email"),
			Entries: optInt(wq, 0, "entries"),
		})
	}

	prizes, err := q.ArrayOfObjects("prizes")
	if err != nil {
		return nil, fmt.Errorf("prizes: %w", err)
	}
	for i, obj := range prizes {
		iq := jsonq.NewQuery(obj)
		name, err := iq.String("name")
		if err != nil {
			return nil, fmt.Errorf("prize %d: %w", i, err)
		}
		c.Prizes = append(c.Prizes, Prize{
			Id:          optInt(iq, i+1, "id"),
			Name:        name,
			Description: optString(iq, "description"),
			Emoji:       optString(iq, "emoji"),
			Value:       optString(iq, "value"),
			Rarity:      optString(iq, "rarity"),
			Image:       optString(iq, "image"),
		})
	}

	if len(c.Winners) == 0 || len(c.Prizes) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &c, nil
}

// optString reads a string, accepting numbers too ("value": 500).
func optString(q *jsonq.JsonQuery, path ...string) string {
	if s, err := q.String(path...); err == nil {
		return s
	}
	if f, err := q.Float(path...); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func optInt(q *jsonq.JsonQuery, def int, path ...string) int {
	if n, err := q.Int(path...); err == nil {
		return n
	}
	return def
}
