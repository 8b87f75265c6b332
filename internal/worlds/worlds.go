// Package worlds provides the read-only Worlds listing from the admin
// API. No mutation surface exists — the dashboard only displays.
package worlds

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tidegate/worldctl/internal/gql"
)

// World is one domain entity row in the admin dashboard.
type World struct {
	ID        string
	Name      string
	Status    string
	Players   int
	CreatedAt time.Time
}

const listQuery = `query Worlds {
  worlds {
    _id
    name
    status
    players
    createdAt
  }
}`

// worldResponse mirrors the Worlds query JSON response. Unexported —
// callers use World via toWorld() normalization.
type worldResponse struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Players   int    `json:"players"`
	CreatedAt string `json:"createdAt"`
}

// toWorld normalizes a response row. An unparseable or absent createdAt
// yields a zero time rather than an error — a bad timestamp should not
// hide the row.
func (w *worldResponse) toWorld() World {
	created, err := time.Parse(time.RFC3339, w.CreatedAt)
	if err != nil {
		created = time.Time{}
	}

	return World{
		ID:        w.ID,
		Name:      w.Name,
		Status:    w.Status,
		Players:   w.Players,
		CreatedAt: created,
	}
}

// List fetches all worlds, retry-wrapped.
func List(ctx context.Context, client *gql.Client, retrier *gql.Retrier, token string) ([]World, error) {
	return gql.DoValue(ctx, retrier, "Worlds", func(ctx context.Context) ([]World, error) {
		data, err := client.Do(ctx, "Worlds", listQuery, nil, token)
		if err != nil {
			return nil, err
		}

		var payload struct {
			Worlds []worldResponse `json:"worlds"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, &gql.Error{Kind: gql.KindNetwork, Message: "decoding worlds payload", Err: err}
		}

		result := make([]World, 0, len(payload.Worlds))
		for i := range payload.Worlds {
			result = append(result, payload.Worlds[i].toWorld())
		}

		return result, nil
	})
}
