// Package eventlog records domain events (marks submitted, invites resolved)
// in an append-only table. The team activity chart is derived from it.
package eventlog

import (
	"context"
	"database/sql"
	"time"
)

const (
	TypeMarkSubmitted  = "MarkSubmitted"
	TypeInviteResolved = "InviteResolved"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: team id
	DataJSON  string
	CreatedAt int64
}

// Repo appends and reads events. A nil Repo is a no-op so memory-store
// setups can skip the log entirely.
type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, e Event) error {
	if r == nil || r.db == nil {
		return nil
	}
	at := e.CreatedAt
	if at == 0 {
		at = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, at)
	return err
}

type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD, UTC
	Count int    `json:"count"`
}

// DailyCounts buckets events of one type for one key by UTC day since the
// cutoff. Bucketing happens Go-side so sqlite and postgres share the query.
func (r *Repo) DailyCounts(ctx context.Context, typ, key string, since int64) ([]DayCount, error) {
	if r == nil || r.db == nil {
		return []DayCount{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT created_at FROM event_log
		  WHERE typ=$1 AND key=$2 AND created_at >= $3
		  ORDER BY created_at`,
		typ, key, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	order := []string{}
	for rows.Next() {
		var at int64
		if err := rows.Scan(&at); err != nil {
			return nil, err
		}
		day := time.Unix(at, 0).UTC().Format("2006-01-02")
		if _, ok := counts[day]; !ok {
			order = append(order, day)
		}
		counts[day]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]DayCount, 0, len(order))
	for _, day := range order {
		out = append(out, DayCount{Day: day, Count: counts[day]})
	}
	return out, nil
}
