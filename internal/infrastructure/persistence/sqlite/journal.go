package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/domain/entity"
)

const journalQueueSize = 256

// Journal persists view state transitions. Record is safe to call from
// state bus delivery; writes happen on the journal's own goroutine so a
// slow disk never stalls other subscribers.
type Journal struct {
	db     *sql.DB
	retain int
	log    zerolog.Logger

	mu     sync.Mutex
	queue  chan entity.Transition
	done   chan struct{}
	closed bool
}

// NewJournal creates a journal writing to db, keeping at most retainPerApp
// rows per app. retainPerApp <= 0 disables pruning.
func NewJournal(db *sql.DB, retainPerApp int, log zerolog.Logger) *Journal {
	j := &Journal{
		db:     db,
		retain: retainPerApp,
		log:    log.With().Str("component", "journal").Logger(),
		queue:  make(chan entity.Transition, journalQueueSize),
		done:   make(chan struct{}),
	}
	go j.write()
	return j
}

// Record enqueues a transition for persistence. Never blocks; when the
// queue is full the transition is dropped with a warning.
func (j *Journal) Record(tr entity.Transition) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- tr:
	default:
		j.log.Warn().Str("app", tr.AppID).Msg("journal queue full, dropping transition")
	}
}

// Close flushes queued transitions and stops the writer.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	<-j.done
	return nil
}

func (j *Journal) write() {
	defer close(j.done)
	for tr := range j.queue {
		if err := j.Append(context.Background(), tr); err != nil {
			j.log.Warn().Err(err).Str("app", tr.AppID).Msg("journal write failed")
		}
	}
}

// Append inserts one transition and prunes old rows for its app.
func (j *Journal) Append(ctx context.Context, tr entity.Transition) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO transitions (app_id, state, current_url, occurred_at) VALUES (?, ?, ?, ?)`,
		tr.AppID, tr.State.String(), tr.CurrentURL, tr.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("inserting transition: %w", err)
	}

	if j.retain <= 0 {
		return nil
	}
	_, err = j.db.ExecContext(ctx,
		`DELETE FROM transitions
		 WHERE app_id = ?
		   AND id NOT IN (SELECT id FROM transitions WHERE app_id = ? ORDER BY id DESC LIMIT ?)`,
		tr.AppID, tr.AppID, j.retain,
	)
	if err != nil {
		return fmt.Errorf("pruning transitions: %w", err)
	}
	return nil
}

// Recent returns the newest transitions, newest first. An empty appID
// returns rows across all apps.
func (j *Journal) Recent(ctx context.Context, appID string, limit int) ([]entity.Transition, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT app_id, state, current_url, occurred_at FROM transitions`
	args := []any{}
	if appID != "" {
		query += ` WHERE app_id = ?`
		args = append(args, appID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer rows.Close()

	var out []entity.Transition
	for rows.Next() {
		var tr entity.Transition
		var state string
		if err := rows.Scan(&tr.AppID, &state, &tr.CurrentURL, &tr.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		parsed, ok := entity.ParseViewState(state)
		if !ok {
			j.log.Warn().Str("state", state).Msg("unknown state in journal row")
			continue
		}
		tr.State = parsed
		out = append(out, tr)
	}
	return out, rows.Err()
}
