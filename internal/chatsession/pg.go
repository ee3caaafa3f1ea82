package chatsession

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fazal-lab/xia/internal/domain"
)

// PGStore is a Postgres-backed ChatSession store with an in-memory
// read-through cache for hot sessions, grounded on
// internal/store/pg.PGSessionStore's cache-then-DB pattern.
type PGStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	cache map[string]*domain.ChatSession
}

// OpenPG opens a Postgres connection pool via the pgx stdlib driver (same
// driver golang-migrate's "postgres" source uses against this DSN).
func OpenPG(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("chatsession: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("chatsession: ping postgres: %w", err)
	}
	return db, nil
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db, cache: make(map[string]*domain.ChatSession)}
}

func (p *PGStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	p.mu.RLock()
	if s, ok := p.cache[id]; ok {
		p.mu.RUnlock()
		cp := *s
		return &cp, nil
	}
	p.mu.RUnlock()

	s, err := p.loadFromDB(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	p.mu.Lock()
	p.cache[id] = s
	p.mu.Unlock()
	cp := *s
	return &cp, nil
}

func (p *PGStore) Save(ctx context.Context, sess *domain.ChatSession) error {
	cp := *sess
	p.mu.Lock()
	p.cache[sess.ID] = &cp
	p.mu.Unlock()

	blob, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (session_id, user_id, campaign_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.UserID, sess.CampaignID, blob, sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

func (p *PGStore) loadFromDB(ctx context.Context, id string) (*domain.ChatSession, error) {
	var blob []byte
	err := p.db.QueryRowContext(ctx, `SELECT body FROM chat_sessions WHERE session_id = $1`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess domain.ChatSession
	if err := json.Unmarshal(blob, &sess); err != nil {
		return nil, fmt.Errorf("chatsession: decode stored session %s: %w", id, err)
	}
	return &sess, nil
}

// ExpireOlderThan deletes sessions whose updated_at predates the cutoff,
// mirroring spec §3's 24h inactivity expiry at the storage layer.
func (p *PGStore) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
