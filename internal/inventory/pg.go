package inventory

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

// PGStore is the managed-deployment backend, mirroring
// chatsession.PGStore's cache-then-DB idiom: screens (ListDiscoverable,
// GetByID) are served from a read-through cache so the whole inventory is
// not round-tripped on every chat message; ListBookings queries the
// database on every call.
type PGStore struct {
	db *sql.DB

	mu      sync.RWMutex
	screens map[string]domain.Screen
	loaded  bool
}

func OpenPG(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("inventory: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("inventory: ping postgres: %w", err)
	}
	return db, nil
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db, screens: make(map[string]domain.Screen)}
}

func (p *PGStore) ListDiscoverable(ctx context.Context) ([]domain.Screen, error) {
	p.mu.RLock()
	if p.loaded {
		out := make([]domain.Screen, 0, len(p.screens))
		for _, s := range p.screens {
			if s.Discoverable() {
				out = append(out, s)
			}
		}
		p.mu.RUnlock()
		return out, nil
	}
	p.mu.RUnlock()

	rows, err := p.db.QueryContext(ctx, `SELECT screen_id, body FROM screens`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fresh := make(map[string]domain.Screen)
	var out []domain.Screen
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		var scr domain.Screen
		if err := json.Unmarshal(body, &scr); err != nil {
			return nil, fmt.Errorf("inventory: decode screen %s: %w", id, err)
		}
		fresh[id] = scr
		if scr.Discoverable() {
			out = append(out, scr)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.screens = fresh
	p.loaded = true
	p.mu.Unlock()
	return out, nil
}

// GetByID looks up a single screen, preferring the read-through cache.
func (p *PGStore) GetByID(ctx context.Context, screenID string) (domain.Screen, error) {
	p.mu.RLock()
	if scr, ok := p.screens[screenID]; ok {
		p.mu.RUnlock()
		return scr, nil
	}
	p.mu.RUnlock()

	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT body FROM screens WHERE screen_id = $1`, screenID).Scan(&body)
	if err == sql.ErrNoRows {
		return domain.Screen{}, fmt.Errorf("inventory: screen %s not found", screenID)
	}
	if err != nil {
		return domain.Screen{}, err
	}
	var scr domain.Screen
	if err := json.Unmarshal(body, &scr); err != nil {
		return domain.Screen{}, fmt.Errorf("inventory: decode screen %s: %w", screenID, err)
	}
	return scr, nil
}

func (p *PGStore) ListBookings(ctx context.Context, screenID string) ([]domain.SlotBooking, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT body FROM slot_bookings WHERE screen_id = $1`, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SlotBooking
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var b domain.SlotBooking
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, fmt.Errorf("inventory: decode booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ExpireStaleHolds marks unpaid XIGI holds older than maxAge as EXPIRED
// (spec §4.8 step 3 / P7).
func (p *PGStore) ExpireStaleHolds(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	res, err := p.db.ExecContext(ctx, `
		UPDATE slot_bookings SET status = $1, body = jsonb_set(body, '{status}', to_jsonb($1::text))
		WHERE source = $2 AND status = $3 AND payment = $4 AND created_at < $5`,
		string(domain.BookingExpired), string(domain.BookingSourceXigi), string(domain.BookingHold), string(domain.PaymentUnpaid), cutoff,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Invalidate drops the read-through cache, forcing the next
// ListDiscoverable to reload from Postgres. Call after screen-management
// writes land through another process.
func (p *PGStore) Invalidate() {
	p.mu.Lock()
	p.loaded = false
	p.mu.Unlock()
}
