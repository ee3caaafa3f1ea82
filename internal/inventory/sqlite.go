// Package inventory is the Screen Inventory Store: the read path the
// Discover Engine (C8) and Filter Menu (C7) query against. It has a SQLite
// backend for local/dev/test deployments and a Postgres backend for managed
// ones; both store each screen/booking as a JSON body so every field the
// Discover Engine filters on (spec §4.8) round-trips without a hand-kept
// column list, while a handful of administrative columns (status,
// profile_status, screen_id/created_at for bookings) stay queryable in SQL
// for the discoverable pre-filter and stale-hold expiry.
package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fazal-lab/xia/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS screens (
	screen_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	profile_status TEXT NOT NULL,
	body TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS slot_bookings (
	id TEXT PRIMARY KEY,
	screen_id TEXT NOT NULL,
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	payment TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	body TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_slot_bookings_screen ON slot_bookings(screen_id);
`

// SQLiteStore implements discover.InventoryStore and xia.ScreenLister
// against a local SQLite file, for dev and test deployments.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("inventory: open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("inventory: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ListDiscoverable(ctx context.Context) ([]domain.Screen, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM screens
		WHERE status IN (?, ?) AND profile_status IN (?, ?)`,
		string(domain.ScreenVerified), string(domain.ScreenScheduledBlock),
		string(domain.ProfileProfiled), string(domain.ProfileReprofile),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Screen
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var scr domain.Screen
		if err := json.Unmarshal([]byte(body), &scr); err != nil {
			return nil, fmt.Errorf("inventory: decode screen: %w", err)
		}
		out = append(out, scr)
	}
	return out, rows.Err()
}

// GetByID looks up a single screen regardless of its discoverability,
// used by GET /screen-profile/{id} and the creative-suggestion handler.
func (s *SQLiteStore) GetByID(ctx context.Context, screenID string) (domain.Screen, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM screens WHERE screen_id = ?`, screenID).Scan(&body)
	if err == sql.ErrNoRows {
		return domain.Screen{}, fmt.Errorf("inventory: screen %s not found", screenID)
	}
	if err != nil {
		return domain.Screen{}, err
	}
	var scr domain.Screen
	if err := json.Unmarshal([]byte(body), &scr); err != nil {
		return domain.Screen{}, fmt.Errorf("inventory: decode screen: %w", err)
	}
	return scr, nil
}

func (s *SQLiteStore) ListBookings(ctx context.Context, screenID string) ([]domain.SlotBooking, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM slot_bookings WHERE screen_id = ?`, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SlotBooking
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var b domain.SlotBooking
		if err := json.Unmarshal([]byte(body), &b); err != nil {
			return nil, fmt.Errorf("inventory: decode booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ExpireStaleHolds marks unpaid XIGI holds older than maxAge as EXPIRED
// (spec §4.8 step 3 / P7), returning the number of bookings it touched.
func (s *SQLiteStore) ExpireStaleHolds(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, body FROM slot_bookings
		WHERE source = ? AND status = ? AND payment = ? AND created_at < ?`,
		string(domain.BookingSourceXigi), string(domain.BookingHold), string(domain.PaymentUnpaid), cutoff,
	)
	if err != nil {
		return 0, err
	}
	type hit struct {
		id   string
		body domain.SlotBooking
	}
	var hits []hit
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			rows.Close()
			return 0, err
		}
		var b domain.SlotBooking
		if err := json.Unmarshal([]byte(body), &b); err != nil {
			continue
		}
		hits = append(hits, hit{id: id, body: b})
	}
	rows.Close()

	for _, h := range hits {
		h.body.Status = domain.BookingExpired
		blob, err := json.Marshal(h.body)
		if err != nil {
			continue
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE slot_bookings SET status = ?, body = ? WHERE id = ?`,
			string(domain.BookingExpired), blob, h.id); err != nil {
			return len(hits), err
		}
	}
	return len(hits), nil
}

// UpsertScreen writes or replaces a screen row, used by the out-of-scope
// screen-management CRUD surface and by tests seeding inventory fixtures.
func (s *SQLiteStore) UpsertScreen(ctx context.Context, scr domain.Screen) error {
	blob, err := json.Marshal(scr)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO screens (screen_id, status, profile_status, body) VALUES (?, ?, ?, ?)
		ON CONFLICT(screen_id) DO UPDATE SET status = excluded.status, profile_status = excluded.profile_status, body = excluded.body`,
		scr.ID, string(scr.Status), string(scr.ProfileStatus), blob,
	)
	return err
}

// UpsertBooking writes or replaces a booking row.
func (s *SQLiteStore) UpsertBooking(ctx context.Context, b domain.SlotBooking) error {
	blob, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO slot_bookings (id, screen_id, source, status, payment, created_at, body) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, payment = excluded.payment, body = excluded.body`,
		b.ID, b.ScreenID, string(b.Source), string(b.Status), string(b.Payment), b.CreatedAt, blob,
	)
	return err
}
