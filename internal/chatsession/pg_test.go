package chatsession

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fazal-lab/xia/internal/domain"
)

func setupMockPGStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db), mock
}

func TestPGStore_Get_CachesAfterFirstLoad(t *testing.T) {
	p, mock := setupMockPGStore(t)
	ctx := context.Background()

	sess := domain.ChatSession{ID: "s1", UserID: "u1", CampaignID: "c1"}
	blob, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM chat_sessions WHERE session_id = $1`)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(blob))

	got, err := p.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.UserID != "u1" {
		t.Fatalf("Get() = %+v, want the decoded session", got)
	}

	// Second call must hit the in-memory cache, not issue another query.
	got2, err := p.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if got2 == nil || got2.UserID != "u1" {
		t.Fatalf("Get() cached = %+v, want the same session", got2)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGStore_Get_UnknownSessionReturnsNilNil(t *testing.T) {
	p, mock := setupMockPGStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM chat_sessions WHERE session_id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	got, err := p.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("Get() = %+v, want nil for an unknown session", got)
	}
}

func TestPGStore_Save_UpsertsAndPopulatesCache(t *testing.T) {
	p, mock := setupMockPGStore(t)
	now := time.Now()
	sess := &domain.ChatSession{ID: "s1", UserID: "u1", CampaignID: "c1", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chat_sessions (session_id, user_id, campaign_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`)).
		WithArgs("s1", "u1", "c1", sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := p.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Get must now be served from cache without issuing a query.
	got, err := p.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.UserID != "u1" {
		t.Fatalf("Get() after Save = %+v, want the cached session", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGStore_ExpireOlderThan(t *testing.T) {
	p, mock := setupMockPGStore(t)
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM chat_sessions WHERE updated_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := p.ExpireOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ExpireOlderThan: %v", err)
	}
	if n != 4 {
		t.Errorf("expired count = %d, want 4", n)
	}
}
