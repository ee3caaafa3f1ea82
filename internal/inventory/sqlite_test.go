package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/fazal-lab/xia/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return s
}

func TestSQLiteStore_UpsertAndGetByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scr := domain.Screen{ID: "s1", Name: "Mall Entrance", Status: domain.ScreenVerified, ProfileStatus: domain.ProfileProfiled}
	if err := s.UpsertScreen(ctx, scr); err != nil {
		t.Fatalf("UpsertScreen: %v", err)
	}

	got, err := s.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Mall Entrance" {
		t.Errorf("name = %q, want Mall Entrance", got.Name)
	}

	if _, err := s.GetByID(ctx, "missing"); err == nil {
		t.Error("expected an error for an unknown screen id")
	}
}

func TestSQLiteStore_UpsertScreen_OverwritesOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scr := domain.Screen{ID: "s1", Name: "Original Name", Status: domain.ScreenVerified, ProfileStatus: domain.ProfileProfiled}
	if err := s.UpsertScreen(ctx, scr); err != nil {
		t.Fatalf("UpsertScreen: %v", err)
	}
	scr.Name = "Renamed"
	if err := s.UpsertScreen(ctx, scr); err != nil {
		t.Fatalf("UpsertScreen (update): %v", err)
	}
	got, err := s.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", got.Name)
	}
}

func TestSQLiteStore_ListDiscoverable_FiltersByStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	discoverable := domain.Screen{ID: "s1", Status: domain.ScreenVerified, ProfileStatus: domain.ProfileProfiled}
	notYetProfiled := domain.Screen{ID: "s2", Status: domain.ScreenVerified, ProfileStatus: domain.ProfileNotProfiled}
	for _, scr := range []domain.Screen{discoverable, notYetProfiled} {
		if err := s.UpsertScreen(ctx, scr); err != nil {
			t.Fatalf("UpsertScreen: %v", err)
		}
	}

	got, err := s.ListDiscoverable(ctx)
	if err != nil {
		t.Fatalf("ListDiscoverable: %v", err)
	}
	if len(got) != 1 || got[0].ID != "s1" {
		t.Errorf("got %+v, want only s1 (status+profile_status both match)", got)
	}
}

func TestSQLiteStore_ListBookings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	b := domain.SlotBooking{
		ID: "b1", ScreenID: "s1", NumSlots: 2,
		StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 7),
		Source: domain.BookingSourcePartner, Status: domain.BookingActive, Payment: domain.PaymentPaid,
		CreatedAt: time.Now(),
	}
	if err := s.UpsertBooking(ctx, b); err != nil {
		t.Fatalf("UpsertBooking: %v", err)
	}

	got, err := s.ListBookings(ctx, "s1")
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("got %+v, want one booking b1", got)
	}

	none, err := s.ListBookings(ctx, "no-such-screen")
	if err != nil || len(none) != 0 {
		t.Errorf("got (%v, %v), want (empty, nil)", none, err)
	}
}

func TestSQLiteStore_ExpireStaleHolds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stale := domain.SlotBooking{
		ID: "stale", ScreenID: "s1", NumSlots: 1,
		Source: domain.BookingSourceXigi, Status: domain.BookingHold, Payment: domain.PaymentUnpaid,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}
	fresh := domain.SlotBooking{
		ID: "fresh", ScreenID: "s1", NumSlots: 1,
		Source: domain.BookingSourceXigi, Status: domain.BookingHold, Payment: domain.PaymentUnpaid,
		CreatedAt: time.Now(),
	}
	paidHold := domain.SlotBooking{
		ID: "paid", ScreenID: "s1", NumSlots: 1,
		Source: domain.BookingSourceXigi, Status: domain.BookingHold, Payment: domain.PaymentPaid,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}
	for _, b := range []domain.SlotBooking{stale, fresh, paidHold} {
		if err := s.UpsertBooking(ctx, b); err != nil {
			t.Fatalf("UpsertBooking: %v", err)
		}
	}

	n, err := s.ExpireStaleHolds(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("ExpireStaleHolds: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired count = %d, want 1 (only the stale unpaid hold)", n)
	}

	bookings, err := s.ListBookings(ctx, "s1")
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	byID := map[string]domain.SlotBooking{}
	for _, b := range bookings {
		byID[b.ID] = b
	}
	if byID["stale"].Status != domain.BookingExpired {
		t.Errorf("stale booking status = %q, want expired", byID["stale"].Status)
	}
	if byID["fresh"].Status != domain.BookingHold {
		t.Errorf("fresh booking status = %q, want unchanged hold", byID["fresh"].Status)
	}
	if byID["paid"].Status != domain.BookingHold {
		t.Errorf("paid booking status = %q, want unchanged hold (payment already settled)", byID["paid"].Status)
	}
}
