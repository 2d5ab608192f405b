package store

import (
	"testing"
	"time"

	"github.com/dukerupert/calmchores/internal/database"
)

func setupSessionTestDB(t *testing.T, ttl time.Duration) (*SessionStore, *UserStore, *HouseStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db, ttl), NewUserStore(db), NewHouseStore(db)
}

func TestSessionCreate(t *testing.T) {
	ss, us, _ := setupSessionTestDB(t, time.Hour)

	u, err := us.Create("alice@example.com", "Alice", "pw")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess, err := ss.Create(u.ID, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %q, want %q", sess.UserID, u.ID)
	}
	if sess.HouseID != nil {
		t.Errorf("house_id = %q, want nil", *sess.HouseID)
	}
}

func TestSessionGetByToken(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t, time.Hour)

	u, _ := us.Create("alice@example.com", "Alice", "pw")
	h, _ := hs.Create("Flat", u.ID)
	created, _ := ss.Create(u.ID, &h.ID)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID {
		t.Errorf("id = %d, want %d", sess.ID, created.ID)
	}
	if sess.HouseID == nil || *sess.HouseID != h.ID {
		t.Errorf("house_id = %v, want %q", sess.HouseID, h.ID)
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	ss, _, _ := setupSessionTestDB(t, time.Hour)

	sess, err := ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionExpired(t *testing.T) {
	ss, us, _ := setupSessionTestDB(t, -time.Minute)

	u, _ := us.Create("alice@example.com", "Alice", "pw")
	created, _ := ss.Create(u.ID, nil)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expired session should not be returned")
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestSessionDeleteByUserID(t *testing.T) {
	ss, us, _ := setupSessionTestDB(t, time.Hour)

	u, _ := us.Create("alice@example.com", "Alice", "pw")
	s1, _ := ss.Create(u.ID, nil)
	s2, _ := ss.Create(u.ID, nil)

	if err := ss.DeleteByUserID(u.ID); err != nil {
		t.Fatalf("delete by user id: %v", err)
	}
	for _, tok := range []string{s1.Token, s2.Token} {
		if sess, _ := ss.GetByToken(tok); sess != nil {
			t.Error("session survived DeleteByUserID")
		}
	}
}

func TestSessionSetHouse(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t, time.Hour)

	u, _ := us.Create("alice@example.com", "Alice", "pw")
	h, _ := hs.Create("Flat", u.ID)
	created, _ := ss.Create(u.ID, nil)

	if err := ss.SetHouse(created.ID, &h.ID); err != nil {
		t.Fatalf("set house: %v", err)
	}
	sess, _ := ss.GetByToken(created.Token)
	if sess.HouseID == nil || *sess.HouseID != h.ID {
		t.Errorf("house_id = %v, want %q", sess.HouseID, h.ID)
	}
}

func TestSessionHouseDeletedClearsHouse(t *testing.T) {
	ss, us, hs := setupSessionTestDB(t, time.Hour)

	u, _ := us.Create("alice@example.com", "Alice", "pw")
	h, _ := hs.Create("Flat", u.ID)
	created, _ := ss.Create(u.ID, &h.ID)

	if err := hs.Delete(h.ID); err != nil {
		t.Fatalf("delete house: %v", err)
	}
	sess, _ := ss.GetByToken(created.Token)
	if sess == nil {
		t.Fatal("session should survive its house")
	}
	if sess.HouseID != nil {
		t.Errorf("house_id = %q, want nil", *sess.HouseID)
	}
}
