package store

import (
	"testing"
	"time"

	"github.com/dukerupert/calmchores/internal/database"
	"github.com/dukerupert/calmchores/internal/model"
)

func setupPushTestDB(t *testing.T) (*PushStore, string, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("test@example.com", "Test", "pw")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := NewHouseStore(db).Create("Test", u.ID)
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	return NewPushStore(db), h.ID, u.ID
}

func TestCreateSubscription(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)

	sub, err := ps.CreateSubscription(uid, hid, "https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)

	sub1, _ := ps.CreateSubscription(uid, hid, "https://push.example.com/sub1", "key1", "auth1", "Device A")
	ps.CreateSubscription(uid, hid, "https://push.example.com/sub2", "other", "other", "Device C")
	sub2, err := ps.CreateSubscription(uid, hid, "https://push.example.com/sub1", "key2", "auth2", "Device B")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}

	if sub2.ID != sub1.ID {
		t.Errorf("expected same ID on upsert, got %d != %d", sub2.ID, sub1.ID)
	}
	if sub2.P256dhKey != "key2" {
		t.Errorf("p256dh = %q, want %q", sub2.P256dhKey, "key2")
	}
}

func TestListAndDeleteSubscriptions(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)

	ps.CreateSubscription(uid, hid, "https://push.example.com/a", "k", "a", "A")
	ps.CreateSubscription(uid, hid, "https://push.example.com/b", "k", "a", "B")

	subs, err := ps.ListByUser(uid, hid)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}

	if err := ps.DeleteSubscription("someone-else", "https://push.example.com/a"); err != nil {
		t.Fatalf("delete other user's: %v", err)
	}
	if err := ps.DeleteByEndpoint("https://push.example.com/b"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, _ = ps.ListByUser(uid, hid)
	if len(subs) != 1 || subs[0].Endpoint != "https://push.example.com/a" {
		t.Errorf("subs = %+v, want only a", subs)
	}

	ids, err := ps.ListHouseIDs()
	if err != nil {
		t.Fatalf("list house ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != hid {
		t.Errorf("house ids = %v, want [%s]", ids, hid)
	}
}

func TestPreferences(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)

	enabled, err := ps.IsPreferenceEnabled(uid, hid, model.NotifTypeTaskOverdue)
	if err != nil {
		t.Fatalf("is enabled: %v", err)
	}
	if !enabled {
		t.Error("preferences default to enabled")
	}

	if err := ps.SetPreference(uid, hid, model.NotifTypeTaskOverdue, false); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	enabled, _ = ps.IsPreferenceEnabled(uid, hid, model.NotifTypeTaskOverdue)
	if enabled {
		t.Error("preference still enabled after disabling")
	}

	ps.SetPreference(uid, hid, model.NotifTypeTaskOverdue, true)
	prefs, err := ps.GetPreferences(uid, hid)
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if len(prefs) != 1 || !prefs[0].Enabled {
		t.Errorf("prefs = %+v, want one enabled row", prefs)
	}
}

func TestSentNotificationDedup(t *testing.T) {
	ps, hid, _ := setupPushTestDB(t)

	sent, _ := ps.WasSent(hid, model.NotifTypeTaskDueSoon, "task-1", 60)
	if sent {
		t.Error("nothing sent yet")
	}
	if err := ps.RecordSent(hid, model.NotifTypeTaskDueSoon, "task-1", 60); err != nil {
		t.Fatalf("record sent: %v", err)
	}
	if err := ps.RecordSent(hid, model.NotifTypeTaskDueSoon, "task-1", 60); err != nil {
		t.Fatalf("record sent twice: %v", err)
	}
	sent, _ = ps.WasSent(hid, model.NotifTypeTaskDueSoon, "task-1", 60)
	if !sent {
		t.Error("expected recorded notification")
	}
	sent, _ = ps.WasSent(hid, model.NotifTypeTaskOverdue, "task-1", 0)
	if sent {
		t.Error("different type must not be deduped")
	}

	if err := ps.CleanupSent(time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	sent, _ = ps.WasSent(hid, model.NotifTypeTaskDueSoon, "task-1", 60)
	if sent {
		t.Error("cleanup left the record")
	}
}
