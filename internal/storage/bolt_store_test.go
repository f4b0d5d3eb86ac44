package storage

import (
	"encoding/binary"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func TestBoltStoreSavesAndLoadsSessions(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(filepath.Join(dir, "nested", "sessions.db"), normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	cookies, err := store.LoadSession("default")
	if err != nil || cookies != nil {
		t.Fatalf("expected no session, got %v err=%v", cookies, err)
	}

	if err := store.SaveSession("default", []*http.Cookie{{Name: "sid", Value: "abc"}, nil, {Name: ""}}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := store.SaveSession("work", []*http.Cookie{{Name: "sid", Value: "xyz"}}); err != nil {
		t.Fatalf("SaveSession work: %v", err)
	}

	cookies, err = store.LoadSession("default")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if len(cookies) != 1 || cookies[0].Name != "sid" || cookies[0].Value != "abc" {
		t.Fatalf("unexpected cookies %#v", cookies)
	}

	if err := store.DeleteSession("default"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if cookies, _ := store.LoadSession("default"); cookies != nil {
		t.Fatalf("expected deleted session, got %#v", cookies)
	}
	if cookies, _ := store.LoadSession("work"); len(cookies) != 1 {
		t.Fatalf("other profile should survive delete, got %#v", cookies)
	}
}

func TestBoltStoreExpiresSessions(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		SessionTTL:      1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	storeRaw, err := openBolt(dir+"/sessions.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	if err := store.SaveSession("p", []*http.Cookie{{Name: "sid", Value: "v"}}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	cookies, err := store.LoadSession("p")
	if err != nil {
		t.Fatalf("LoadSession after expiry: %v", err)
	}
	if cookies != nil {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestBoltStoreEmptyCookiesDeletes(t *testing.T) {
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "s.db"), normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer storeRaw.Close()

	if err := storeRaw.SaveSession("p", []*http.Cookie{{Name: "sid", Value: "v"}}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := storeRaw.SaveSession("p", nil); err != nil {
		t.Fatalf("SaveSession nil: %v", err)
	}
	if cookies, _ := storeRaw.LoadSession("p"); cookies != nil {
		t.Fatalf("expected session removed, got %#v", cookies)
	}
	if err := storeRaw.SaveSession(" ", []*http.Cookie{{Name: "sid"}}); err == nil {
		t.Fatalf("expected error for blank profile")
	}
}

func TestBoltStoreListsLiveSessions(t *testing.T) {
	storeRaw, err := NewStore("bbolt", filepath.Join(t.TempDir(), "sessions.db"), Options{SessionTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer storeRaw.Close()

	for _, profile := range []string{"work", "default"} {
		if err := storeRaw.SaveSession(profile, []*http.Cookie{{Name: "sid", Value: profile}}); err != nil {
			t.Fatalf("SaveSession %s: %v", profile, err)
		}
	}
	store := storeRaw.(*boltStore)
	expired := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(expired, uint64(time.Now().Add(-time.Minute).Unix()))
	if err := store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Put([]byte("stale"), append(expired, []byte(`[]`)...))
	}); err != nil {
		t.Fatalf("seed expired entry: %v", err)
	}

	infos, err := storeRaw.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(infos) != 2 || infos[0].Profile != "default" || infos[1].Profile != "work" {
		t.Fatalf("unexpected sessions %+v", infos)
	}
	if infos[0].Cookies != 1 || !infos[0].ExpiresAt.After(time.Now()) {
		t.Fatalf("unexpected session info %+v", infos[0])
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.SaveSession("x", []*http.Cookie{{Name: "a"}}); err != nil {
		t.Fatalf("noop store SaveSession: %v", err)
	}
	if cookies, err := store.LoadSession("x"); err != nil || cookies != nil {
		t.Fatalf("noop store should never return sessions")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}
