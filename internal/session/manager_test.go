package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialgraph/internal/identity"
)

type memStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	err     error
	inserts int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Insert(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.inserts++
	if m.err != nil {
		return m.err
	}
	if _, ok := m.data[key]; ok {
		return ErrKeyExists
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestManager_CreateAndGet(t *testing.T) {
	store := newMemStore()
	mgr := NewManager(store)
	ctx := context.Background()

	p := &identity.Principal{ExternalID: "user_2abc", Email: "a@example.com", Username: "alice"}
	sess, err := mgr.Create(ctx, p, time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if store.ttls["session:"+sess.ID] != time.Hour {
		t.Errorf("Expected TTL 1h, got %v", store.ttls["session:"+sess.ID])
	}

	got, err := mgr.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Principal != *p {
		t.Errorf("Principal = %+v, want %+v", got.Principal, *p)
	}

	if err := mgr.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := mgr.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestManager_CreateRejectsAnonymous(t *testing.T) {
	mgr := NewManager(newMemStore())

	if _, err := mgr.Create(context.Background(), &identity.Principal{}, time.Hour); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := mgr.Create(context.Background(), &identity.Principal{ExternalID: "u"}, 0); err == nil {
		t.Error("Expected error for zero max age")
	}
}

func TestManager_Expired(t *testing.T) {
	store := newMemStore()
	mgr := &manager{store: store, now: time.Now}
	ctx := context.Background()

	sess, err := mgr.Create(ctx, &identity.Principal{ExternalID: "u"}, time.Minute)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mgr.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := mgr.Get(ctx, sess.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Expected ErrSessionExpired, got %v", err)
	}
	if _, ok := store.data["session:"+sess.ID]; ok {
		t.Error("Expected expired session to be deleted")
	}
}

func TestManager_GetErrors(t *testing.T) {
	store := newMemStore()
	mgr := NewManager(store)
	ctx := context.Background()

	if _, err := mgr.Get(ctx, "not-a-uuid"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound for malformed id, got %v", err)
	}

	id := "6f1c1a4e-6a51-4c53-9b8e-2f1f6f0f3a10"
	store.data["session:"+id] = []byte("{not json")
	if _, err := mgr.Get(ctx, id); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession, got %v", err)
	}

	store.err = errors.New("redis down")
	if _, err := mgr.Get(ctx, id); err == nil || errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected a store error, got %v", err)
	}
}

func TestManager_CreateRetriesOnCollision(t *testing.T) {
	store := newMemStore()
	store.err = ErrKeyExists
	mgr := NewManager(store)

	_, err := mgr.Create(context.Background(), &identity.Principal{ExternalID: "u"}, time.Hour)
	if !errors.Is(err, ErrKeyExists) {
		t.Fatalf("Expected ErrKeyExists after retries, got %v", err)
	}
	if store.inserts != maxInsertAttempts {
		t.Errorf("Expected %d insert attempts, got %d", maxInsertAttempts, store.inserts)
	}
}
