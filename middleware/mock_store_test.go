package middleware_test

import (
	"context"
	"sync"
	"time"

	"bitwise74/room-api/model"
)

// memStore is an in-memory RoomStore with the same atomicity contract as
// the Redis implementation: AtomicAdmit holds the lock across the
// capacity check and the add, the way the Lua script executes server-side
// as one operation. TTL expiry is evaluated lazily against a swappable
// clock so tests can fast-forward time.
type memStore struct {
	mu      sync.Mutex
	meta    map[string]*model.RoomMetadata
	members map[string]map[string]struct{}
	expiry  map[string]time.Time
	now     func() time.Time

	metaErr   error
	memberErr error
	cardErr   error
	admitErr  error

	admits int
}

func newMemStore() *memStore {
	return &memStore{
		meta:    make(map[string]*model.RoomMetadata),
		members: make(map[string]map[string]struct{}),
		expiry:  make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *memStore) addRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta[roomID] = &model.RoomMetadata{RoomID: roomID, CreatedAt: s.now()}
}

// liveMembers drops the membership record if its TTL elapsed. Caller must
// hold s.mu.
func (s *memStore) liveMembers(roomID string) map[string]struct{} {
	if deadline, ok := s.expiry[roomID]; ok && s.now().After(deadline) {
		delete(s.members, roomID)
		delete(s.expiry, roomID)
	}

	return s.members[roomID]
}

func (s *memStore) GetMetadata(_ context.Context, roomID string) (*model.RoomMetadata, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.meta[roomID], nil
}

func (s *memStore) IsMember(_ context.Context, roomID, token string) (bool, error) {
	if s.memberErr != nil {
		return false, s.memberErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.liveMembers(roomID)[token]
	return ok, nil
}

func (s *memStore) Cardinality(_ context.Context, roomID string) (int64, error) {
	if s.cardErr != nil {
		return 0, s.cardErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.liveMembers(roomID))), nil
}

func (s *memStore) AtomicAdmit(_ context.Context, roomID, token string, capacity int64, ttl time.Duration) (bool, error) {
	if s.admitErr != nil {
		return false, s.admitErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.liveMembers(roomID)
	if int64(len(members)) >= capacity {
		return false, nil
	}

	if members == nil {
		members = make(map[string]struct{})
		s.members[roomID] = members
	}

	members[token] = struct{}{}
	s.expiry[roomID] = s.now().Add(ttl)
	s.admits++

	return true, nil
}

func (s *memStore) CreateRoom(_ context.Context, roomID string, createdAt time.Time, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta[roomID] = &model.RoomMetadata{RoomID: roomID, CreatedAt: createdAt}
	return nil
}

func (s *memStore) memberCount(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.liveMembers(roomID))
}

func (s *memStore) successfulAdmits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.admits
}
