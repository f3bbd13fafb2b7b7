package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"bitwise74/room-api/model"

	"github.com/redis/go-redis/v9"
)

// RoomStore is the narrow store surface the admission gate depends on.
// Keeping it this small lets tests inject an in-memory implementation
// and keeps the gate itself stateless.
type RoomStore interface {
	// GetMetadata returns the room's metadata record, or nil if the room
	// doesn't exist.
	GetMetadata(ctx context.Context, roomID string) (*model.RoomMetadata, error)

	// IsMember reports whether token is currently admitted to the room.
	IsMember(ctx context.Context, roomID, token string) (bool, error)

	// Cardinality returns the current number of admitted members.
	Cardinality(ctx context.Context, roomID string) (int64, error)

	// AtomicAdmit adds token to the room's membership iff the current
	// member count is below capacity. The capacity check and the add are
	// a single indivisible store operation, and a successful admit
	// resets the membership record's TTL to the full window.
	AtomicAdmit(ctx context.Context, roomID, token string, capacity int64, ttl time.Duration) (bool, error)

	// CreateRoom writes the metadata record for a new room.
	CreateRoom(ctx context.Context, roomID string, createdAt time.Time, ttl time.Duration) error
}

func metaKey(roomID string) string {
	return "meta:" + roomID
}

func connectedKey(roomID string) string {
	return "connected:" + roomID
}

// admitScript runs the capacity check and the member add server-side so
// two racing requests can't both observe a free slot. EXPIRE is included
// so the membership record never exists without a TTL.
var admitScript = redis.NewScript(`
if redis.call("SCARD", KEYS[1]) >= tonumber(ARGV[2]) then
    return 0
end
redis.call("SADD", KEYS[1], ARGV[1])
redis.call("EXPIRE", KEYS[1], ARGV[3])
return 1
`)

// RedisStore implements RoomStore on top of a Redis client.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{Client: rdb}
}

func (s *RedisStore) GetMetadata(ctx context.Context, roomID string) (*model.RoomMetadata, error) {
	res, err := s.Client.HGetAll(ctx, metaKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room metadata, %w", err)
	}

	// HGETALL returns an empty map for missing keys instead of redis.Nil
	if len(res) == 0 {
		return nil, nil
	}

	return parseMetadata(roomID, res)
}

func (s *RedisStore) IsMember(ctx context.Context, roomID, token string) (bool, error) {
	ok, err := s.Client.SIsMember(ctx, connectedKey(roomID), token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to run membership check, %w", err)
	}

	return ok, nil
}

func (s *RedisStore) Cardinality(ctx context.Context, roomID string) (int64, error) {
	n, err := s.Client.SCard(ctx, connectedKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count room members, %w", err)
	}

	return n, nil
}

func (s *RedisStore) AtomicAdmit(ctx context.Context, roomID, token string, capacity int64, ttl time.Duration) (bool, error) {
	res, err := admitScript.Run(ctx, s.Client,
		[]string{connectedKey(roomID)},
		token, capacity, int64(ttl.Seconds()),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to run admit script, %w", err)
	}

	return res == 1, nil
}

func (s *RedisStore) CreateRoom(ctx context.Context, roomID string, createdAt time.Time, ttl time.Duration) error {
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, metaKey(roomID), "createdAt", createdAt.Unix())
		p.Expire(ctx, metaKey(roomID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create room record, %w", err)
	}

	return nil
}

func parseMetadata(roomID string, fields map[string]string) (*model.RoomMetadata, error) {
	createdAt, err := strconv.ParseInt(fields["createdAt"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed createdAt in room metadata, %w", err)
	}

	return &model.RoomMetadata{
		RoomID:    roomID,
		CreatedAt: time.Unix(createdAt, 0),
	}, nil
}
