package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSlotLocked is returned when another request currently holds the slot
var ErrSlotLocked = errors.New("slot is being booked by another request")

// RedisSlotLockKeyPrefix namespaces slot lock keys
const RedisSlotLockKeyPrefix = "slot:lock:"

// releaseLockScript deletes the lock only if it still holds our token,
// so a lock that expired and was re-acquired by someone else is left alone.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// SlotLock is a held lock. Release is safe to call more than once.
type SlotLock struct {
	key     string
	token   string
	service *SlotLockService
}

// SlotLockService serializes booking attempts for the same doctor slot in Redis
// so contending requests are rejected before opening a database transaction.
// The database remains the source of truth; the lock only narrows the race.
type SlotLockService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewSlotLockService(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *SlotLockService {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &SlotLockService{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

// SlotKey builds the lock key for a doctor slot
func SlotKey(doctorID int64, date string, slotTime string) string {
	return fmt.Sprintf("%s%d:%s:%s", RedisSlotLockKeyPrefix, doctorID, date, slotTime)
}

// Acquire takes the lock with SET NX and a TTL. Returns ErrSlotLocked when held.
func (s *SlotLockService) Acquire(ctx context.Context, doctorID int64, date string, slotTime string) (*SlotLock, error) {
	key := SlotKey(doctorID, date, slotTime)
	token, err := newLockToken()
	if err != nil {
		return nil, err
	}

	ok, err := s.redisClient.SetNX(ctx, key, token, s.ttl).Result()
	if err != nil {
		s.log.Warnf("Failed to acquire slot lock %s: %+v", key, err)
		return nil, fmt.Errorf("acquire slot lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrSlotLocked
	}

	s.log.Debugf("Acquired slot lock %s", key)
	return &SlotLock{key: key, token: token, service: s}, nil
}

// Release drops the lock if it is still ours
func (l *SlotLock) Release(ctx context.Context) error {
	if l == nil || l.service == nil {
		return nil
	}
	s := l.service
	l.service = nil

	if err := releaseLockScript.Run(ctx, s.redisClient, []string{l.key}, l.token).Err(); err != nil {
		s.log.Warnf("Failed to release slot lock %s: %+v", l.key, err)
		return fmt.Errorf("release slot lock %s: %w", l.key, err)
	}

	s.log.Debugf("Released slot lock %s", l.key)
	return nil
}

func newLockToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
