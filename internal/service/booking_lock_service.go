package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Errors
// =============================================================================

// ErrBookingLockBusy is returned when another request holds the doctor's booking lock
// for longer than the wait budget.
var ErrBookingLockBusy = errors.New("booking lock is busy")

// releaseLockScript deletes the key only if it still holds our token, so a request
// whose lock already expired cannot release a lock taken by someone else.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// =============================================================================
// Constants
// =============================================================================

const (
	RedisBookingLockPrefix = "booking:lock:doctor:"

	lockRetryInterval = 25 * time.Millisecond
	defaultLockWait   = 2 * time.Second

	mutexCleanupInterval = 10 * time.Minute
	mutexStaleThreshold  = 10 * time.Minute
)

// =============================================================================
// Types
// =============================================================================

// BookingLocker serialises appointment creation per doctor.
type BookingLocker interface {
	// Lock blocks until the doctor's lock is held. The returned func releases it.
	Lock(ctx context.Context, doctorID uuid.UUID) (func(), error)
}

// RedisBookingLocker holds a process-local mutex per doctor and a redis key per
// doctor. The local mutex keeps requests in this process from hammering redis; the
// redis key covers other replicas.
type RedisBookingLocker struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
	wait        time.Duration

	doctorMu sync.Map // map[uuid.UUID]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64
}

// =============================================================================
// Constructor
// =============================================================================

// NewRedisBookingLocker starts the background mutex cleanup. Call Stop on shutdown.
func NewRedisBookingLocker(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *RedisBookingLocker {
	wait := defaultLockWait
	if ttl < wait {
		wait = ttl
	}
	l := &RedisBookingLocker{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
		wait:        wait,
		stopChan:    make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupMutexMapLoop()

	return l
}

// Stop is safe to call multiple times.
func (l *RedisBookingLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
		l.log.Info("Booking locker stopped")
	}
}

// =============================================================================
// Public Methods
// =============================================================================

func (l *RedisBookingLocker) Lock(ctx context.Context, doctorID uuid.UUID) (func(), error) {
	mt := l.getDoctorMutex(doctorID)
	mt.mu.Lock()

	key := RedisBookingLockPrefix + doctorID.String()
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			mt.mu.Unlock()
			l.log.Warnf("Failed to acquire booking lock for doctor %s: %+v", doctorID, err)
			return nil, fmt.Errorf("acquire booking lock for doctor %s: %w", doctorID, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			mt.mu.Unlock()
			return nil, ErrBookingLockBusy
		}

		select {
		case <-ctx.Done():
			mt.mu.Unlock()
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			// Release must run even if the request context was cancelled meanwhile.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if err := releaseLockScript.Run(releaseCtx, l.redisClient, []string{key}, token).Err(); err != nil {
				l.log.Warnf("Failed to release booking lock for doctor %s: %+v", doctorID, err)
			}
			mt.lastUsed.Store(time.Now().Unix())
			mt.mu.Unlock()
		})
	}
	return unlock, nil
}

// =============================================================================
// Private Helper Methods
// =============================================================================

func (l *RedisBookingLocker) getDoctorMutex(doctorID uuid.UUID) *mutexWithTimestamp {
	mt, _ := l.doctorMu.LoadOrStore(doctorID, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (l *RedisBookingLocker) cleanupMutexMapLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanupStaleMutexes()
		}
	}
}

// cleanupStaleMutexes checks lastUsed while holding the mutex so a concurrent
// Lock cannot slip in between the check and the delete.
func (l *RedisBookingLocker) cleanupStaleMutexes() {
	cutoff := time.Now().Add(-mutexStaleThreshold).Unix()
	var cleaned int

	l.doctorMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}
		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoff {
				l.doctorMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale booking mutexes", cleaned)
	}
}
