package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const transcriptKeyPrefix = "dialog:transcript:"

// TranscriptStore persists the per-call transcript and fans entries out to
// live listeners.
type TranscriptStore interface {
	Append(ctx context.Context, callID string, entry TranscriptEntry) error
	Get(ctx context.Context, callID string) ([]TranscriptEntry, error)
}

// RedisTranscriptStore stores transcripts as Redis lists with the same TTL
// discipline as sessions, and broadcasts each appended entry through an
// optional hub.
type RedisTranscriptStore struct {
	rdb *redis.Client
	ttl time.Duration
	hub *TranscriptHub
}

// NewRedisTranscriptStore creates a transcript store. hub may be nil when
// live listening is disabled.
func NewRedisTranscriptStore(rdb *redis.Client, ttl time.Duration, hub *TranscriptHub) *RedisTranscriptStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisTranscriptStore{rdb: rdb, ttl: ttl, hub: hub}
}

func transcriptKey(callID string) string {
	return transcriptKeyPrefix + callID
}

// Append adds one turn to the call transcript and refreshes the TTL.
func (s *RedisTranscriptStore) Append(ctx context.Context, callID string, entry TranscriptEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("transcript: marshal: %w", err)
	}
	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, transcriptKey(callID), data)
	pipe.Expire(ctx, transcriptKey(callID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("transcript: append: %w", err)
	}
	if s.hub != nil {
		s.hub.Publish(callID, entry)
	}
	return nil
}

// Get returns the full transcript in turn order. Corrupt entries are
// skipped rather than failing the whole read.
func (s *RedisTranscriptStore) Get(ctx context.Context, callID string) ([]TranscriptEntry, error) {
	data, err := s.rdb.LRange(ctx, transcriptKey(callID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("transcript: get: %w", err)
	}
	entries := make([]TranscriptEntry, 0, len(data))
	for _, d := range data {
		var entry TranscriptEntry
		if err := json.Unmarshal([]byte(d), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// TranscriptHub fans transcript entries out to live listeners, keyed by
// call ID. Slow listeners drop entries instead of blocking the call path.
type TranscriptHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan TranscriptEntry]struct{}
}

// NewTranscriptHub creates an empty hub.
func NewTranscriptHub() *TranscriptHub {
	return &TranscriptHub{subs: make(map[string]map[chan TranscriptEntry]struct{})}
}

// Subscribe registers a listener for one call and returns the entry channel
// plus an unsubscribe function. The channel is buffered; callers must drain
// it promptly or accept dropped entries.
func (h *TranscriptHub) Subscribe(callID string) (<-chan TranscriptEntry, func()) {
	ch := make(chan TranscriptEntry, 16)
	h.mu.Lock()
	if h.subs[callID] == nil {
		h.subs[callID] = make(map[chan TranscriptEntry]struct{})
	}
	h.subs[callID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[callID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, callID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an entry to every listener of the call. Never blocks.
func (h *TranscriptHub) Publish(callID string, entry TranscriptEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[callID] {
		select {
		case ch <- entry:
		default:
		}
	}
}

// ListenerCount reports the live listeners on a call, for health endpoints.
func (h *TranscriptHub) ListenerCount(callID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[callID])
}
