package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"blum/internal/domain"
)

var ErrProgressNotFound = errors.New("progress not found")

// ProgressStore guarda el último snapshot de cada sesión para poder retomarla.
type ProgressStore interface {
	Put(ctx context.Context, rec domain.AnswerRecord) error
	Get(ctx context.Context, sessionID string) (domain.AnswerRecord, error)
	Delete(ctx context.Context, sessionID string) error
}

type progressItem struct {
	record    domain.AnswerRecord
	version   string
	expiresAt time.Time
}

// progressVersion ordena los snapshots de una sesión: primero por estado
// (draft < completed < processed), después por UpdatedAt. Un Put con versión
// menor a la guardada se descarta, así un autosave atrasado nunca pisa el
// registro final. Ancho fijo para poder compararlas como strings, también en Lua.
func progressVersion(rec domain.AnswerRecord) string {
	var rank int
	switch rec.Status {
	case domain.StatusCompleted:
		rank = 1
	case domain.StatusProcessed:
		rank = 2
	}
	var nanos int64
	if !rec.UpdatedAt.IsZero() {
		nanos = rec.UpdatedAt.UnixNano()
	}
	if nanos < 0 {
		nanos = 0
	}
	return fmt.Sprintf("%d%020d", rank, nanos)
}

type memoryProgressStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]progressItem
}

// NewMemoryProgressStore crea un store en memoria con expiración por ttl.
func NewMemoryProgressStore(ttl time.Duration) ProgressStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &memoryProgressStore{
		ttl:   ttl,
		items: make(map[string]progressItem),
	}
}

func (s *memoryProgressStore) Put(_ context.Context, rec domain.AnswerRecord) error {
	if strings.TrimSpace(rec.SessionID) == "" {
		return nil
	}
	version := progressVersion(rec)
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.items[rec.SessionID]; ok && now.Before(cur.expiresAt) && cur.version > version {
		return nil
	}
	s.items[rec.SessionID] = progressItem{
		record:    rec.Clone(),
		version:   version,
		expiresAt: now.Add(s.ttl),
	}
	return nil
}

func (s *memoryProgressStore) Get(_ context.Context, sessionID string) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[sessionID]
	if !ok {
		return domain.AnswerRecord{}, ErrProgressNotFound
	}
	if time.Now().UTC().After(item.expiresAt) {
		delete(s.items, sessionID)
		return domain.AnswerRecord{}, ErrProgressNotFound
	}
	return item.record.Clone(), nil
}

func (s *memoryProgressStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

// redisProgressPutScript escribe el snapshot solo si su versión no es menor
// a la guardada. KEYS: snapshot, versión. ARGV: json, versión, ttl en ms.
const redisProgressPutScript = `
local current = redis.call("GET", KEYS[2])
if current and current > ARGV[2] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`

// redisKV es el subconjunto de redis.Cmdable que usa el store.
type redisKV interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisProgressStore struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

// NewRedisProgressStore guarda los snapshots como JSON bajo blum:progress:<id>.
func NewRedisProgressStore(client *redis.Client, ttl time.Duration) ProgressStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &redisProgressStore{
		client: client,
		ttl:    ttl,
		prefix: "blum:progress:",
	}
}

func (s *redisProgressStore) Put(ctx context.Context, rec domain.AnswerRecord) error {
	if strings.TrimSpace(rec.SessionID) == "" {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	key := s.prefix + rec.SessionID
	keys := []string{key, key + ":v"}
	return s.client.Eval(ctx, redisProgressPutScript, keys, data, progressVersion(rec), s.ttl.Milliseconds()).Err()
}

func (s *redisProgressStore) Get(ctx context.Context, sessionID string) (domain.AnswerRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.AnswerRecord{}, ErrProgressNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	data, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AnswerRecord{}, ErrProgressNotFound
		}
		return domain.AnswerRecord{}, err
	}
	var rec domain.AnswerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.AnswerRecord{}, fmt.Errorf("unmarshal progress: %w", err)
	}
	return rec, nil
}

func (s *redisProgressStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	key := s.prefix + sessionID
	return s.client.Del(ctx, key, key+":v").Err()
}
