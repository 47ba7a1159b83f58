package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"blum/internal/domain"
)

type mockRedisKV struct {
	values  map[string]string
	lastTTL time.Duration
	err     error
}

func newMockRedisKV() *mockRedisKV {
	return &mockRedisKV{values: make(map[string]string)}
}

// Eval reproduce redisProgressPutScript sobre el mapa en memoria.
func (m *mockRedisKV) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	if script != redisProgressPutScript || len(keys) != 2 || len(args) != 3 {
		cmd.SetErr(errors.New("unexpected script call"))
		return cmd
	}
	version := args[1].(string)
	if cur, ok := m.values[keys[1]]; ok && cur > version {
		cmd.SetVal(int64(0))
		return cmd
	}
	m.values[keys[0]] = string(args[0].([]byte))
	m.values[keys[1]] = version
	m.lastTTL = time.Duration(args[2].(int64)) * time.Millisecond
	cmd.SetVal(int64(1))
	return cmd
}

func (m *mockRedisKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	v, ok := m.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			delete(m.values, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func sampleProgress() domain.AnswerRecord {
	rec := domain.NewAnswerRecord("sess-1", time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC))
	rec.CurrentStep = 2
	rec.PersonalData = &domain.PersonalData{
		Name:     "Giulia",
		Surname:  "Rossi",
		Email:    "giulia@example.com",
		Phone:    "+39 333 1234567",
		Consents: domain.Consents{DataProcessing: true},
	}
	rec.Lifestyle = &domain.Lifestyle{Diet: []string{"balanced"}, Exercise: 3, Sleep: 7, Stress: 4}
	return rec
}

func TestMemoryProgressStore(t *testing.T) {
	store := NewMemoryProgressStore(time.Hour)
	ctx := context.Background()
	rec := sampleProgress()

	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	rec.Lifestyle.Diet[0] = "mutated"

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Lifestyle.Diet[0] != "balanced" {
		t.Fatalf("store must keep its own copy, got %v", got.Lifestyle.Diet)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("expected ErrProgressNotFound, got %v", err)
	}
}

func TestMemoryProgressStoreExpires(t *testing.T) {
	store := NewMemoryProgressStore(time.Nanosecond)
	rec := sampleProgress()
	_ = store.Put(context.Background(), rec)
	time.Sleep(time.Millisecond)
	if _, err := store.Get(context.Background(), rec.SessionID); !errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("expected expired entry, got %v", err)
	}
}

func TestRedisProgressStoreRoundTrip(t *testing.T) {
	kv := newMockRedisKV()
	store := &redisProgressStore{client: kv, ttl: 90 * time.Minute, prefix: "blum:progress:"}
	ctx := context.Background()
	rec := sampleProgress()

	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	raw, ok := kv.values["blum:progress:sess-1"]
	if !ok {
		t.Fatalf("expected prefixed key, got %v", kv.values)
	}
	if kv.lastTTL != 90*time.Minute {
		t.Fatalf("expected ttl 90m, got %v", kv.lastTTL)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("stored value is not json: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	_ = store.Delete(ctx, "sess-1")
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("expected ErrProgressNotFound after delete, got %v", err)
	}
	if len(kv.values) != 0 {
		t.Fatalf("expected snapshot and version keys removed, got %v", kv.values)
	}
}

func staleAndFinal() (domain.AnswerRecord, domain.AnswerRecord) {
	stale := sampleProgress()
	final := sampleProgress()
	final.CurrentStep = int(domain.StepResults)
	final.Status = domain.StatusCompleted
	final.UpdatedAt = stale.UpdatedAt.Add(time.Minute)
	completedAt := final.UpdatedAt
	final.CompletedAt = &completedAt
	return stale, final
}

func TestMemoryProgressStoreIgnoresOlderSnapshots(t *testing.T) {
	store := NewMemoryProgressStore(time.Hour)
	ctx := context.Background()
	stale, final := staleAndFinal()

	if err := store.Put(ctx, final); err != nil {
		t.Fatalf("put final: %v", err)
	}
	if err := store.Put(ctx, stale); err != nil {
		t.Fatalf("put stale: %v", err)
	}
	got, err := store.Get(ctx, final.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.CurrentStep != int(domain.StepResults) {
		t.Fatalf("completed snapshot overwritten: status=%s step=%d", got.Status, got.CurrentStep)
	}

	// un draft con UpdatedAt posterior tampoco reabre un registro completado
	stale.UpdatedAt = final.UpdatedAt.Add(time.Hour)
	_ = store.Put(ctx, stale)
	if got, _ := store.Get(ctx, final.SessionID); got.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}

	other := sampleProgress()
	other.SessionID = "sess-2"
	_ = store.Put(ctx, other)
	older := other
	older.CurrentStep = 0
	older.UpdatedAt = other.UpdatedAt.Add(-time.Second)
	_ = store.Put(ctx, older)
	if got, _ := store.Get(ctx, "sess-2"); got.CurrentStep != other.CurrentStep {
		t.Fatalf("older draft must not replace newer draft, got step %d", got.CurrentStep)
	}
}

func TestRedisProgressStoreIgnoresOlderSnapshots(t *testing.T) {
	kv := newMockRedisKV()
	store := &redisProgressStore{client: kv, ttl: time.Hour, prefix: "blum:progress:"}
	ctx := context.Background()
	stale, final := staleAndFinal()

	_ = store.Put(ctx, final)
	if err := store.Put(ctx, stale); err != nil {
		t.Fatalf("put stale: %v", err)
	}
	got, err := store.Get(ctx, final.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("completed snapshot overwritten by draft: %s", got.Status)
	}
}

func TestRedisProgressStorePropagatesErrors(t *testing.T) {
	kv := newMockRedisKV()
	kv.err = errors.New("connection refused")
	store := &redisProgressStore{client: kv, ttl: time.Minute, prefix: "blum:progress:"}

	if err := store.Put(context.Background(), sampleProgress()); err == nil {
		t.Fatalf("expected put error")
	}
	if _, err := store.Get(context.Background(), "sess-1"); err == nil || errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
