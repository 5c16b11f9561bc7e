package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const draftKeyPrefix = "sat_practice:assignment_draft:"

// RedisDraftStore 向导草稿保存在 Redis，过期自动丢弃
type RedisDraftStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{Client: client, TTL: ttl}
}

func (s *RedisDraftStore) Load(ctx context.Context, adminID string) (*model.AssignmentDraft, error) {
	raw, err := s.Client.Get(ctx, draftKeyPrefix+adminID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.ErrDraftNotFound
		}
		return nil, err
	}
	var draft model.AssignmentDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, draft *model.AssignmentDraft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, draftKeyPrefix+draft.AdminID, raw, s.TTL).Err()
}

func (s *RedisDraftStore) Delete(ctx context.Context, adminID string) error {
	return s.Client.Del(ctx, draftKeyPrefix+adminID).Err()
}

type memoryDraft struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryDraftStore 未启用 Redis 时的进程内实现，单实例部署可用
type MemoryDraftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string]memoryDraft
	now    func() time.Time
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{ttl: ttl, drafts: make(map[string]memoryDraft), now: time.Now}
}

func (s *MemoryDraftStore) Load(_ context.Context, adminID string) (*model.AssignmentDraft, error) {
	s.mu.Lock()
	d, ok := s.drafts[adminID]
	if ok && s.ttl > 0 && s.now().After(d.expiresAt) {
		delete(s.drafts, adminID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, util.ErrDraftNotFound
	}
	var draft model.AssignmentDraft
	if err := json.Unmarshal(d.raw, &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, draft *model.AssignmentDraft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[draft.AdminID] = memoryDraft{raw: raw, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, adminID string) error {
	s.mu.Lock()
	delete(s.drafts, adminID)
	s.mu.Unlock()
	return nil
}
