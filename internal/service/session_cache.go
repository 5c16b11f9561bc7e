package service

import (
	"context"
	"errors"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"sat_practice_backend/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProfileLoader 按用户 ID 读取资料
type ProfileLoader func(ctx context.Context, userID string) (*model.User, error)

// ProfileEvent 缓存变化通知；Profile 为 nil 表示失效
type ProfileEvent struct {
	UserID  string
	Profile *model.User
}

type cachedProfile struct {
	profile   *model.User
	expiresAt time.Time
}

// SessionCache 请求间共享的用户资料缓存。
// 同一用户的并发读取只会触发一次加载，加载失败时按策略有限次重试。
type SessionCache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	entries     map[string]cachedProfile
	subscribers map[int]func(ProfileEvent)
	nextSubID   int

	group       singleflight.Group
	load        ProfileLoader
	maxAttempts int
	policy      util.RetryPolicy
	now         func() time.Time
}

func NewSessionCache(load ProfileLoader, ttl time.Duration, maxAttempts int, policy util.RetryPolicy) *SessionCache {
	if policy == nil {
		policy = util.ConstantPolicy(0)
	}
	return &SessionCache{
		ttl:         ttl,
		entries:     make(map[string]cachedProfile),
		subscribers: make(map[int]func(ProfileEvent)),
		load:        load,
		maxAttempts: maxAttempts,
		policy:      policy,
		now:         time.Now,
	}
}

func (c *SessionCache) Get(ctx context.Context, userID string) (*model.User, error) {
	if p, ok := c.lookup(userID); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(userID, func() (interface{}, error) {
		if p, ok := c.lookup(userID); ok {
			return p, nil
		}
		p, err := util.Retry(ctx, c.maxAttempts, c.policy, func(ctx context.Context) (*model.User, error) {
			p, err := c.load(ctx, userID)
			if errors.Is(err, util.ErrUserNotFound) {
				return nil, util.Permanent(err)
			}
			return p, err
		})
		if err != nil {
			return nil, err
		}
		c.store(userID, p)
		return p, nil
	})
	if err != nil {
		if !errors.Is(err, util.ErrUserNotFound) {
			logger.Log.Warn("Failed to load profile", zap.String("userID", userID), zap.Error(err))
		}
		return nil, err
	}
	return v.(*model.User), nil
}

func (c *SessionCache) lookup(userID string) (*model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.profile, true
}

func (c *SessionCache) store(userID string, p *model.User) {
	c.mu.Lock()
	c.entries[userID] = cachedProfile{profile: p, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	c.notify(ProfileEvent{UserID: userID, Profile: p})
}

// Invalidate 丢弃缓存，下次读取重新加载
func (c *SessionCache) Invalidate(userID string) {
	c.mu.Lock()
	_, ok := c.entries[userID]
	delete(c.entries, userID)
	c.mu.Unlock()
	if ok {
		c.notify(ProfileEvent{UserID: userID})
	}
}

// SetTTL 只影响之后写入的条目
func (c *SessionCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

func (c *SessionCache) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

// Subscribe 注册变化回调，返回取消函数
func (c *SessionCache) Subscribe(fn func(ProfileEvent)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *SessionCache) notify(ev ProfileEvent) {
	c.mu.RLock()
	fns := make([]func(ProfileEvent), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
