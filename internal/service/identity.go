package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity 会话身份
// Key 形如 user:<id> 或 guest:<uuid>，作为购物车快照的归属键
type Identity struct {
	Key     string `json:"key"`
	IsGuest bool   `json:"is_guest"`
}

// UserIdentity 构造会员身份
func UserIdentity(userID uint) Identity {
	return Identity{Key: fmt.Sprintf("user:%d", userID)}
}

// GuestIdentity 构造游客身份
func GuestIdentity() Identity {
	return Identity{Key: "guest:" + uuid.NewString(), IsGuest: true}
}

// IdentityProvider 会话身份提供方
// Current 返回 nil 表示当前设备尚无任何会话
type IdentityProvider interface {
	Current() *Identity
	Subscribe(fn func(*Identity)) func()
}

// SessionClaims 会话 JWT 载荷
type SessionClaims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

// SessionIdentityProvider 进程内会话身份实现
// 身份由登录/登出/游客会话切换写入，订阅方在切换时收到通知
type SessionIdentityProvider struct {
	secret string

	mu          sync.RWMutex
	current     *Identity
	subscribers map[int]func(*Identity)
	nextSubID   int
}

// NewSessionIdentityProvider 创建会话身份提供方
func NewSessionIdentityProvider(secret string) *SessionIdentityProvider {
	return &SessionIdentityProvider{
		secret:      secret,
		subscribers: make(map[int]func(*Identity)),
	}
}

// Current 返回当前身份
func (p *SessionIdentityProvider) Current() *Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	identity := *p.current
	return &identity
}

// Subscribe 订阅身份变更，返回取消订阅函数
func (p *SessionIdentityProvider) Subscribe(fn func(*Identity)) func() {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// Set 切换当前身份（登录、登出、游客会话开始）
func (p *SessionIdentityProvider) Set(identity *Identity) {
	p.mu.Lock()
	changed := identityKey(p.current) != identityKey(identity)
	if identity == nil {
		p.current = nil
	} else {
		copied := *identity
		p.current = &copied
	}
	var fns []func(*Identity)
	if changed {
		for _, fn := range p.subscribers {
			fns = append(fns, fn)
		}
	}
	notified := p.current
	p.mu.Unlock()

	for _, fn := range fns {
		fn(notified)
	}
}

// ResolveToken 从会话 JWT 解析会员身份
func (p *SessionIdentityProvider) ResolveToken(token string) (*Identity, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errors.New("无效的 token")
	}
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(trimmed, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(p.secret), nil
	})
	if err != nil || !parsed.Valid || claims.UserID == 0 {
		return nil, errors.New("无效的 token")
	}
	identity := UserIdentity(claims.UserID)
	return &identity, nil
}

func identityKey(identity *Identity) string {
	if identity == nil {
		return ""
	}
	return identity.Key
}
