package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"
	"testing"
	"time"

	authdomain "github.com/applyflow/auth-service/internal/auth/domain"
	authrepo "github.com/applyflow/auth-service/internal/auth/repository"
	"github.com/applyflow/auth-service/internal/auth/service"
	"github.com/applyflow/auth-service/internal/auth/token"
	"github.com/applyflow/auth-service/internal/common/clock"
	"github.com/applyflow/auth-service/internal/common/logger"
	userdomain "github.com/applyflow/auth-service/internal/user/domain"
	userrepo "github.com/applyflow/auth-service/internal/user/repository"
)

type mockUserRepository struct {
	findByEmailFunc     func(ctx context.Context, email string) (userdomain.User, error)
	findByIDFunc        func(ctx context.Context, id string) (userdomain.User, error)
	updateLastLoginFunc func(ctx context.Context, id string, at time.Time) error

	lastLoginUpdates []string
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	m.lastLoginUpdates = append(m.lastLoginUpdates, id)
	if m.updateLastLoginFunc != nil {
		return m.updateLastLoginFunc(ctx, id, at)
	}
	return nil
}

// memoryRefreshTokenStore keeps refresh token rows in a map and mirrors the
// delete-reports-not-found contract of the pg implementation. Individual
// operations can be overridden per test.
type memoryRefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]authdomain.RefreshToken

	createFunc       func(ctx context.Context, token authdomain.RefreshToken) error
	findByTokenFunc  func(ctx context.Context, token string) (authdomain.RefreshToken, error)
	deleteByToken    func(ctx context.Context, token string) error
	deleteByUserFunc func(ctx context.Context, userID string) error

	deletedByUser []string
}

func newMemoryRefreshTokenStore() *memoryRefreshTokenStore {
	return &memoryRefreshTokenStore{tokens: make(map[string]authdomain.RefreshToken)}
}

func (m *memoryRefreshTokenStore) Create(ctx context.Context, token authdomain.RefreshToken) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Token] = token
	return nil
}

func (m *memoryRefreshTokenStore) FindByToken(ctx context.Context, token string) (authdomain.RefreshToken, error) {
	if m.findByTokenFunc != nil {
		return m.findByTokenFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[token]
	if !ok {
		return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
	}
	return stored, nil
}

func (m *memoryRefreshTokenStore) DeleteByToken(ctx context.Context, token string) error {
	if m.deleteByToken != nil {
		return m.deleteByToken(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return authrepo.ErrRefreshTokenNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *memoryRefreshTokenStore) DeleteByUserID(ctx context.Context, userID string) error {
	m.deletedByUser = append(m.deletedByUser, userID)
	if m.deleteByUserFunc != nil {
		return m.deleteByUserFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for raw, stored := range m.tokens {
		if stored.UserID == userID {
			delete(m.tokens, raw)
		}
	}
	return nil
}

func (m *memoryRefreshTokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	now := time.Now()
	for raw, stored := range m.tokens {
		if stored.ExpiresAt.Before(now) {
			delete(m.tokens, raw)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memoryRefreshTokenStore) stored(t *testing.T, raw string) authdomain.RefreshToken {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[raw]
	if !ok {
		t.Fatalf("expected a stored record for token %q", raw)
	}
	return stored
}

func (m *memoryRefreshTokenStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash, password string) error {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	return nil
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
	counter   int
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	m.counter++
	return fmt.Sprintf("rt-%d", m.counter), nil
}

type testEnv struct {
	auth         *service.AuthService
	tokens       *service.TokenService
	publicTokens *service.PublicTokenService
	users        *mockUserRepository
	store        *memoryRefreshTokenStore
	hasher       *mockHasher
	signer       *token.Signer
	privateKey   *rsa.PrivateKey
	clock        *clock.MockClock
}

const (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 7 * 24 * time.Hour
	testPublicTTL  = 24 * time.Hour
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	clk := clock.NewMockClock(time.Now())
	signer := token.NewSigner(key, &key.PublicKey, clk)
	users := &mockUserRepository{}
	store := newMemoryRefreshTokenStore()
	hasher := &mockHasher{}

	tokens := service.NewTokenService(signer, store, &mockIDGenerator{}, clk, testAccessTTL, testRefreshTTL, log)
	auth := service.NewAuthService(users, store, tokens, hasher, &key.PublicKey, clk, log)
	publicTokens := service.NewPublicTokenService(signer, testPublicTTL, log)

	return &testEnv{
		auth:         auth,
		tokens:       tokens,
		publicTokens: publicTokens,
		users:        users,
		store:        store,
		hasher:       hasher,
		signer:       signer,
		privateKey:   key,
		clock:        clk,
	}
}

func testUser() userdomain.User {
	return userdomain.User{
		ID:           "user-123",
		Email:        "admin@applyflow.com",
		PasswordHash: "hashed:password123",
		FirstName:    "Admin",
		LastName:     "User",
		IsActive:     true,
	}
}
