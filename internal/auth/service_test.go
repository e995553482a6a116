package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/retail-backend/internal/apperr"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*User
	byID    map[string]*User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*User), byID: make(map[string]*User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[u.Email]; exists {
		return ErrEmailTaken
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	clone := *u
	f.byEmail[u.Email] = &clone
	f.byID[u.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// fakeTokens stores sessions in a plain map.
type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]string
	nextID int
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: make(map[string]string)}
}

func (f *fakeTokens) Issue(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	token := fmt.Sprintf("token-%d", f.nextID)
	f.tokens[token] = userID
	return token, nil
}

func (f *fakeTokens) Resolve(ctx context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.tokens[token]
	if !ok {
		return "", ErrTokenInvalid
	}
	return userID, nil
}

func (f *fakeTokens) Revoke(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func newAuthService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewService(repo, newFakeTokens(), zap.NewNop()), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newAuthService()
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{
		Email:     "Alice@Example.com",
		Password:  "correct-horse",
		FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", sess.Email, "email is normalized")
	assert.Equal(t, RoleCustomer, sess.Role)
	assert.NotEmpty(t, sess.Token)

	// The stored hash is bcrypt, never the plaintext.
	u, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2a$"))
	assert.NotContains(t, u.PasswordHash, "correct-horse")

	login, err := svc.Login(ctx, "ALICE@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	var v *apperr.Validation

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "longenough"})
	require.ErrorAs(t, err, &v)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "short"})
	require.ErrorAs(t, err, &v)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "A@B.COM", Password: "longenough"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "longenough"})
	require.NoError(t, err)

	// Wrong password and unknown user both come back as the same error,
	// so login failures never confirm which emails exist.
	_, err = svc.Login(ctx, "a@b.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@b.com", "longenough")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolvePrincipal(t *testing.T) {
	svc, repo := newAuthService()
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "longenough"})
	require.NoError(t, err)

	p, err := svc.ResolvePrincipal(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, p.Role)
	assert.False(t, p.IsAdmin())

	u, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)

	_, err = svc.ResolvePrincipal(ctx, "bogus")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
