package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/id"
)

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memAccounts struct {
	byClass map[appctx.Class]map[string]*Account
	saves   int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byClass: map[appctx.Class]map[string]*Account{}}
}

func (m *memAccounts) put(class appctx.Class, a *Account) {
	if m.byClass[class] == nil {
		m.byClass[class] = map[string]*Account{}
	}
	m.byClass[class][a.Email] = a
}

func (m *memAccounts) GetByEmail(_ context.Context, class appctx.Class, email string) (*Account, error) {
	if a, ok := m.byClass[class][email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, apperror.NewNotFound(string(class), email)
}

func (m *memAccounts) GetByID(_ context.Context, class appctx.Class, accountID id.ID) (*Account, error) {
	for _, a := range m.byClass[class] {
		if a.ID == accountID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound(string(class), accountID.String())
}

func (m *memAccounts) SaveLoginState(_ context.Context, a *Account) error {
	m.saves++
	m.put(a.Class, a)
	return nil
}

func (m *memAccounts) Create(_ context.Context, a *Account) error {
	m.put(a.Class, a)
	return nil
}

type memTokens struct {
	byHash map[string]*RefreshToken
}

func (m *memTokens) SaveRefreshToken(_ context.Context, t *RefreshToken) error {
	m.byHash[t.TokenHash] = t
	return nil
}

func (m *memTokens) GetRefreshToken(_ context.Context, hash string) (*RefreshToken, error) {
	if t, ok := m.byHash[hash]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("token", "")
}

func (m *memTokens) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	for _, t := range m.byHash {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt, t.RevokedReason = &now, &reason
		}
	}
	return nil
}

func (m *memTokens) RevokeAllTokens(_ context.Context, class appctx.Class, accountID id.ID, reason string) error {
	for _, t := range m.byHash {
		if t.AccountID == accountID && t.Class == class && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt, t.RevokedReason = &now, &reason
		}
	}
	return nil
}

func (m *memTokens) CleanupExpiredTokens(context.Context) (int, error) { return 0, nil }

func newTestService(t *testing.T) (*Service, *memAccounts, *memTokens) {
	t.Helper()
	accounts := newMemAccounts()
	tokens := &memTokens{byHash: map[string]*RefreshToken{}}

	cfg := DefaultServiceConfig()
	cfg.MaxLoginAttempts = 2
	svc := NewService(accounts, tokens, passTx{}, NewJWTService(DefaultJWTConfig("test-secret")), cfg)
	return svc, accounts, tokens
}

func seedResident(t *testing.T, accounts *memAccounts, email, password string) *Account {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	a := &Account{ID: id.New(), Class: appctx.ClassResident, Email: email, PasswordHash: hash, IsActive: true}
	accounts.put(appctx.ClassResident, a)
	return a
}

func TestLogin_IssuesClassScopedToken(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	resident := seedResident(t, accounts, "jane@example.com", "s3cret-pass")

	pair, account, err := svc.Login(context.Background(), appctx.ClassResident,
		Credentials{Email: " Jane@Example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, resident.ID, account.ID)
	assert.Equal(t, appctx.ClassResident, pair.Class)
	assert.Equal(t, "Bearer", pair.TokenType)

	principal, err := svc.jwtService.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resident.ID.String(), principal.UserID)
	assert.Equal(t, appctx.ClassResident, principal.Class)
	assert.NotEmpty(t, principal.SessionID)
}

func TestLogin_WrongClassIsUnauthorized(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	seedResident(t, accounts, "jane@example.com", "s3cret-pass")

	_, _, err := svc.Login(context.Background(), appctx.ClassAdmin,
		Credentials{Email: "jane@example.com", Password: "s3cret-pass"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestLogin_LocksAfterFailures(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	seedResident(t, accounts, "jane@example.com", "s3cret-pass")
	ctx := context.Background()
	bad := Credentials{Email: "jane@example.com", Password: "wrong-pass"}

	for range 2 {
		_, _, err := svc.Login(ctx, appctx.ClassResident, bad)
		assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	}

	_, _, err := svc.Login(ctx, appctx.ClassResident, Credentials{Email: "jane@example.com", Password: "s3cret-pass"})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden), "locked even with the right password")
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	seedResident(t, accounts, "jane@example.com", "s3cret-pass")
	ctx := context.Background()

	first, _, err := svc.Login(ctx, appctx.ClassResident, Credentials{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized), "old token is revoked")
}

func TestMeAndLogout(t *testing.T) {
	svc, accounts, tokens := newTestService(t)
	resident := seedResident(t, accounts, "jane@example.com", "s3cret-pass")

	_, err := svc.Me(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	pair, _, err := svc.Login(context.Background(), appctx.ClassResident,
		Credentials{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: resident.ID.String(),
		Class:  appctx.ClassResident,
	})
	me, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", me.Email)

	require.NoError(t, svc.Logout(ctx))
	stored, err := tokens.GetRefreshToken(ctx, hashToken(pair.RefreshToken))
	require.NoError(t, err)
	assert.False(t, stored.IsValid())
}

func TestCreateAccount(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, appctx.ClassResident, "r@example.com", "long-enough", "", "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.CreateAccount(ctx, appctx.ClassAdmin, "a@example.com", "short", "", "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	admin, err := svc.CreateAccount(ctx, appctx.ClassAdmin, " A@Example.com", "long-enough", "Ada", "Admin")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", admin.Email)
	assert.Contains(t, accounts.byClass[appctx.ClassAdmin], "a@example.com")
}

func TestJWT_RejectsForeignSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("one"))
	token, _, err := issuer.GenerateAccessToken(&Account{ID: id.New(), Class: appctx.ClassUser, Email: "u@example.com"})
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("two")).ValidateToken(token)
	assert.Error(t, err)

	principal, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, appctx.ClassUser, principal.Class)
}

func TestAccount_FullName(t *testing.T) {
	assert.Equal(t, "a@b.c", (&Account{Email: "a@b.c"}).FullName())
	assert.Equal(t, "Ada", (&Account{FirstName: "Ada"}).FullName())
	assert.Equal(t, "Ada Lovelace", (&Account{FirstName: "Ada", LastName: "Lovelace"}).FullName())
}
