package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/notemeet_server/config"
	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/pkg/jwt"
	"github.com/qs3c/notemeet_server/internal/pkg/oauth"
	"github.com/qs3c/notemeet_server/internal/pkg/twofactor"
	"github.com/qs3c/notemeet_server/internal/repository"
	"github.com/qs3c/notemeet_server/internal/testutil"
)

const testSecret = "test-secret-key-for-testing"

type fakeMailer struct {
	codes    map[string]string
	welcomed []string
	err      error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: map[string]string{}}
}

func (m *fakeMailer) SendTwoFactorCode(to, code string) error {
	if m.err != nil {
		return m.err
	}
	m.codes[to] = code
	return nil
}

func (m *fakeMailer) SendWelcome(to, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.welcomed = append(m.welcomed, to)
	return nil
}

type fakeGithub struct {
	profile *oauth.Profile
	err     error
}

func (g *fakeGithub) AuthURL(state string) string {
	return "https://github.com/login/oauth/authorize?state=" + state
}

func (g *fakeGithub) FetchProfile(_ context.Context, code string) (*oauth.Profile, error) {
	if g.err != nil {
		return nil, g.err
	}
	if code != "good-code" {
		return nil, errors.New("bad_verification_code")
	}
	return g.profile, nil
}

type authFixture struct {
	svc    *AuthService
	db     *gorm.DB
	mailer *fakeMailer
	github *fakeGithub
	redis  *miniredis.Miniredis
}

func setupAuthService(t *testing.T) *authFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: testSecret, ExpireHours: 24},
	}
	mailer := newFakeMailer()
	gh := &fakeGithub{profile: &oauth.Profile{
		ProviderID: "9001",
		Login:      "octocat",
		Name:       "The Octocat",
		Email:      "octocat@github.com",
		AvatarURL:  "https://avatars.example.com/9001",
	}}

	svc := NewAuthService(
		repository.NewUserRepository(db),
		twofactor.NewStore(rdb),
		oauth.NewStateStore(rdb),
		gh,
		mailer,
		cfg,
	)
	return &authFixture{svc: svc, db: db, mailer: mailer, github: gh, redis: mr}
}

func TestAuthService_Register(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, &dto.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Greater(t, resp.UserID, int64(0))
	assert.Equal(t, []string{"alice@example.com"}, f.mailer.welcomed)

	var user model.User
	require.NoError(t, f.db.First(&user, resp.UserID).Error)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.False(t, user.IsOAuth)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "password123", *user.PasswordHash)
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	f := setupAuthService(t)
	testutil.TestUser(t, f.db, testutil.WithEmail("taken@example.com"))

	_, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Bob",
		Email:    "taken@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_Register_MailFailureIgnored(t *testing.T) {
	f := setupAuthService(t)
	f.mailer.err = errors.New("smtp down")

	resp, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Carol",
		Email:    "carol@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.UserID)
}

func TestAuthService_Login(t *testing.T) {
	f := setupAuthService(t)
	user := testutil.TestUser(t, f.db, testutil.WithRole(model.RoleAdmin))

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email:    *user.Email,
		Password: testutil.TestPassword,
	})
	require.NoError(t, err)

	assert.False(t, resp.TwoFactor)
	require.NotNil(t, resp.User)
	assert.Equal(t, user.ID, resp.User.UserID)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)

	claims, err := jwt.ParseToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	f := setupAuthService(t)
	user := testutil.TestUser(t, f.db)
	oauthUser := testutil.TestUser(t, f.db, testutil.WithOAuth("42"))

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", testutil.TestPassword},
		{"wrong password", *user.Email, "wrong-password"},
		{"oauth account", *oauthUser.Email, testutil.TestPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), &dto.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthService_Login_TwoFactor(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	user := testutil.TestUser(t, f.db, testutil.WithTwoFactor())
	req := &dto.LoginRequest{Email: *user.Email, Password: testutil.TestPassword}

	resp, err := f.svc.Login(ctx, req)
	require.NoError(t, err)
	assert.True(t, resp.TwoFactor)
	assert.Empty(t, resp.Token)
	assert.Nil(t, resp.User)

	code := f.mailer.codes[*user.Email]
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: req.Email, Password: req.Password, Code: wrong})
	assert.ErrorIs(t, err, ErrInvalidCode)

	resp, err = f.svc.Login(ctx, &dto.LoginRequest{Email: req.Email, Password: req.Password, Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.User.IsTwoFactorEnabled)

	// 验证码只能使用一次
	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: req.Email, Password: req.Password, Code: code})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestAuthService_Login_TwoFactorMailFailure(t *testing.T) {
	f := setupAuthService(t)
	user := testutil.TestUser(t, f.db, testutil.WithTwoFactor())
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email:    *user.Email,
		Password: testutil.TestPassword,
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GithubFlow_CreatesUser(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()

	url, err := f.svc.GithubAuthURL(ctx, "/dashboard")
	require.NoError(t, err)
	require.Contains(t, url, "state=")
	state := url[len("https://github.com/login/oauth/authorize?state="):]

	resp, returnTo, err := f.svc.GithubCallback(ctx, "good-code", state)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", returnTo)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.User.IsOAuth)
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.Equal(t, "The Octocat", resp.User.Name)

	var user model.User
	require.NoError(t, f.db.Where("github_id = ?", "9001").First(&user).Error)
	assert.True(t, user.IsOAuth)
	assert.Nil(t, user.PasswordHash)
	assert.NotNil(t, user.EmailVerifiedAt)

	// state 已被使用
	_, _, err = f.svc.GithubCallback(ctx, "good-code", state)
	assert.ErrorIs(t, err, oauth.ErrInvalidState)
}

func TestAuthService_GithubCallback_ExistingUser(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	existing := testutil.TestUser(t, f.db, testutil.WithOAuth("9001"))

	url, err := f.svc.GithubAuthURL(ctx, "")
	require.NoError(t, err)
	state := url[len("https://github.com/login/oauth/authorize?state="):]

	resp, _, err := f.svc.GithubCallback(ctx, "good-code", state)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, resp.User.UserID)

	var count int64
	f.db.Model(&model.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_GithubCallback_EmailTaken(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	testutil.TestUser(t, f.db, testutil.WithEmail("octocat@github.com"))

	url, err := f.svc.GithubAuthURL(ctx, "")
	require.NoError(t, err)
	state := url[len("https://github.com/login/oauth/authorize?state="):]

	_, _, err = f.svc.GithubCallback(ctx, "good-code", state)
	assert.ErrorIs(t, err, ErrAccountNotLinked)
}

func TestAuthService_GithubCallback_BadCode(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()

	url, err := f.svc.GithubAuthURL(ctx, "")
	require.NoError(t, err)
	state := url[len("https://github.com/login/oauth/authorize?state="):]

	_, _, err = f.svc.GithubCallback(ctx, "bad-code", state)
	assert.Error(t, err)
}

func TestAuthService_GithubCallback_UnknownState(t *testing.T) {
	f := setupAuthService(t)

	_, _, err := f.svc.GithubCallback(context.Background(), "good-code", "forged")
	assert.ErrorIs(t, err, oauth.ErrInvalidState)
}

func TestAuthService_CurrentUser(t *testing.T) {
	f := setupAuthService(t)
	user := testutil.TestUser(t, f.db)

	got, err := f.svc.CurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.svc.CurrentUser(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_SetTwoFactor(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()
	user := testutil.TestUser(t, f.db)

	claims, err := f.svc.SetTwoFactor(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(t, claims.IsTwoFactorEnabled)

	var reloaded model.User
	require.NoError(t, f.db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.IsTwoFactorEnabled)

	claims, err = f.svc.SetTwoFactor(ctx, user.ID, false)
	require.NoError(t, err)
	assert.False(t, claims.IsTwoFactorEnabled)
}

func TestAuthService_SetTwoFactor_OAuthUser(t *testing.T) {
	f := setupAuthService(t)
	user := testutil.TestUser(t, f.db, testutil.WithOAuth("77"))

	_, err := f.svc.SetTwoFactor(context.Background(), user.ID, true)
	assert.ErrorIs(t, err, ErrOAuthTwoFactor)
}
