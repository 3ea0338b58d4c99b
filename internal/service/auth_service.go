package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/notemeet_server/config"
	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/pkg/jwt"
	"github.com/qs3c/notemeet_server/internal/pkg/oauth"
	"github.com/qs3c/notemeet_server/internal/pkg/session"
	"github.com/qs3c/notemeet_server/internal/pkg/twofactor"
	"github.com/qs3c/notemeet_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid code")
	ErrUserNotFound       = errors.New("user not found")
	ErrOAuthTwoFactor     = errors.New("two-factor authentication is not available for OAuth accounts")
	ErrAccountNotLinked   = errors.New("email already registered with another sign-in method")
)

// Mailer 发送认证相关邮件
type Mailer interface {
	SendTwoFactorCode(to, code string) error
	SendWelcome(to, name string) error
}

// CodeStore 两步验证码存储
type CodeStore interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Verify(ctx context.Context, userID int64, code string) error
}

// StateStore OAuth state 存储
type StateStore interface {
	Generate(ctx context.Context, returnTo string) (string, error)
	Consume(ctx context.Context, state string) (string, error)
}

// OAuthProvider 第三方登录
type OAuthProvider interface {
	AuthURL(state string) string
	FetchProfile(ctx context.Context, code string) (*oauth.Profile, error)
}

type AuthService struct {
	userRepo *repository.UserRepository
	codes    CodeStore
	states   StateStore
	github   OAuthProvider
	mailer   Mailer
	cfg      *config.Config
}

func NewAuthService(
	userRepo *repository.UserRepository,
	codes CodeStore,
	states StateStore,
	github OAuthProvider,
	mailer Mailer,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		codes:    codes,
		states:   states,
		github:   github,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	email := req.Email
	hash := string(hashed)
	user := &model.User{
		Name:         req.Name,
		Email:        &email,
		PasswordHash: &hash,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 欢迎邮件失败不影响注册
	if err := s.mailer.SendWelcome(email, user.Name); err != nil {
		slog.WarnContext(ctx, "send welcome email failed", "user_id", user.ID, "error", err)
	}

	return &dto.RegisterResponse{UserID: user.ID}, nil
}

// Login 邮箱密码登录
// 开启两步验证的用户第一次提交不带验证码，此时发送验证码并返回 TwoFactor
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsTwoFactorEnabled {
		if req.Code == "" {
			if err := s.sendTwoFactorCode(ctx, user); err != nil {
				return nil, err
			}
			return &dto.LoginResponse{TwoFactor: true}, nil
		}

		if err := s.codes.Verify(ctx, user.ID, req.Code); err != nil {
			if errors.Is(err, twofactor.ErrInvalidCode) {
				return nil, ErrInvalidCode
			}
			return nil, err
		}
	}

	return s.issueToken(user)
}

func (s *AuthService) sendTwoFactorCode(ctx context.Context, user *model.User) error {
	if user.Email == nil {
		return ErrInvalidCredentials
	}
	code, err := s.codes.Issue(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("issue two-factor code: %w", err)
	}
	if err := s.mailer.SendTwoFactorCode(*user.Email, code); err != nil {
		return fmt.Errorf("send two-factor code: %w", err)
	}
	return nil
}

func (s *AuthService) issueToken(user *model.User) (*dto.LoginResponse, error) {
	claims := session.FromUser(user)
	token, err := jwt.GenerateToken(user.ID, claims.Role, claims.IsTwoFactorEnabled, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  &claims,
	}, nil
}

// GithubAuthURL 生成 GitHub 授权地址，returnTo 为登录完成后的回跳地址
func (s *AuthService) GithubAuthURL(ctx context.Context, returnTo string) (string, error) {
	state, err := s.states.Generate(ctx, returnTo)
	if err != nil {
		return "", err
	}
	return s.github.AuthURL(state), nil
}

// GithubCallback 处理 GitHub 回调，返回登录结果和生成 state 时记录的回跳地址
func (s *AuthService) GithubCallback(ctx context.Context, code, state string) (*dto.LoginResponse, string, error) {
	returnTo, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, "", err
	}

	profile, err := s.github.FetchProfile(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("fetch github profile: %w", err)
	}

	user, err := s.findOrCreateGithubUser(ctx, profile)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return resp, returnTo, nil
}

func (s *AuthService) findOrCreateGithubUser(ctx context.Context, profile *oauth.Profile) (*model.User, error) {
	user, err := s.userRepo.GetByGithubID(ctx, profile.ProviderID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &model.User{
		Name:     profile.Name,
		Image:    profile.AvatarURL,
		GithubID: &profile.ProviderID,
		Role:     model.RoleUser,
		IsOAuth:  true,
	}

	if profile.Email != "" {
		exists, err := s.userRepo.ExistsByEmail(ctx, profile.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrAccountNotLinked
		}
		email := profile.Email
		now := time.Now().UTC()
		user.Email = &email
		// GitHub 只返回已验证的主邮箱
		user.EmailVerifiedAt = &now
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create github user: %w", err)
	}
	return user, nil
}

// CurrentUser 读取当前用户记录
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetTwoFactor 开关两步验证，OAuth 账号没有密码登录，不能开启
func (s *AuthService) SetTwoFactor(ctx context.Context, userID int64, enabled bool) (*session.Claims, error) {
	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enabled && user.IsOAuth {
		return nil, ErrOAuthTwoFactor
	}

	if user.IsTwoFactorEnabled != enabled {
		if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
			"is_two_factor_enabled": enabled,
		}); err != nil {
			return nil, err
		}
		user.IsTwoFactorEnabled = enabled
	}

	claims := session.FromUser(user)
	return &claims, nil
}
