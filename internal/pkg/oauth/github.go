package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const defaultGithubAPI = "https://api.github.com"

// Profile 第三方账号资料，与具体提供方无关
type Profile struct {
	ProviderID string
	Login      string
	Name       string
	Email      string
	AvatarURL  string
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Name      string `json:"name"`
}

type GithubOAuth struct {
	config  *oauth2.Config
	apiBase string
}

// Option 调整 GithubOAuth，主要用于测试时替换端点
type Option func(*GithubOAuth)

// WithEndpoints 替换授权/换 token 端点和 API 地址
func WithEndpoints(endpoint oauth2.Endpoint, apiBase string) Option {
	return func(g *GithubOAuth) {
		g.config.Endpoint = endpoint
		g.apiBase = apiBase
	}
}

func NewGithubOAuth(clientID, clientSecret, redirectURI string, opts ...Option) *GithubOAuth {
	g := &GithubOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: defaultGithubAPI,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthURL 获取 GitHub 授权 URL
func (g *GithubOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// FetchProfile 用授权码换 token 并拉取用户资料
func (g *GithubOAuth) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	client := g.config.Client(ctx, token)

	var user githubUser
	if err := g.getJSON(client, "/user", &user); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	// 用户未公开邮箱时取主邮箱
	if user.Email == "" {
		if email, err := g.primaryEmail(client); err == nil {
			user.Email = email
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		ProviderID: strconv.FormatInt(user.ID, 10),
		Login:      user.Login,
		Name:       name,
		Email:      user.Email,
		AvatarURL:  user.AvatarURL,
	}, nil
}

func (g *GithubOAuth) primaryEmail(client *http.Client) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := g.getJSON(client, "/user/emails", &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func (g *GithubOAuth) getJSON(client *http.Client, path string, out interface{}) error {
	resp, err := client.Get(g.apiBase + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("github api %s: %d %s", path, resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
