// Package oauth holds the OAuth provider registry. Providers are registered
// only when their credentials are present in the environment; an entry that
// cannot authenticate anyone simply does not exist, so callers treat an
// unknown provider name and an unconfigured one identically.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Profile is the normalized callback identity every provider resolves to.
// Raw carries the provider's original userinfo JSON for caching on the user
// record.
type Profile struct {
	ProviderID string
	Email      string
	Name       string
	Raw        string
}

// Provider wraps an oauth2.Config with the provider's userinfo endpoint and
// response normalization.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	userInfoURL string
	normalize   func(body []byte) (Profile, error)
}

// AuthCodeURL returns the provider's consent page URL for the given state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// FetchProfile exchanges an authorization code and fetches the normalized
// user profile from the provider's userinfo endpoint.
func (p *Provider) FetchProfile(ctx context.Context, code string) (Profile, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: code exchange failed: %w", p.Name, err)
	}
	client := p.Config.Client(ctx, token)
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: userinfo fetch failed: %w", p.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%s: userinfo returned status %d", p.Name, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Profile{}, err
	}
	profile, err := p.normalize(body)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", p.Name, err)
	}
	profile.Raw = string(body)
	return profile, nil
}

// Registry maps provider name to a configured provider.
type Registry map[string]*Provider

// Get looks up a provider by name.
func (r Registry) Get(name string) (*Provider, bool) {
	p, ok := r[name]
	return p, ok
}

// NewRegistryFromEnv builds the registry from environment credentials.
// Supported variables per provider:
//
//	GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET
//	GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET
//
// OAUTH_REDIRECT_BASE is the externally visible base URL; the callback path
// is appended per provider. Providers with missing credentials are omitted.
func NewRegistryFromEnv() Registry {
	reg := Registry{}
	base := os.Getenv("OAUTH_REDIRECT_BASE")

	if id, secret := os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"); id != "" && secret != "" {
		reg["google"] = &Provider{
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     id,
				ClientSecret: secret,
				Endpoint:     google.Endpoint,
				RedirectURL:  base + "/api/v1/auth/google/callback",
				Scopes:       []string{"openid", "email", "profile"},
			},
			userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			normalize:   normalizeGoogle,
		}
	}

	if id, secret := os.Getenv("GITHUB_CLIENT_ID"), os.Getenv("GITHUB_CLIENT_SECRET"); id != "" && secret != "" {
		reg["github"] = &Provider{
			Name: "github",
			Config: &oauth2.Config{
				ClientID:     id,
				ClientSecret: secret,
				Endpoint:     github.Endpoint,
				RedirectURL:  base + "/api/v1/auth/github/callback",
				Scopes:       []string{"read:user", "user:email"},
			},
			userInfoURL: "https://api.github.com/user",
			normalize:   normalizeGitHub,
		}
	}

	return reg
}

func normalizeGoogle(body []byte) (Profile, error) {
	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return Profile{}, err
	}
	if info.ID == "" || info.Email == "" {
		return Profile{}, fmt.Errorf("userinfo missing id or email")
	}
	return Profile{ProviderID: info.ID, Email: info.Email, Name: info.Name}, nil
}

func normalizeGitHub(body []byte) (Profile, error) {
	var info struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return Profile{}, err
	}
	if info.ID == 0 || info.Email == "" {
		return Profile{}, fmt.Errorf("userinfo missing id or public email")
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return Profile{ProviderID: strconv.FormatInt(info.ID, 10), Email: info.Email, Name: name}, nil
}
