// Package oauth drives the authorization-code dance against external
// identity providers and normalizes their profiles.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	githubep "golang.org/x/oauth2/github"
	googleep "golang.org/x/oauth2/google"

	"github.com/francopiloto/finance-api/internal/config"
	"github.com/francopiloto/finance-api/internal/domain"
)

// Providers holds the configured oauth2 clients keyed by provider.
type Providers struct {
	configs map[domain.Provider]*oauth2.Config
	client  *http.Client
}

func NewProviders(cfg *config.Config) *Providers {
	configs := make(map[domain.Provider]*oauth2.Config)

	if cfg.OAuthGoogle.ClientID != "" {
		configs[domain.ProviderGoogle] = &oauth2.Config{
			ClientID:     cfg.OAuthGoogle.ClientID,
			ClientSecret: cfg.OAuthGoogle.ClientSecret,
			RedirectURL:  cfg.OAuthGoogle.RedirectURL,
			Endpoint:     googleep.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
		}
	}
	if cfg.OAuthGitHub.ClientID != "" {
		configs[domain.ProviderGitHub] = &oauth2.Config{
			ClientID:     cfg.OAuthGitHub.ClientID,
			ClientSecret: cfg.OAuthGitHub.ClientSecret,
			RedirectURL:  cfg.OAuthGitHub.RedirectURL,
			Endpoint:     githubep.Endpoint,
			Scopes:       []string{"user:email"},
		}
	}

	return &Providers{configs: configs, client: http.DefaultClient}
}

// AuthURL builds the provider's consent URL for the given state.
func (p *Providers) AuthURL(provider domain.Provider, state string) (string, error) {
	conf, ok := p.configs[provider]
	if !ok {
		return "", fmt.Errorf("provider %q not configured", provider)
	}
	return conf.AuthCodeURL(state), nil
}

// Exchange trades the authorization code for the provider's profile.
func (p *Providers) Exchange(ctx context.Context, provider domain.Provider, code string) (domain.OAuthProfile, error) {
	conf, ok := p.configs[provider]
	if !ok {
		return domain.OAuthProfile{}, fmt.Errorf("provider %q not configured", provider)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	switch provider {
	case domain.ProviderGoogle:
		return p.fetchGoogleProfile(ctx, tok.AccessToken)
	case domain.ProviderGitHub:
		return p.fetchGitHubProfile(ctx, tok.AccessToken)
	}
	return domain.OAuthProfile{}, fmt.Errorf("provider %q not configured", provider)
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (p *Providers) fetchGoogleProfile(ctx context.Context, accessToken string) (domain.OAuthProfile, error) {
	var info googleUserInfo
	if err := p.getJSON(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", accessToken, &info); err != nil {
		return domain.OAuthProfile{}, err
	}
	if info.Email == "" {
		return domain.OAuthProfile{}, fmt.Errorf("google profile has no email")
	}

	return domain.OAuthProfile{
		Provider:       domain.ProviderGoogle,
		ProviderUserID: info.ID,
		Email:          info.Email,
		AvatarURL:      info.Picture,
	}, nil
}

type githubUserInfo struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

func (p *Providers) fetchGitHubProfile(ctx context.Context, accessToken string) (domain.OAuthProfile, error) {
	var info githubUserInfo
	if err := p.getJSON(ctx, "https://api.github.com/user", accessToken, &info); err != nil {
		return domain.OAuthProfile{}, err
	}

	// GitHub omits the email on the profile when it is private.
	if info.Email == "" {
		var emails []githubEmail
		if err := p.getJSON(ctx, "https://api.github.com/user/emails", accessToken, &emails); err != nil {
			return domain.OAuthProfile{}, err
		}
		for _, e := range emails {
			if e.Primary {
				info.Email = e.Email
				break
			}
		}
		if info.Email == "" && len(emails) > 0 {
			info.Email = emails[0].Email
		}
	}
	if info.Email == "" {
		return domain.OAuthProfile{}, fmt.Errorf("github profile has no email")
	}

	return domain.OAuthProfile{
		Provider:       domain.ProviderGitHub,
		ProviderUserID: strconv.FormatInt(info.ID, 10),
		Email:          info.Email,
		AvatarURL:      info.AvatarURL,
	}, nil
}

func (p *Providers) getJSON(ctx context.Context, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
