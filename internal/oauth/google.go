// Package oauth implements the server-side Google authorization-code
// exchange used for social login.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobfinder/internal/models"
)

const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Profile is the subset of the OpenID userinfo response the application
// consumes.
type Profile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// GoogleClient exchanges authorization codes for tokens and fetches the
// user's profile. URLs are configurable so tests can point it at a local
// server.
type GoogleClient struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	TokenURL    string
	UserinfoURL string
	HTTPClient  *http.Client
}

// NewGoogleClient builds a client against Google's production endpoints.
func NewGoogleClient(clientID, clientSecret, redirectURL string) *GoogleClient {
	return &GoogleClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		TokenURL:     defaultTokenURL,
		UserinfoURL:  defaultUserinfoURL,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether credentials are present.
func (g *GoogleClient) Configured() bool {
	return g != nil && g.ClientID != "" && g.ClientSecret != ""
}

// Exchange trades an authorization code for an access token.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {g.ClientID},
		"client_secret": {g.ClientSecret},
		"redirect_uri":  {g.RedirectURL},
		"grant_type":    {"authorization_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", models.NewIntegrationError("Google token exchange failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", models.NewIntegrationError("Google token exchange failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", models.NewIntegrationError("Google rejected the authorization code",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", models.NewIntegrationError("Google token exchange failed", err)
	}
	if token.AccessToken == "" {
		return "", models.NewIntegrationError("Google token exchange failed",
			errors.New("empty access token in response"))
	}
	return token.AccessToken, nil
}

// FetchProfile retrieves the userinfo document for an access token.
func (g *GoogleClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserinfoURL, nil)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, models.NewIntegrationError("Google userinfo request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewIntegrationError("Google userinfo request failed",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var profile Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&profile); err != nil {
		return nil, models.NewIntegrationError("Google userinfo request failed", err)
	}
	if profile.Subject == "" || profile.Email == "" {
		return nil, models.NewIntegrationError("Google userinfo request failed",
			errors.New("response missing subject or email"))
	}
	return &profile, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
