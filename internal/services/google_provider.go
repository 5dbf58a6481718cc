package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var (
	ErrOAuthExchange   = errors.New("oauth: failed to exchange authorization code")
	ErrOAuthUserInfo   = errors.New("oauth: failed to fetch user info")
	ErrOAuthNoSubject  = errors.New("oauth: user info missing subject or email")
	ErrOAuthUnverified = errors.New("oauth: email address not verified")
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider runs the authorization-code exchange against Google.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
	userInfoURL  string
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// Exchange trades the authorization code for a token and reads the
// identity of the signed-in Google user.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleIdentity, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Join(ErrOAuthExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.oauth2Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, errors.Join(ErrOAuthUserInfo, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrOAuthUserInfo, resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Join(ErrOAuthUserInfo, err)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, ErrOAuthNoSubject
	}
	if !info.EmailVerified {
		return nil, ErrOAuthUnverified
	}

	return &GoogleIdentity{Subject: info.Sub, Email: info.Email, Name: info.Name}, nil
}
