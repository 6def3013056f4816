package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var (
	ErrExchangeFailed = errors.New("authorization code exchange failed")
	ErrUserInfoFailed = errors.New("userinfo request failed")
)

// maxUserInfoBytes bounds provider responses.
const maxUserInfoBytes = 1 << 20

// Endpoints locates the provider's OAuth2 and profile APIs.
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	// EmailsURL, when set, is queried for the primary verified address if the userinfo
	// response carries no email (GitHub users with a private email).
	EmailsURL string
	Scopes    []string
}

// GoogleEndpoints returns the public Google endpoints.
func GoogleEndpoints() Endpoints {
	return Endpoints{
		AuthURL:     endpoints.Google.AuthURL,
		TokenURL:    endpoints.Google.TokenURL,
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		Scopes:      []string{"openid", "email", "profile"},
	}
}

// GitHubEndpoints returns the public GitHub endpoints.
func GitHubEndpoints() Endpoints {
	return Endpoints{
		AuthURL:     endpoints.GitHub.AuthURL,
		TokenURL:    endpoints.GitHub.TokenURL,
		UserInfoURL: "https://api.github.com/user",
		EmailsURL:   "https://api.github.com/user/emails",
		Scopes:      []string{"read:user", "user:email"},
	}
}

// DefaultEndpoints returns the public endpoints for id.
func DefaultEndpoints(id ID) (Endpoints, error) {
	switch id {
	case Google:
		return GoogleEndpoints(), nil
	case GitHub:
		return GitHubEndpoints(), nil
	default:
		return Endpoints{}, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
}

// ClientConfig configures a Client. Zero-valued Endpoints fall back to DefaultEndpoints.
type ClientConfig struct {
	Provider     ID
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoints    Endpoints
	// HTTPClient is used for every provider call when set.
	HTTPClient *http.Client
}

// Client resolves authorization codes into profiles for one provider.
type Client struct {
	id         ID
	oauth      *oauth2.Config
	endpoints  Endpoints
	extractor  Extractor
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	extractor, err := ExtractorFor(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%s: client_id and client_secret are required", cfg.Provider)
	}

	eps := cfg.Endpoints
	if eps.TokenURL == "" {
		eps, _ = DefaultEndpoints(cfg.Provider)
	}
	if eps.UserInfoURL == "" {
		return nil, fmt.Errorf("%s: user_info_url is required", cfg.Provider)
	}

	return &Client{
		id: cfg.Provider,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  eps.AuthURL,
				TokenURL: eps.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      eps.Scopes,
		},
		endpoints:  eps,
		extractor:  extractor,
		httpClient: cfg.HTTPClient,
	}, nil
}

func (c *Client) ID() ID { return c.id }

// AuthCodeURL returns the consent page URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Resolve exchanges code for a provider token and maps the provider's userinfo response
// onto a Profile.
func (c *Client) Resolve(ctx context.Context, code string) (Profile, error) {
	if code == "" {
		return Profile{}, fmt.Errorf("%w: missing authorization code", ErrExchangeFailed)
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	client := c.oauth.Client(ctx, token)

	var attrs map[string]any
	if err := getJSON(ctx, client, c.endpoints.UserInfoURL, &attrs); err != nil {
		return Profile{}, err
	}
	if attrs == nil {
		return Profile{}, fmt.Errorf("%w: empty userinfo response", ErrUserInfoFailed)
	}

	if getString(attrs, "email") == "" && c.endpoints.EmailsURL != "" {
		email, err := c.primaryEmail(ctx, client)
		if err != nil {
			return Profile{}, err
		}
		attrs["email"] = email
	}

	return c.extractor.Extract(attrs)
}

type providerEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (c *Client) primaryEmail(ctx context.Context, client *http.Client) (string, error) {
	var emails []providerEmail
	if err := getJSON(ctx, client, c.endpoints.EmailsURL, &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUserInfoFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUserInfoFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUserInfoFailed, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUserInfoFailed, err)
	}
	return nil
}
