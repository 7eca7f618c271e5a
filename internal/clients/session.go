package clients

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/spacesedan/postsentiment/config"
)

// SessionManager exchanges client credentials for a bearer token. It does
// not refresh: a batch run authenticates once.
type SessionManager struct {
	oauth     *clientcredentials.Config
	userAgent string
	http      *http.Client
}

func NewSessionManager(cfg config.RedditConfig, httpClient *http.Client) *SessionManager {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = REDDIT_AUTH_URL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DEFAULT_HTTP_TIMEOUT}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = USER_AGENT
	}

	return &SessionManager{
		oauth: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     authURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		userAgent: userAgent,
		http:      withUserAgent(httpClient, userAgent),
	}
}

func (s *SessionManager) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.http)

	token, err := s.oauth.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &AuthError{Status: retrieveErr.Response.StatusCode, Err: err}
		}
		return nil, &AuthError{Err: err}
	}
	if token.AccessToken == "" {
		return nil, &AuthError{Err: errors.New("token response missing access_token")}
	}

	slog.Info("[RedditClient] Authenticated", slog.String("token_type", token.Type()))
	return token, nil
}

// Client returns an HTTP client that attaches token as a bearer header to
// every request.
func (s *SessionManager) Client(ctx context.Context, token *oauth2.Token) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	client.Timeout = s.http.Timeout
	return client
}

type userAgentTransport struct {
	userAgent string
	next      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(r)
}

func withUserAgent(c *http.Client, userAgent string) *http.Client {
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	clone := *c
	clone.Transport = &userAgentTransport{userAgent: userAgent, next: next}
	return &clone
}
