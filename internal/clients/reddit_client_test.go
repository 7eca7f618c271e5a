package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/postsentiment/config"
	"github.com/spacesedan/postsentiment/internal/models"
)

const listingBody = `{"kind":"Listing","data":{"after":"t3_x","children":[
	{"kind":"t3","data":{"title":"Ghosted again","selftext":"third interview and nothing","subreddit":"jobs","num_comments":12,"ups":40}},
	{"kind":"t3","data":{"selftext":"no title here"}}
]}}`

func newTokenServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func redditConfig(authURL string) config.RedditConfig {
	return config.RedditConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		UserAgent:    "test-agent",
		AuthURL:      authURL,
	}
}

func TestAuthenticate_Success(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK, `{"access_token":"tok-123","token_type":"bearer","expires_in":86400}`)

	token, err := NewSessionManager(redditConfig(srv.URL), nil).Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token.AccessToken)
	assert.Equal(t, "Bearer", token.Type())
}

func TestAuthenticate_Non2xxIsAuthError(t *testing.T) {
	srv := newTokenServer(t, http.StatusUnauthorized, `{"message":"Unauthorized","error":401}`)

	_, err := NewSessionManager(redditConfig(srv.URL), nil).Authenticate(context.Background())

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestAuthenticate_MissingTokenIsAuthError(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK, `{"token_type":"bearer"}`)

	_, err := NewSessionManager(redditConfig(srv.URL), nil).Authenticate(context.Background())

	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr))
}

func newAPI(t *testing.T, handler http.HandlerFunc) *RedditClient {
	t.Helper()
	tokenSrv := newTokenServer(t, http.StatusOK, `{"access_token":"tok-123","token_type":"bearer"}`)
	apiSrv := httptest.NewServer(handler)
	t.Cleanup(apiSrv.Close)

	sm := NewSessionManager(redditConfig(tokenSrv.URL), nil)
	token, err := sm.Authenticate(context.Background())
	require.NoError(t, err)

	return NewRedditClient(apiSrv.URL, sm.Client(context.Background(), token), NewLimiter(1000))
}

func TestFetchTop(t *testing.T) {
	client := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/jobs/top", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(listingBody))
	})

	listing, err := client.FetchTop(context.Background(), "jobs")
	require.NoError(t, err)
	require.Len(t, listing.Data.Children, 2)

	first := listing.Data.Children[0].Data
	assert.Equal(t, "Ghosted again", *first.Title)
	assert.Equal(t, 12, *first.NumComments)
	assert.Nil(t, listing.Data.Children[1].Data.Title)
}

func TestFetchSearch_Query(t *testing.T) {
	client := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "no response", r.URL.Query().Get("q"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "new", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`{"data":{"children":[]}}`))
	})

	listing, err := client.FetchSearch(context.Background(), "no response")
	require.NoError(t, err)
	assert.Empty(t, listing.Data.Children)
}

func TestFetch_Non2xxIsFetchError(t *testing.T) {
	client := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.FetchTop(context.Background(), "private_sub")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "private_sub", fetchErr.Target)
	assert.Equal(t, http.StatusForbidden, fetchErr.Status)
}

func TestFetch_TransportErrorIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewRedditClient(srv.URL, &http.Client{}, nil)
	_, err := client.FetchTop(context.Background(), "jobs")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.Status)
}

func TestDecodeListing_SchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"not json":         `<html>`,
		"missing data":     `{"kind":"Listing"}`,
		"missing children": `{"data":{"after":null}}`,
		"wrong type":       `{"data":{"children":[{"data":{"num_comments":"many"}}]}}`,
		"child no data":    `{"data":{"children":[{"kind":"t3"}]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeListing(strings.NewReader(body))

			var schemaErr *models.SchemaError
			assert.True(t, errors.As(err, &schemaErr), "got %v", err)
		})
	}
}
