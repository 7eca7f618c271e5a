package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valkey-io/valkey-go"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"

	"github.com/spacesedan/postsentiment/config"
)

func newMockValkey(t *testing.T, delay time.Duration) (*ValkeyClient, *mock.Client) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	return &ValkeyClient{
		Client:     client,
		cfg:        config.ValkeyConfig{SeenTTL: time.Hour},
		retryDelay: delay,
	}, client
}

func TestKeyFromSource(t *testing.T) {
	assert.Equal(t, VALKEY_REDDIT_KEY, keyFromSource("reddit"))
	assert.Equal(t, "hn:collected_posts", keyFromSource("hn"))
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.False(t, isConnectionError(errors.New("WRONGTYPE Operation against a key")))
}

func TestMarkProcessed_AddsWithTTL(t *testing.T) {
	vc, client := newMockValkey(t, 0)
	ctx := context.Background()

	client.EXPECT().
		DoMulti(ctx,
			mock.Match("SADD", VALKEY_REDDIT_KEY, "abc"),
			mock.Match("EXPIRE", VALKEY_REDDIT_KEY, "3600")).
		Return([]valkey.ValkeyResult{
			mock.Result(mock.ValkeyInt64(1)),
			mock.Result(mock.ValkeyInt64(1)),
		})

	assert.NoError(t, vc.MarkProcessed(ctx, "reddit", "abc"))
}

func TestMarkProcessed_ErrorAfterRetries(t *testing.T) {
	vc, client := newMockValkey(t, 0)
	ctx := context.Background()

	client.EXPECT().
		DoMulti(ctx, gomock.Any(), gomock.Any()).
		Return([]valkey.ValkeyResult{
			mock.ErrorResult(errors.New("READONLY You can't write against a read only replica")),
			mock.Result(mock.ValkeyInt64(1)),
		}).
		Times(VALKEY_RETRIES)

	assert.Error(t, vc.MarkProcessed(ctx, "reddit", "abc"))
}

func TestIsPostProcessed(t *testing.T) {
	vc, client := newMockValkey(t, 0)
	ctx := context.Background()

	client.EXPECT().
		Do(ctx, mock.Match("SISMEMBER", VALKEY_REDDIT_KEY, "seen")).
		Return(mock.Result(mock.ValkeyInt64(1)))
	client.EXPECT().
		Do(ctx, mock.Match("SISMEMBER", VALKEY_REDDIT_KEY, "fresh")).
		Return(mock.Result(mock.ValkeyInt64(0)))

	assert.True(t, vc.IsPostProcessed(ctx, "reddit", "seen"))
	assert.False(t, vc.IsPostProcessed(ctx, "reddit", "fresh"))
}

func TestIsPostProcessed_CacheErrorKeepsPost(t *testing.T) {
	vc, client := newMockValkey(t, 0)
	ctx := context.Background()

	client.EXPECT().
		Do(ctx, mock.Match("SISMEMBER", VALKEY_REDDIT_KEY, "abc")).
		Return(mock.ErrorResult(errors.New("LOADING Valkey is loading the dataset in memory"))).
		Times(VALKEY_RETRIES)

	assert.False(t, vc.IsPostProcessed(ctx, "reddit", "abc"))
}

func TestDoWithRetry_StopsWhenContextDone(t *testing.T) {
	vc, client := newMockValkey(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client.EXPECT().
		Do(ctx, gomock.Any()).
		Return(mock.ErrorResult(errors.New("LOADING"))).
		Times(1)

	done := make(chan bool)
	go func() { done <- vc.IsPostProcessed(ctx, "reddit", "abc") }()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop ignored cancelled context")
	}
}
