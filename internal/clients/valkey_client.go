package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/postsentiment/config"
)

const (
	VALKEY_REDDIT_KEY  = "reddit:collected_posts"
	VALKEY_RETRIES     = 3
	VALKEY_RETRY_DELAY = 250 * time.Millisecond
	VALKEY_DEFAULT_TTL = 86400
)

// ValkeyClient records which posts earlier runs already collected.
type ValkeyClient struct {
	Client     valkey.Client
	cfg        config.ValkeyConfig
	retryDelay time.Duration
	mu         sync.Mutex
}

func NewValkeyClient(ctx context.Context, cfg config.ValkeyConfig) (*ValkeyClient, error) {
	client, err := connectValkey(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &ValkeyClient{Client: client, cfg: cfg, retryDelay: VALKEY_RETRY_DELAY}, nil
}

func connectValkey(ctx context.Context, cfg config.ValkeyConfig) (valkey.Client, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.InitAddress},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey")
	return client, nil
}

func (vc *ValkeyClient) recreateClient(ctx context.Context) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := connectValkey(ctx, vc.cfg)
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}
	vc.Client.Close()
	vc.Client = client
}

func (vc *ValkeyClient) Close() {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.Client.Close()
}

func (vc *ValkeyClient) MarkProcessed(ctx context.Context, source string, key string) error {
	sourceKey := keyFromSource(source)
	ttl := int64(vc.cfg.SeenTTL / time.Second)
	if ttl <= 0 {
		ttl = VALKEY_DEFAULT_TTL
	}
	build := func(c valkey.Client) []valkey.Completed {
		return []valkey.Completed{
			c.B().Sadd().Key(sourceKey).Member(key).Build(),
			c.B().Expire().Key(sourceKey).Seconds(ttl).Build(),
		}
	}

	responses := vc.DoMultiWithRetry(ctx, build, VALKEY_RETRIES)
	for _, res := range responses {
		if err := res.Error(); err != nil {
			return fmt.Errorf("[ValkeyClient] mark processed: %w", err)
		}
	}
	return nil
}

// IsPostProcessed reports false when the cache cannot answer, so a cache
// outage never drops posts.
func (vc *ValkeyClient) IsPostProcessed(ctx context.Context, source string, key string) bool {
	sourceKey := keyFromSource(source)
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Sismember().Key(sourceKey).Member(key).Build()
	}, VALKEY_RETRIES)

	if err := res.Error(); isConnectionError(err) {
		vc.recreateClient(ctx)
	}

	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

func keyFromSource(source string) string {
	switch source {
	case "reddit":
		return VALKEY_REDDIT_KEY
	default:
		return source + ":collected_posts"
	}
}

// DoMultiWithRetry rebuilds the commands on every attempt since a command is
// recycled once it has been sent.
func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, build func(valkey.Client) []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		results = vc.Client.DoMulti(ctx, build(vc.Client)...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] Do Multi failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				if isConnectionError(r.Error()) {
					vc.recreateClient(ctx)
				}
				break
			}
		}
		if !hasErr || i == retries-1 || !vc.wait(ctx) {
			break
		}
	}

	return results
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func(valkey.Client) valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, build(vc.Client))
		if result.Error() == nil {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		if i == retries-1 || !vc.wait(ctx) {
			break
		}
	}

	return result
}

// wait pauses between attempts and reports false once ctx is done.
func (vc *ValkeyClient) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(vc.retryDelay):
		return true
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
