package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/liveclass/backend/config"
	"github.com/liveclass/backend/internal/apperr"
)

// tokenExpiryMargin is subtracted from a token's lifetime before it is cached in Redis.
const tokenExpiryMargin = 30 * time.Second

// graphScope is the client-credentials scope for Microsoft Graph.
const graphScope = "https://graph.microsoft.com/.default"

// TokenCache is the subset of go-redis used to share provider tokens between processes.
type TokenCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ZoomTokenSource exchanges Zoom server-to-server credentials for an access token
// (grant_type=account_credentials, client id/secret as Basic auth).
func ZoomTokenSource(cfg config.ZoomConfig, hc *http.Client) oauth2.TokenSource {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	return cc.TokenSource(oauthContext(hc))
}

// TeamsTokenSource exchanges Azure AD app credentials for a Graph token.
func TeamsTokenSource(cfg config.TeamsConfig, hc *http.Client) oauth2.TokenSource {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenEndpoint(),
		Scopes:       []string{graphScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return cc.TokenSource(oauthContext(hc))
}

func oauthContext(hc *http.Client) context.Context {
	if hc == nil {
		return context.Background()
	}
	return context.WithValue(context.Background(), oauth2.HTTPClient, hc)
}

// CachedTokenSource keeps tokens in process memory and, when cache is set, in Redis under key
// so that the API server and classctl share one token until shortly before it expires.
func CachedTokenSource(cache TokenCache, key string, src oauth2.TokenSource, logger *zap.Logger) oauth2.TokenSource {
	if cache == nil {
		return oauth2.ReuseTokenSource(nil, src)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return oauth2.ReuseTokenSource(nil, &redisTokenSource{cache: cache, key: key, src: src, logger: logger})
}

type redisTokenSource struct {
	cache  TokenCache
	key    string
	src    oauth2.TokenSource
	logger *zap.Logger
}

func (r *redisTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := r.cache.Get(ctx, r.key).Bytes()
	switch {
	case err == nil:
		var tok oauth2.Token
		if jerr := json.Unmarshal(raw, &tok); jerr == nil && tok.Valid() {
			return &tok, nil
		}
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("token cache read failed", zap.String("key", r.key), zap.Error(err))
	}

	tok, err := r.src.Token()
	if err != nil {
		return nil, err
	}
	ttl := time.Until(tok.Expiry) - tokenExpiryMargin
	if tok.Expiry.IsZero() || ttl <= 0 {
		return tok, nil
	}
	if raw, err := json.Marshal(tok); err == nil {
		if err := r.cache.Set(ctx, r.key, raw, ttl).Err(); err != nil {
			r.logger.Warn("token cache write failed", zap.String("key", r.key), zap.Error(err))
		}
	}
	return tok, nil
}

// accessToken pulls a token from ts, mapping OAuth endpoint rejections to *apperr.ProviderError.
func accessToken(ts oauth2.TokenSource) (string, error) {
	tok, err := ts.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := http.StatusBadGateway
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			return "", &apperr.ProviderError{Op: "token", StatusCode: status, Body: string(re.Body)}
		}
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	return tok.AccessToken, nil
}
