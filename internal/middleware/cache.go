package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Swati9798/Vehicle-Parking/internal/config"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

// Cache scopes.  A cached entry embeds the current generation of every scope
// it depends on; bumping a generation orphans those entries, which then age
// out through their TTL.
const (
	ScopeLots  = "lots"  // lot listings, lot detail, search
	ScopeAdmin = "admin" // dashboard, summaries, admin listings
	ScopeUser  = "user"  // per-account views; expands to user:<id> plus users

	scopeUsers = "users"
)

// UserScope names the cache scope of one account's views.
func UserScope(userID uint64) string { return "user:" + strconv.FormatUint(userID, 10) }

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
		cw.buf.Write(b)
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// ResponseCache is a Redis read-through cache for GET responses.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "parking:cache"
	}
	return &ResponseCache{cfg: cfg, rdb: rdb}
}

// Active reports whether responses are actually cached.
func (rc *ResponseCache) Active() bool { return rc.cfg.Enabled && rc.rdb != nil }

func (rc *ResponseCache) genKey(scope string) string { return rc.cfg.Prefix + ":gen:" + scope }

// expandScopes resolves ScopeUser into the account-specific scopes.
func expandScopes(c echo.Context, scopes []string) []string {
	out := make([]string, 0, len(scopes)+1)
	for _, s := range scopes {
		if s == ScopeUser {
			out = append(out, "user:"+userKey(c, "anon"), scopeUsers)
			continue
		}
		out = append(out, s)
	}
	return out
}

// cacheKey builds a stable key from the strategy parts and each scope name
// paired with its generation.  Scope names carry the account for per-user
// views, and the role is always part of the key because listings differ for
// admins and users.  The refresh flag is dropped from the query so a
// refreshed response replaces the normal entry.
func (rc *ResponseCache) cacheKey(c echo.Context, scopes, gens []string) string {
	r := c.Request()
	q := r.URL.Query()
	q.Del(rc.cfg.RefreshParam)
	query := q.Encode()

	var parts []string
	switch strings.ToLower(rc.cfg.KeyStrategy) {
	case "route":
		parts = append(parts, "route", c.Path())
	case "route_query":
		parts = append(parts, "route", c.Path(), "q", query)
	default: // "user_route_query"
		parts = append(parts, "user", userKey(c, "anon"), "route", c.Path(), "q", query)
	}
	role, _ := c.Get(CtxRole).(string)
	pairs := make([]string, len(scopes))
	for i, sc := range scopes {
		pairs[i] = sc + "=" + gens[i]
	}
	parts = append(parts, "role", role, "uri", r.URL.Path, "gen", strings.Join(pairs, "."))
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:resp:%x", rc.cfg.Prefix, sum[:])
}

func (rc *ResponseCache) generations(ctx context.Context, scopes []string) ([]string, error) {
	if len(scopes) == 0 {
		return nil, nil
	}
	keys := make([]string, len(scopes))
	for i, s := range scopes {
		keys[i] = rc.genKey(s)
	}
	vals, err := rc.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[i] = s
		} else {
			out[i] = "0"
		}
	}
	return out, nil
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// Middleware caches 200 responses of the wrapped routes under the given
// scopes.  A request carrying ?refresh=true skips the lookup and stores a
// fresh copy.  Responses carry X-Cache: HIT, MISS or BYPASS.
func (rc *ResponseCache) Middleware(scopes ...string) echo.MiddlewareFunc {
	if !rc.Active() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			expanded := expandScopes(c, scopes)
			gens, err := rc.generations(ctx, expanded)
			if err != nil {
				return next(c)
			}
			key := rc.cacheKey(c, expanded, gens)

			refresh, _ := strconv.ParseBool(c.QueryParam(rc.cfg.RefreshParam))
			if !refresh {
				if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
					if status, hdr, body, ok := decodePayload(bs); ok {
						for k, vals := range hdr {
							if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "X-Cache") {
								continue
							}
							for _, v := range vals {
								c.Response().Header().Add(k, v)
							}
						}
						c.Response().Header().Set("X-Cache", "HIT")
						c.Response().WriteHeader(status)
						_, _ = c.Response().Write(body)
						return nil
					}
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			if refresh {
				c.Response().Header().Set("X-Cache", "BYPASS")
			} else {
				c.Response().Header().Set("X-Cache", "MISS")
			}
			if err := next(c); err != nil {
				return err
			}

			if cw.status != http.StatusOK || (cw.limit > 0 && cw.size > cw.limit) {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				_ = rc.rdb.Set(context.Background(), key, payload, rc.cfg.TTL).Err()
			}
			return nil
		}
	}
}

// Invalidate bumps the generation of each scope.
func (rc *ResponseCache) Invalidate(ctx context.Context, scopes ...string) error {
	if rc.rdb == nil || len(scopes) == 0 {
		return nil
	}
	pipe := rc.rdb.TxPipeline()
	for _, s := range scopes {
		pipe.Incr(ctx, rc.genKey(s))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// OnChange invalidates whatever a committed change makes stale.  Lot edits
// reach every account's reservation views, so they bump the shared users
// scope too.
func (rc *ResponseCache) OnChange(ctx context.Context, ch service.Change) {
	scopes := []string{ScopeLots, ScopeAdmin}
	switch ch.Kind {
	case service.ChangeLotUpdated, service.ChangeLotDeleted:
		scopes = append(scopes, scopeUsers)
	}
	if ch.UserID != 0 {
		scopes = append(scopes, UserScope(ch.UserID))
	}
	if err := rc.Invalidate(ctx, scopes...); err != nil {
		log.Printf("cache: invalidate %v: %v", scopes, err)
	}
}

// CacheStatus describes the cache for the admin status endpoint.
type CacheStatus struct {
	Enabled     bool   `json:"enabled"`
	Connected   bool   `json:"connected"`
	Entries     int64  `json:"entries"`
	TTLSeconds  int64  `json:"ttl_seconds"`
	KeyStrategy string `json:"key_strategy"`
	Prefix      string `json:"prefix"`
}

// Status pings Redis and counts cached responses.
func (rc *ResponseCache) Status(ctx context.Context) CacheStatus {
	st := CacheStatus{
		Enabled:     rc.cfg.Enabled,
		TTLSeconds:  int64(rc.cfg.TTL / time.Second),
		KeyStrategy: rc.cfg.KeyStrategy,
		Prefix:      rc.cfg.Prefix,
	}
	if rc.rdb == nil || rc.rdb.Ping(ctx).Err() != nil {
		return st
	}
	st.Connected = true
	iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":resp:*", 200).Iterator()
	for iter.Next(ctx) {
		st.Entries++
	}
	return st
}

// Clear deletes every cached response and generation counter and returns
// the number of keys removed.
func (rc *ResponseCache) Clear(ctx context.Context) (int64, error) {
	if rc.rdb == nil {
		return 0, nil
	}
	var removed int64
	iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":*", 200).Iterator()
	batch := make([]string, 0, 200)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := rc.rdb.Del(ctx, batch...).Result()
		removed += n
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, flush()
}
