package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/pkordes/hos-logbook/internal/domain"
)

const routeCacheSchema = `
CREATE TABLE IF NOT EXISTS route_cache (
	waypoints  TEXT    PRIMARY KEY,
	route      TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);`

// OpenCache opens (creating if needed) the SQLite file at path.
func OpenCache(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("routing.OpenCache: open %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("routing.OpenCache: ping %q: %w", path, err)
	}
	return db, nil
}

// CachedProvider answers repeated route lookups from a SQLite table and
// collapses identical concurrent lookups into one upstream call.
type CachedProvider struct {
	db     *sql.DB
	next   Provider
	ttl    time.Duration
	group  singleflight.Group
	now    func() time.Time
	logger *slog.Logger
}

// NewCachedProvider creates the cache table if missing. A ttl of zero keeps
// entries forever.
func NewCachedProvider(ctx context.Context, db *sql.DB, next Provider, ttl time.Duration, logger *slog.Logger) (*CachedProvider, error) {
	if db == nil {
		return nil, errors.New("routing.NewCachedProvider: db is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.ExecContext(ctx, routeCacheSchema); err != nil {
		return nil, fmt.Errorf("routing.NewCachedProvider: create table: %w", err)
	}
	return &CachedProvider{db: db, next: next, ttl: ttl, now: time.Now, logger: logger}, nil
}

// Route returns the cached route for waypoints or fetches and stores it.
// Cache read and write failures are logged and fall through to next.
func (c *CachedProvider) Route(ctx context.Context, waypoints []domain.LatLon) (domain.Route, error) {
	key := cacheKey(waypoints)

	v, err, _ := c.group.Do(key, func() (any, error) {
		if route, ok := c.get(ctx, key); ok {
			return route, nil
		}
		route, err := c.next.Route(ctx, waypoints)
		if err != nil {
			return domain.Route{}, err
		}
		c.put(ctx, key, route)
		return route, nil
	})
	if err != nil {
		return domain.Route{}, err
	}
	return v.(domain.Route), nil
}

func (c *CachedProvider) get(ctx context.Context, key string) (domain.Route, bool) {
	var raw string
	var created int64
	err := c.db.QueryRowContext(ctx,
		`SELECT route, created_at FROM route_cache WHERE waypoints = ?`, key,
	).Scan(&raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, false
	}
	if err != nil {
		c.logger.Warn("route cache read failed", "error", err)
		return domain.Route{}, false
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(created, 0)) > c.ttl {
		return domain.Route{}, false
	}

	var route domain.Route
	if err := json.Unmarshal([]byte(raw), &route); err != nil {
		c.logger.Warn("route cache entry unreadable", "error", err)
		return domain.Route{}, false
	}
	return route, true
}

func (c *CachedProvider) put(ctx context.Context, key string, route domain.Route) {
	raw, err := json.Marshal(route)
	if err != nil {
		c.logger.Warn("route cache encode failed", "error", err)
		return
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO route_cache (waypoints, route, created_at) VALUES (?, ?, ?)
		ON CONFLICT (waypoints) DO UPDATE
		SET route = excluded.route, created_at = excluded.created_at`,
		key, string(raw), c.now().Unix(),
	)
	if err != nil {
		c.logger.Warn("route cache write failed", "error", err)
	}
}

// cacheKey rounds each waypoint to 5 decimals (about a metre) so that
// clients sending slightly noisy coordinates share entries.
func cacheKey(waypoints []domain.LatLon) string {
	parts := make([]string, len(waypoints))
	for i, p := range waypoints {
		parts[i] = strconv.FormatFloat(p.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(p.Lon, 'f', 5, 64)
	}
	return strings.Join(parts, ";")
}
