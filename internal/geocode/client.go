// Package geocode resolves free-text place names to coordinates using a
// Nominatim-style search endpoint, with a Redis read-through cache in front.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nvelas/wanderlog/backend/internal/httperr"
	"github.com/nvelas/wanderlog/backend/internal/models"
)

const cacheTTL = 24 * time.Hour

// Client calls the geocoding service over HTTP. A nil rdb disables caching.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	rdb        *redis.Client
	log        zerolog.Logger
}

func NewClient(baseURL, userAgent string, rdb *redis.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		rdb:        rdb,
		log:        log,
	}
}

// Resolve maps a location name to coordinates. Failures come back as
// *httperr.Error carrying the classification the caller should pass
// through: 422 when the name resolves to nothing, 502 when the geocoding
// service itself is unreachable or misbehaving.
func (c *Client) Resolve(ctx context.Context, locationName string) (models.Coordinates, error) {
	key := cacheKey(locationName)
	if coords, ok := c.cacheGet(ctx, key); ok {
		return coords, nil
	}

	q := url.Values{}
	q.Set("q", locationName)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, httperr.New(http.StatusBadGateway, "Could not reach the geocoding service.")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("location", locationName).Msg("geocode request failed")
		return models.Coordinates{}, httperr.New(http.StatusBadGateway, "Could not reach the geocoding service.")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		c.log.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("geocode upstream error")
		return models.Coordinates{}, httperr.New(http.StatusBadGateway, "Could not reach the geocoding service.")
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Coordinates{}, httperr.New(http.StatusBadGateway, "Could not reach the geocoding service.")
	}
	if len(results) == 0 {
		return models.Coordinates{}, httperr.New(http.StatusUnprocessableEntity,
			"Could not find location for the specified address.")
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return models.Coordinates{}, httperr.New(http.StatusBadGateway, "Could not reach the geocoding service.")
	}

	coords := models.Coordinates{Latitude: lat, Longitude: lng}
	c.cacheSet(ctx, key, coords)
	return coords, nil
}

func cacheKey(locationName string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(locationName))
}

// cacheGet reads a cached result. Cache trouble is logged and treated as a
// miss; the HTTP call stays the source of truth.
func (c *Client) cacheGet(ctx context.Context, key string) (models.Coordinates, bool) {
	if c.rdb == nil {
		return models.Coordinates{}, false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return models.Coordinates{}, false
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("geocode cache read failed")
		return models.Coordinates{}, false
	}
	var coords models.Coordinates
	if err := json.Unmarshal([]byte(val), &coords); err != nil {
		return models.Coordinates{}, false
	}
	return coords, true
}

func (c *Client) cacheSet(ctx context.Context, key string, coords models.Coordinates) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		c.log.Warn().Err(err).Msg("geocode cache write failed")
	}
}
