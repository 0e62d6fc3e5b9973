package catalog

import (
	"fmt"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NearbyCache memoizes nearby-restaurant lookups per ~1km tile for 2
// minutes. It is a single shared resource across all sessions, unlike the
// per-session locationCache in the session package.
type NearbyCache struct {
	store *gocache.Cache
}

func NewNearbyCache() *NearbyCache {
	return &NearbyCache{store: gocache.New(2*time.Minute, 4*time.Minute)}
}

// TileKey quantizes a lat/lng pair to a roughly 1km-wide tile. One degree
// of latitude is ~111km; longitude is scaled by cos(lat) to keep tiles
// close to square at non-equatorial latitudes.
func TileKey(lat, lng float64) string {
	latTile := math.Floor(lat * 111.0)
	lngTile := math.Floor(lng * 111.0 * math.Cos(lat*math.Pi/180.0))
	return fmt.Sprintf("%.0f:%.0f", latTile, lngTile)
}

func (c *NearbyCache) Get(lat, lng float64) ([]RestaurantRow, bool) {
	v, found := c.store.Get(TileKey(lat, lng))
	if !found {
		return nil, false
	}
	rows, ok := v.([]RestaurantRow)
	return rows, ok
}

func (c *NearbyCache) Set(lat, lng float64, rows []RestaurantRow) {
	c.store.SetDefault(TileKey(lat, lng), rows)
}
