package util

import (
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

// IPLocation is the resolved place of a client address.
type IPLocation struct {
	City    string
	Country string
}

var (
	geoipMu        sync.RWMutex
	geoipDB        *geoip2.Reader
	geoipCache     *cache.Cache
	geoipCacheHits int64
	geoipCacheMiss int64
)

// InitGeoIP opens a GeoIP2/GeoLite2 City database and an in-memory lookup
// cache. An empty path falls back to GEOIP_DB_PATH; when both are empty the
// call is a no-op and lookups return nothing.
func InitGeoIP(dbPath string) error {
	if dbPath == "" {
		dbPath = os.Getenv("GEOIP_DB_PATH")
	}
	if dbPath == "" {
		return nil
	}

	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}

	geoipMu.Lock()
	defer geoipMu.Unlock()
	geoipDB = r
	geoipCache = cache.New(24*time.Hour, time.Hour)
	return nil
}

// CloseGeoIP closes the GeoIP DB if opened.
func CloseGeoIP() {
	geoipMu.Lock()
	defer geoipMu.Unlock()
	if geoipDB != nil {
		_ = geoipDB.Close()
		geoipDB = nil
	}
}

// GetIPLocation resolves ip through the cache and then the database.
func GetIPLocation(ip string) IPLocation {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return IPLocation{}
	}

	geoipMu.RLock()
	reader, lookupCache := geoipDB, geoipCache
	geoipMu.RUnlock()

	if lookupCache != nil {
		if v, ok := lookupCache.Get(ip); ok {
			atomic.AddInt64(&geoipCacheHits, 1)
			if loc, ok := v.(IPLocation); ok {
				return loc
			}
		}
	}
	atomic.AddInt64(&geoipCacheMiss, 1)

	if reader == nil {
		return IPLocation{}
	}

	rec, err := reader.City(parsed)
	if err != nil {
		return IPLocation{}
	}

	loc := IPLocation{City: rec.City.Names["en"], Country: rec.Country.Names["en"]}
	if loc.Country == "" {
		loc.Country = rec.Country.IsoCode
	}

	if lookupCache != nil {
		lookupCache.Set(ip, loc, cache.DefaultExpiration)
	}
	return loc
}

// FormatIPLocation renders "City/Country", or whichever half is known.
func FormatIPLocation(loc IPLocation) string {
	switch {
	case loc.City != "" && loc.Country != "":
		return loc.City + "/" + loc.Country
	case loc.Country != "":
		return loc.Country
	default:
		return loc.City
	}
}

// GetGeoIPCacheMetrics returns the cache hits and misses.
func GetGeoIPCacheMetrics() (hits int64, misses int64) {
	return atomic.LoadInt64(&geoipCacheHits), atomic.LoadInt64(&geoipCacheMiss)
}
