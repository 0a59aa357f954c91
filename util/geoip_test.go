package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitGeoIP_EmptyPath(t *testing.T) {
	t.Setenv("GEOIP_DB_PATH", "")
	assert.NoError(t, InitGeoIP(""))
}

func TestInitGeoIP_NonExistentFile(t *testing.T) {
	assert.Error(t, InitGeoIP("/nonexistent/path/to/geoip.mmdb"))
}

func TestGetIPLocation_SkipsLocalAddresses(t *testing.T) {
	for _, ip := range []string{"", "127.0.0.1", "::1", "10.0.0.1", "192.168.1.1", "::", "not-an-ip"} {
		assert.Equal(t, IPLocation{}, GetIPLocation(ip), ip)
	}
}

func TestGetIPLocation_NoDatabase(t *testing.T) {
	CloseGeoIP()
	_, missesBefore := GetGeoIPCacheMetrics()

	assert.Equal(t, IPLocation{}, GetIPLocation("8.8.8.8"))

	_, missesAfter := GetGeoIPCacheMetrics()
	assert.Equal(t, missesBefore+1, missesAfter)
}

func TestFormatIPLocation(t *testing.T) {
	assert.Equal(t, "Cordoba/Argentina", FormatIPLocation(IPLocation{City: "Cordoba", Country: "Argentina"}))
	assert.Equal(t, "Argentina", FormatIPLocation(IPLocation{Country: "Argentina"}))
	assert.Equal(t, "Cordoba", FormatIPLocation(IPLocation{City: "Cordoba"}))
	assert.Equal(t, "", FormatIPLocation(IPLocation{}))
}
