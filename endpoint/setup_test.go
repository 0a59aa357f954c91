package endpoint

import (
	"os"
	"testing"

	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TestMain fixes the process-wide state every test in the package shares.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	util.SetJWTSecret("test-secret-123")
	util.SetLogger(zerolog.Nop())
	util.SetSecurityLoggerDB(nil)
	if err := util.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
