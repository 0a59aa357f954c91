package middleware

import (
	"github.com/ariebrainware/dentplanner-api/config"
	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/reminder"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const servicesKey = "services"

// Services are the collaborators handlers need beyond the database. Redis
// is nil when disabled.
type Services struct {
	Config    *config.Config
	Redis     *redis.Client
	Mailer    notify.Mailer
	WhatsApp  notify.WhatsAppSender
	Slots     *scheduling.Service
	Reminders *reminder.Service
}

func ServicesMiddleware(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, s)
		c.Next()
	}
}

// GetServices returns the injected services or nil.
func GetServices(c *gin.Context) *Services {
	v, ok := c.Get(servicesKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Services)
	return s
}

// redisFrom returns the Redis client of the request, if any.
func redisFrom(c *gin.Context) *redis.Client {
	if s := GetServices(c); s != nil {
		return s.Redis
	}
	return nil
}
