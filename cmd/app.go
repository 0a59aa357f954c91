package cmd

import (
	"fmt"

	"github.com/ariebrainware/dentplanner-api/config"
	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/reminder"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// app holds the process wide dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	db       *gorm.DB
	services *middleware.Services
}

func bootstrap(migrate bool) (*app, error) {
	cfg := config.LoadConfig()
	logger := util.InitLogger(cfg.LogLevel, cfg.AppEnv)
	util.SetJWTSecret(cfg.JWTSecret)
	gin.SetMode(cfg.GinMode)

	if err := util.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	db, err := config.ConnectDatabase()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if migrate {
		if err := model.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	util.SetSecurityLoggerDB(db)

	var rdb *redis.Client
	if cfg.RedisEnabled {
		rdb, err = config.ConnectRedis()
		if err != nil {
			// Locks and rate limits fall back to their in-process paths.
			logger.Warn().Err(err).Msg("redis unavailable")
			rdb = nil
		}
	}

	mailer := notify.NewMailer(cfg)
	whatsapp := notify.NewWhatsAppSender(cfg)
	slots := scheduling.NewService(scheduling.NewChecker(0), scheduling.NewLocker(rdb))
	reminders := reminder.NewService(db, mailer, whatsapp, rdb, slots, reminder.Options{
		LeadHours:  cfg.ReminderLeadHours,
		Channel:    cfg.ReminderChannel,
		ClinicName: cfg.ClinicName,
		ServerURL:  cfg.ServerURL,
	})

	return &app{
		cfg: cfg,
		log: logger,
		db:  db,
		services: &middleware.Services{
			Config:    cfg,
			Redis:     rdb,
			Mailer:    mailer,
			WhatsApp:  whatsapp,
			Slots:     slots,
			Reminders: reminders,
		},
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if a.services.Redis != nil {
		_ = a.services.Redis.Close()
	}
}
