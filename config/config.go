package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the application's configuration values.
type Config struct {
	AppName   string `json:"appname"`
	AppEnv    string `json:"appenv"`
	AppPort   uint16 `json:"appport"`
	GinMode   string `json:"ginmode"`
	ServerURL string `json:"server_url"`
	UploadDir string `json:"upload_dir"`
	LogLevel  string `json:"log_level"`

	DBDriver  string `json:"dbdriver"`
	DBHost    string `json:"dbhost"`
	DBPort    uint16 `json:"dbport"`
	DBName    string `json:"dbname"`
	DBUSER    string `json:"dbuser"`
	DBPass    string `json:"-"`
	DBMaxOpen int    `json:"db_max_open"`
	DBMaxIdle int    `json:"db_max_idle"`

	JWTSecret string        `json:"-"`
	JWTExpiry time.Duration `json:"jwt_expiry"`

	RedisEnabled bool   `json:"redis_enabled"`
	RedisAddr    string `json:"redis_addr"`
	RedisPass    string `json:"-"`
	RedisDB      int    `json:"redis_db"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPass     string `json:"-"`
	MailFrom     string `json:"mail_from"`
	SupportEmail string `json:"support_email"`

	WhatsAppProvider      string `json:"whatsapp_provider"`
	WhatsAppToken         string `json:"-"`
	WhatsAppPhoneNumberID string `json:"whatsapp_phone_number_id"`
	WhatsAppAPIVersion    string `json:"whatsapp_api_version"`
	WhatsAppVerifyToken   string `json:"-"`
	TwilioAccountSID      string `json:"twilio_account_sid"`
	TwilioAuthToken       string `json:"-"`
	TwilioFrom            string `json:"twilio_from"`

	ReminderEnabled   bool   `json:"reminder_enabled"`
	ReminderSpec      string `json:"reminder_spec"`
	ReminderLeadHours []int  `json:"reminder_lead_hours"`
	ReminderChannel   string `json:"reminder_channel"`
	ClinicName        string `json:"clinic_name"`

	CORSOrigins     []string      `json:"cors_origins"`
	GeoIPDBPath     string        `json:"geoip_db_path"`
	LoginRateLimit  int           `json:"login_rate_limit"`
	LoginRateWindow time.Duration `json:"login_rate_window"`
}

// IsTest reports whether the process runs under APPENV=test.
func (c *Config) IsTest() bool { return c.AppEnv == "test" }

var (
	config  *Config
	once    sync.Once
	envFile = ".env"
)

// SetEnvFile overrides the dotenv file read by LoadConfig. It must be called
// before the first LoadConfig call to have any effect.
func SetEnvFile(path string) {
	if path != "" {
		envFile = path
	}
}

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env is fine, the process environment still applies.
		if err := godotenv.Load(envFile); err != nil {
			log.Debug().Str("file", envFile).Msg("no dotenv file loaded")
		}
		config = FromViper(NewViper())
	})
	return config
}

// NewViper returns a viper instance bound to the process environment with
// every default the service relies on.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	defaults := map[string]interface{}{
		"APPNAME":              "DentPlanner",
		"APPENV":               "development",
		"APPPORT":              3000,
		"GINMODE":              "debug",
		"SERVER_URL":           "http://localhost:3000",
		"UPLOAD_DIR":           "uploads",
		"LOG_LEVEL":            "info",
		"DBDRIVER":             "mysql",
		"DBHOST":               "127.0.0.1",
		"DBPORT":               3306,
		"DBNAME":               "dentplanner",
		"DB_MAX_OPEN":          25,
		"DB_MAX_IDLE":          5,
		"JWT_EXPIRY":           "24h",
		"REDIS_ENABLED":        true,
		"REDIS_ADDR":           "localhost:6379",
		"REDIS_DB":             0,
		"SMTP_PORT":            587,
		"WHATSAPP_PROVIDER":    "cloud",
		"WHATSAPP_API_VERSION": "v19.0",
		"REMINDER_ENABLED":     true,
		"REMINDER_SPEC":        "@every 30s",
		"REMINDER_LEAD_HOURS":  "12,24,48,72",
		"REMINDER_CHANNEL":     "email",
		"CLINIC_NAME":          "DentPlanner",
		"CORS_ORIGINS":         "*",
		"LOGIN_RATE_LIMIT":     5,
		"LOGIN_RATE_WINDOW":    "15m",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	jwtSecret := v.GetString("JWTSECRET")
	if jwtSecret == "" {
		jwtSecret = v.GetString("JWT_SECRET")
	}

	return &Config{
		AppName:   v.GetString("APPNAME"),
		AppEnv:    v.GetString("APPENV"),
		AppPort:   uint16(v.GetUint("APPPORT")),
		GinMode:   v.GetString("GINMODE"),
		ServerURL: strings.TrimRight(v.GetString("SERVER_URL"), "/"),
		UploadDir: v.GetString("UPLOAD_DIR"),
		LogLevel:  v.GetString("LOG_LEVEL"),

		DBDriver:  strings.ToLower(v.GetString("DBDRIVER")),
		DBHost:    v.GetString("DBHOST"),
		DBPort:    uint16(v.GetUint("DBPORT")),
		DBName:    v.GetString("DBNAME"),
		DBUSER:    v.GetString("DBUSER"),
		DBPass:    v.GetString("DBPASS"),
		DBMaxOpen: v.GetInt("DB_MAX_OPEN"),
		DBMaxIdle: v.GetInt("DB_MAX_IDLE"),

		JWTSecret: jwtSecret,
		JWTExpiry: v.GetDuration("JWT_EXPIRY"),

		RedisEnabled: v.GetBool("REDIS_ENABLED"),
		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisPass:    v.GetString("REDIS_PASS"),
		RedisDB:      v.GetInt("REDIS_DB"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPass:     v.GetString("SMTP_PASS"),
		MailFrom:     v.GetString("MAIL_FROM"),
		SupportEmail: v.GetString("SUPPORT_EMAIL"),

		WhatsAppProvider:      strings.ToLower(v.GetString("WHATSAPP_PROVIDER")),
		WhatsAppToken:         v.GetString("WHATSAPP_API_TOKEN"),
		WhatsAppPhoneNumberID: v.GetString("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppAPIVersion:    v.GetString("WHATSAPP_API_VERSION"),
		WhatsAppVerifyToken:   v.GetString("VERIFY_TOKEN"),
		TwilioAccountSID:      v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:       v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioFrom:            v.GetString("TWILIO_WHATSAPP_NUMBER"),

		ReminderEnabled:   v.GetBool("REMINDER_ENABLED"),
		ReminderSpec:      v.GetString("REMINDER_SPEC"),
		ReminderLeadHours: parseIntList(v.GetString("REMINDER_LEAD_HOURS")),
		ReminderChannel:   strings.ToLower(v.GetString("REMINDER_CHANNEL")),
		ClinicName:        v.GetString("CLINIC_NAME"),

		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		GeoIPDBPath:     v.GetString("GEOIP_DB_PATH"),
		LoginRateLimit:  v.GetInt("LOGIN_RATE_LIMIT"),
		LoginRateWindow: v.GetDuration("LOGIN_RATE_WINDOW"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntList(raw string) []int {
	var out []int
	for _, part := range splitList(raw) {
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			out = append(out, n)
		}
	}
	return out
}

// ConnectDatabase opens the database configured by LoadConfig.
func ConnectDatabase() (*gorm.DB, error) {
	return OpenDatabase(LoadConfig())
}

// OpenDatabase establishes a gorm connection for the configured driver. Under
// APPENV=test it always opens an in-memory SQLite database.
func OpenDatabase(cfg *Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{TranslateError: true}

	if cfg.IsTest() {
		gcfg.Logger = logger.Default.LogMode(logger.Silent)
		name := cfg.DBName
		if name == "" {
			name = "dentplanner_test"
		}
		db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), gcfg)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil
	}

	gcfg.Logger = logger.Default.LogMode(logger.Warn)

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBPort, cfg.DBUSER, cfg.DBPass, cfg.DBName)
		dialector = postgres.Open(dsn)
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpen)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdle)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
