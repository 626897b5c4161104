package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the process wide configuration, loaded once at start up.
var Conf = NewConfig()

type (
	ServerConfig struct {
		Host               string
		Address            string
		DebugAddress       string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		CORSAllowOrigins   []string
		LoginRateLimit     float64 // requests per second per IP
	}

	DatabaseConfig struct {
		Driver  string // mongo | memory
		URI     string
		Name    string
		Timeout time.Duration
	}

	SMTPConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		From     mail.Address
	}

	NotificationConfig struct {
		Enabled  bool
		CronSpec string
		Location *time.Location
	}

	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		RedisAddress     string
		EmailBackend     string // console | smtp | sendgrid
		SendgridAPIKey   string
		DefaultFromEmail mail.Address

		Server        ServerConfig
		Database      DatabaseConfig
		SMTP          SMTPConfig
		Notifications NotificationConfig
	}
)

// NewConfig reads the configuration from the environment (and the optional `config/.env.<env>` file).
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Asistencia")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("secretKey", "k2v#9q)x8w!t3m$z@rj7p^c1d(b&e5n+u0h-y6s=g4f")
	v.SetDefault("frontendBaseURL", "http://localhost:4200")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("redisAddress", "")
	v.SetDefault("emailBackend", "console")
	v.SetDefault("sendgridAPIKey", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.debugAddress", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.corsAllowOrigins", []string{"*"})
	v.SetDefault("server.loginRateLimit", 5.0)
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "asistencia")
	v.SetDefault("database.timeout", 10*time.Second)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "noreply@universidad.edu")
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.cronSpec", "0 * * * *")
	v.SetDefault("notifications.timezone", "Local")

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// variable names used by existing deployments
	_ = v.BindEnv("database.uri", env+"_DATABASE_URI", "MONGODB_URI")
	_ = v.BindEnv("secretKey", env+"_SECRETKEY", "JWT_SECRET")
	_ = v.BindEnv("smtp.host", env+"_SMTP_HOST", "SMTP_HOST")
	_ = v.BindEnv("smtp.port", env+"_SMTP_PORT", "SMTP_PORT")
	_ = v.BindEnv("smtp.user", env+"_SMTP_USER", "SMTP_USER")
	_ = v.BindEnv("smtp.password", env+"_SMTP_PASSWORD", "SMTP_PASS")
	_ = v.BindEnv("smtp.from", env+"_SMTP_FROM", "SMTP_FROM")

	conf := &Config{
		AppName:         v.GetString("appName"),
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		RollbarToken:    v.GetString("rollbarToken"),
		RedisAddress:    v.GetString("redisAddress"),
		EmailBackend:    strings.ToLower(v.GetString("emailBackend")),
		SendgridAPIKey:  v.GetString("sendgridAPIKey"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugAddress:       v.GetString("server.debugAddress"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			CORSAllowOrigins:   v.GetStringSlice("server.corsAllowOrigins"),
			LoginRateLimit:     v.GetFloat64("server.loginRateLimit"),
		},
		Database: DatabaseConfig{
			Driver:  strings.ToLower(v.GetString("database.driver")),
			URI:     v.GetString("database.uri"),
			Name:    v.GetString("database.name"),
			Timeout: v.GetDuration("database.timeout"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
			From:     parseAddress(v.GetString("smtp.from")),
		},
		Notifications: NotificationConfig{
			Enabled:  v.GetBool("notifications.enabled"),
			CronSpec: v.GetString("notifications.cronSpec"),
			Location: loadLocation(v.GetString("notifications.timezone")),
		},
	}
	if port := os.Getenv("PORT"); port != "" {
		conf.Server.Address = ":" + port
	}
	conf.DefaultFromEmail = conf.SMTP.From
	if conf.DefaultFromEmail.Name == "" {
		conf.DefaultFromEmail.Name = conf.AppName
	}
	return conf
}

func parseAddress(s string) mail.Address {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return mail.Address{Address: s}
	}
	return *addr
}

func loadLocation(name string) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("config: unknown timezone %q, using Local: %v", name, err)
		return time.Local
	}
	return loc
}
