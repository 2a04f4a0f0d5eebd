package core

import (
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		Debug    bool
		TestMode bool

		AppName                   string
		SecretKey                 string
		BaseURL                   string
		defaultFromEmail          string
		SendgridApiKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Upload   UploadConfig
		Log      LogConfig
	}

	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		SessionCookie             string
		SecureCookies             bool
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | inmem
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	UploadConfig struct {
		Dir       string
		URLPrefix string
	}

	LogConfig struct {
		File       string
		MaxSize    int // megabytes
		MaxBackups int
		MaxAge     int // days
	}
)

const (
	DBEnginePostgres = "postgres"
	DBEngineInMem    = "inmem"
)

// NewConfig loads the configuration for the current ENV.
// Values come from (by priority): prefixed env vars, config/.env.<env> file, defaults.
func NewConfig() *Config {
	conf, err := LoadConfig(os.Getenv("ENV"))
	if err != nil {
		panic(err)
	}
	return conf
}

// LoadConfig loads the configuration for the given env.
func LoadConfig(env string) (*Config, error) {
	v := viper.New()

	env = strings.ToUpper(CleanString(env))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Elimu")
	v.SetDefault("secretKey", "zl3-4@qk&v9m!e+0p1bq%yx2(d$j)8a^cz#x7ku$5yv=mjn2ep")
	v.SetDefault("baseURL", "http://localhost:8000")
	v.SetDefault("defaultFromEmail", "Elimu <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_debugHost", ":4000")
	v.SetDefault("server_shutdownTimeout", 5*time.Second)
	v.SetDefault("server_jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server_jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server_sessionCookie", "session")
	v.SetDefault("server_secureCookies", env == "PROD" || env == "QA")
	v.SetDefault("server_disableReqLogs", env == "TEST")

	v.SetDefault("database_engine", DBEnginePostgres)
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", 5432)
	v.SetDefault("database_name", "elimu")
	v.SetDefault("database_user", "elimu")
	v.SetDefault("database_password", "elimu")
	v.SetDefault("database_adminUser", "")
	v.SetDefault("database_adminPassword", "")
	v.SetDefault("database_disableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("upload_dir", filepath.Join(os.TempDir(), "elimu-uploads"))
	v.SetDefault("upload_urlPrefix", "/uploads")

	v.SetDefault("log_file", "")
	v.SetDefault("log_maxSize", 50)
	v.SetDefault("log_maxBackups", 5)
	v.SetDefault("log_maxAge", 28)

	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		BaseURL:                   strings.TrimRight(v.GetString("baseURL"), "/"),
		defaultFromEmail:          v.GetString("defaultFromEmail"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Address:                   v.GetString("server_address"),
			Host:                      v.GetString("server_host"),
			DebugHost:                 v.GetString("server_debugHost"),
			ShutdownTimeout:           v.GetDuration("server_shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server_jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server_jwtRefreshExpirationDelta"),
			SessionCookie:             v.GetString("server_sessionCookie"),
			SecureCookies:             v.GetBool("server_secureCookies"),
			DisableReqLogs:            v.GetBool("server_disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database_engine")),
			Host:          v.GetString("database_host"),
			Port:          v.GetInt("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_adminUser"),
			AdminPassword: v.GetString("database_adminPassword"),
			DisableTLS:    v.GetBool("database_disableTLS"),
		},
		Upload: UploadConfig{
			Dir:       v.GetString("upload_dir"),
			URLPrefix: "/" + strings.Trim(v.GetString("upload_urlPrefix"), "/"),
		},
		Log: LogConfig{
			File:       v.GetString("log_file"),
			MaxSize:    v.GetInt("log_maxSize"),
			MaxBackups: v.GetInt("log_maxBackups"),
			MaxAge:     v.GetInt("log_maxAge"),
		},
	}
	if _, err := conf.DefaultFromEmail(); err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}
	return conf, nil
}

// DefaultFromEmail returns the parsed sender address used for outgoing emails.
func (c *Config) DefaultFromEmail() (mail.Address, error) {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{}, err
	}
	return *addr, nil
}

// Address returns the "host:port" of the database server.
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
