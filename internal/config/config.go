package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName      string
	AppEnv       string
	AppPort      string
	AllowOrigins string
	DatabaseURL  string
	RedisURL     string
	NATSURL      string
	JWTSecret    string
	JWTTTL       time.Duration

	GatePassSecret   string
	GatePassIssuer   string
	GatePassValidity time.Duration
	GateSweepEvery   time.Duration
	GateEventChannel string

	OTPTTL         time.Duration
	OTPLength      int
	OTPMaxAttempts int
	OTPCooldown    time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MailEnabled reports whether an SMTP relay is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CAMPUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Campus Gate API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allow_origins", "*")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("gate.pass_issuer", "campus-gate")
	v.SetDefault("gate.pass_validity_seconds", 600)
	v.SetDefault("gate.sweep_interval", "5m")
	v.SetDefault("gate.events_channel", "campus:gate")
	v.SetDefault("otp.ttl", "10m")
	v.SetDefault("otp.length", 6)
	v.SetDefault("otp.max_attempts", 3)
	v.SetDefault("otp.cooldown", "60s")
	v.SetDefault("smtp.port", 587)

	jwtTTL, err := parseDuration(v, "jwt.ttl")
	if err != nil {
		return Config{}, err
	}
	sweepEvery, err := parseDuration(v, "gate.sweep_interval")
	if err != nil {
		return Config{}, err
	}
	otpTTL, err := parseDuration(v, "otp.ttl")
	if err != nil {
		return Config{}, err
	}
	otpCooldown, err := parseDuration(v, "otp.cooldown")
	if err != nil {
		return Config{}, err
	}

	validitySeconds := v.GetInt("gate.pass_validity_seconds")
	if validitySeconds <= 0 {
		return Config{}, fmt.Errorf("gate pass validity must be positive")
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		AllowOrigins:     v.GetString("app.allow_origins"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		JWTTTL:           jwtTTL,
		GatePassSecret:   v.GetString("gate.pass_secret"),
		GatePassIssuer:   strings.TrimSpace(v.GetString("gate.pass_issuer")),
		GatePassValidity: time.Duration(validitySeconds) * time.Second,
		GateSweepEvery:   sweepEvery,
		GateEventChannel: strings.TrimSpace(v.GetString("gate.events_channel")),
		OTPTTL:           otpTTL,
		OTPLength:        v.GetInt("otp.length"),
		OTPMaxAttempts:   v.GetInt("otp.max_attempts"),
		OTPCooldown:      otpCooldown,
		SMTPHost:         v.GetString("smtp.host"),
		SMTPPort:         v.GetInt("smtp.port"),
		SMTPUsername:     v.GetString("smtp.username"),
		SMTPPassword:     v.GetString("smtp.password"),
		SMTPFrom:         v.GetString("smtp.from"),
	}

	if cfg.JWTSecret == "" || cfg.GatePassSecret == "" {
		return Config{}, fmt.Errorf("jwt and gate pass secrets must be provided")
	}
	if cfg.JWTSecret == cfg.GatePassSecret {
		return Config{}, fmt.Errorf("gate pass secret must differ from the session jwt secret")
	}

	if cfg.OTPLength < 4 || cfg.OTPLength > 10 {
		cfg.OTPLength = 6
	}
	if cfg.OTPMaxAttempts <= 0 {
		cfg.OTPMaxAttempts = 3
	}
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUsername
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}
