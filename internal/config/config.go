package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Call   CallConfig
	Notify NotifyConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit. Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// SessionTTL bounds how long any session credential stays valid.
	SessionTTL time.Duration
}

// CallConfig tunes the signaling relay.
type CallConfig struct {
	// Store selects the room registry backing store: "memory" or "redis".
	// Memory is single-instance only; redis survives nothing either but
	// lets multiple API instances share rooms.
	Store string

	// LivenessWindow is how long a ringing room stays discoverable via
	// case-scoped listings. Direct lookups by room id are unaffected.
	LivenessWindow time.Duration

	// RetentionTTL bounds registry memory growth: rooms older than this
	// are evicted regardless of status.
	RetentionTTL time.Duration

	// PresenceWindow is the activity-freshness window after which a
	// participant stops counting as effectively online.
	PresenceWindow time.Duration
}

type NotifyConfig struct {
	// WebhookURL is the missed-call notification endpoint. Empty disables
	// outbound dispatch (events are still logged).
	WebhookURL string
	Timeout    time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	{
		d, err := mustDuration("JWT_SESSION_TTL")
		c.Auth.SessionTTL, parseErrs = appendDurErr(parseErrs, d, err)
	}

	c.Call.Store = strings.TrimSpace(os.Getenv("CALL_STORE"))
	{
		d, err := mustDuration("CALL_LIVENESS_WINDOW")
		c.Call.LivenessWindow, parseErrs = appendDurErr(parseErrs, d, err)
	}
	{
		d, err := mustDuration("CALL_RETENTION_TTL")
		c.Call.RetentionTTL, parseErrs = appendDurErr(parseErrs, d, err)
	}
	{
		d, err := mustDuration("CALL_PRESENCE_WINDOW")
		c.Call.PresenceWindow, parseErrs = appendDurErr(parseErrs, d, err)
	}

	c.Notify.WebhookURL = strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL"))
	{
		d, err := mustDuration("NOTIFY_TIMEOUT")
		c.Notify.Timeout, parseErrs = appendDurErr(parseErrs, d, err)
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 12 * time.Hour
	}

	if c.Call.Store == "" {
		c.Call.Store = "memory"
	}
	if c.Call.Store != "memory" && c.Call.Store != "redis" {
		errs = append(errs, fmt.Errorf("CALL_STORE must be memory or redis, got %q", c.Call.Store))
	}
	if c.Call.LivenessWindow <= 0 {
		c.Call.LivenessWindow = 30 * time.Minute
	}
	if c.Call.RetentionTTL <= 0 {
		c.Call.RetentionTTL = 24 * time.Hour
	}
	if c.Call.RetentionTTL < c.Call.LivenessWindow {
		errs = append(errs, errors.New("CALL_RETENTION_TTL must not be shorter than CALL_LIVENESS_WINDOW"))
	}
	if c.Call.PresenceWindow <= 0 {
		c.Call.PresenceWindow = 2 * time.Minute
	}

	if c.Notify.Timeout <= 0 {
		c.Notify.Timeout = 5 * time.Second
	}
	if c.IsProduction() && c.Notify.WebhookURL == "" {
		errs = append(errs, errors.New("NOTIFY_WEBHOOK_URL is required in production"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// mustDuration treats an unset key as "use the default" (zero), but a
// set-and-malformed value is a hard config error, never silently the
// default.
func mustDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30m), got %q", key, v)
	}
	return d, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func appendDurErr(errs []error, d time.Duration, err error) (time.Duration, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return d, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
