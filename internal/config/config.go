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
// Provider clients receive their own section; nothing below cmd/ reads os.Getenv.
type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Twilio       TwilioConfig
	ElevenLabs   ElevenLabsConfig
	Storage      StorageConfig
	Provisioning ProvisioningConfig
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

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type AuthConfig struct {
	JWTSecret    string
	JWTAlgorithm string
	JWTIssuer    string

	AccessTokenTTL time.Duration

	// LoginAttemptsPerMinute caps login attempts per email+client IP.
	LoginAttemptsPerMinute int
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	BaseURL    string

	// NumberCountry and NumberType select the inventory searched on agent creation.
	NumberCountry string
	NumberType    string
}

type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
}

type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	UseSSL          bool
}

type ProvisioningConfig struct {
	// StepTimeout bounds each upstream call in a provisioning pipeline.
	StepTimeout time.Duration
	// MaxConcurrentPerUser caps simultaneous create-agent requests per user.
	MaxConcurrentPerUser int
	// ScheduleTimezone interprets batch schedule times that carry no zone.
	ScheduleTimezone string
}

const (
	DefaultElevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	DefaultTwilioBaseURL     = "https://api.twilio.com/2010-04-01"
	DefaultS3Endpoint        = "s3.amazonaws.com"
)

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
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTAlgorithm = strings.TrimSpace(os.Getenv("JWT_ALGORITHM"))
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	{
		n, err := optionalInt("ACCESS_TOKEN_EXPIRE_MINUTES")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Auth.AccessTokenTTL = time.Duration(n) * time.Minute
	}
	{
		n, err := optionalInt("LOGIN_RATE_LIMIT_PER_MINUTE")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Auth.LoginAttemptsPerMinute = n
	}

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.BaseURL = strings.TrimSpace(os.Getenv("TWILIO_BASE_URL"))
	c.Twilio.NumberCountry = strings.TrimSpace(os.Getenv("TWILIO_NUMBER_COUNTRY"))
	c.Twilio.NumberType = strings.TrimSpace(os.Getenv("TWILIO_NUMBER_TYPE"))

	c.ElevenLabs.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	c.ElevenLabs.BaseURL = strings.TrimSpace(os.Getenv("ELEVENLABS_BASE_URL"))

	c.Storage.Endpoint = strings.TrimSpace(os.Getenv("S3_ENDPOINT"))
	c.Storage.AccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	c.Storage.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	c.Storage.Region = strings.TrimSpace(os.Getenv("AWS_REGION"))
	c.Storage.Bucket = strings.TrimSpace(os.Getenv("AWS_S3_BUCKET"))
	{
		b, err := optionalBool("S3_USE_SSL", true)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Storage.UseSSL = b
	}

	c.Provisioning.StepTimeout = mustDuration("PROVIDER_TIMEOUT")
	{
		n, err := optionalInt("PROVISION_CONCURRENCY")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Provisioning.MaxConcurrentPerUser = n
	}
	c.Provisioning.ScheduleTimezone = os.Getenv("BATCH_SCHEDULE_TZ")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every problem at once and fills in defaults.
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
	if c.Auth.JWTAlgorithm == "" {
		c.Auth.JWTAlgorithm = "HS256"
	}
	if !isValidJWTAlgorithm(c.Auth.JWTAlgorithm) {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM must be one of HS256, HS384, HS512, got %q", c.Auth.JWTAlgorithm))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 30 * time.Minute
	}
	if c.Auth.LoginAttemptsPerMinute <= 0 {
		c.Auth.LoginAttemptsPerMinute = 10
	}

	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Twilio.BaseURL == "" {
		c.Twilio.BaseURL = DefaultTwilioBaseURL
	}
	if c.Twilio.NumberCountry == "" {
		c.Twilio.NumberCountry = "US"
	}
	if c.Twilio.NumberType == "" {
		c.Twilio.NumberType = "Local"
	}

	if c.ElevenLabs.APIKey == "" {
		errs = append(errs, errors.New("ELEVENLABS_API_KEY is required"))
	}
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = DefaultElevenLabsBaseURL
	}

	if c.Storage.Endpoint == "" {
		c.Storage.Endpoint = DefaultS3Endpoint
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("AWS_S3_BUCKET is required"))
	}
	if c.Storage.Region == "" {
		errs = append(errs, errors.New("AWS_REGION is required"))
	}
	if c.IsProduction() && (c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "") {
		errs = append(errs, errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required in production"))
	}

	if c.Provisioning.StepTimeout <= 0 {
		c.Provisioning.StepTimeout = 30 * time.Second
	}
	if c.Provisioning.MaxConcurrentPerUser <= 0 {
		c.Provisioning.MaxConcurrentPerUser = 1
	}
	if c.Provisioning.ScheduleTimezone == "" {
		c.Provisioning.ScheduleTimezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Provisioning.ScheduleTimezone); err != nil {
		errs = append(errs, fmt.Errorf("BATCH_SCHEDULE_TZ: %w", err))
	}

	return joinErrors(errs)
}

// ScheduleLocation is the zone for batch schedule times. Validate has already checked it.
func (c Config) ScheduleLocation() *time.Location {
	loc, err := time.LoadLocation(c.Provisioning.ScheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
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

func isValidJWTAlgorithm(v string) bool {
	switch v {
	case "HS256", "HS384", "HS512":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("config errors:")
	for _, e := range errs {
		b.WriteString("\n- ")
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
