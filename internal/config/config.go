package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	env environment

	sentryDSN   string
	redisAddr   string
	boltPath    string
	databaseURL string

	tiersEnabled map[string]bool

	ttlStatistics   time.Duration
	ttlIncomeLimits time.Duration
	ttlNotices      time.Duration
	ttlPrograms     time.Duration
	ttlProjects     time.Duration

	maxRetries       int
	backoffBase      time.Duration
	backoffMax       time.Duration
	failureThreshold int
	breakerCooldown  time.Duration

	port         string
	requestDelay time.Duration
}

func (c *Config) Port() string {
	return c.port
}

// RequestDelay is the minimum spacing between requests to the county
// site.
func (c *Config) RequestDelay() time.Duration {
	return c.requestDelay
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) RedisAddr() string {
	return c.redisAddr
}

func (c *Config) BoltPath() string {
	return c.boltPath
}

func (c *Config) DatabaseURL() string {
	return c.databaseURL
}

// TierEnabled reports whether the named tier ("memory", "redis", "bolt")
// should be part of the cache chain.
func (c *Config) TierEnabled(name string) bool {
	return c.tiersEnabled[name]
}

// TTLForKind returns the freshness window for a data kind. Unknown kinds
// get the statistics TTL.
func (c *Config) TTLForKind(kind string) time.Duration {
	switch kind {
	case "income_limits":
		return c.ttlIncomeLimits
	case "notices":
		return c.ttlNotices
	case "programs":
		return c.ttlPrograms
	case "projects":
		return c.ttlProjects
	default:
		return c.ttlStatistics
	}
}

func (c *Config) MaxRetries() int {
	return c.maxRetries
}

func (c *Config) BackoffBase() time.Duration {
	return c.backoffBase
}

func (c *Config) BackoffMax() time.Duration {
	return c.backoffMax
}

func (c *Config) FailureThreshold() int {
	return c.failureThreshold
}

func (c *Config) BreakerCooldown() time.Duration {
	return c.breakerCooldown
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	tiers := make([]string, 0, len(c.tiersEnabled))
	for name, enabled := range c.tiersEnabled {
		if enabled {
			tiers = append(tiers, name)
		}
	}
	return fmt.Sprintf("Config{env: %s, tiers: %s, ...}", string(c.env), strings.Join(tiers, "+"))
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("SKYLIGHT_ENVIRONMENT")
	if !ok {
		return missingKey("SKYLIGHT_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: SKYLIGHT_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	redisAddr := os.Getenv("SKYLIGHT_REDIS_ADDR")
	boltPath := os.Getenv("SKYLIGHT_BOLT_PATH")
	databaseURL := os.Getenv("SKYLIGHT_DATABASE_URL")

	if env == production || env == staging {
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if databaseURL == "" {
			return missingKey("SKYLIGHT_DATABASE_URL")
		}
	}

	tiersEnabled := map[string]bool{"memory": true}
	if rawTiers, ok := os.LookupEnv("SKYLIGHT_TIERS"); ok {
		tiersEnabled = map[string]bool{}
		for _, name := range strings.Split(rawTiers, ",") {
			name = strings.TrimSpace(name)
			switch name {
			case "memory", "redis", "bolt":
				tiersEnabled[name] = true
			case "":
			default:
				return Config{}, fmt.Errorf("%w: SKYLIGHT_TIERS (%s)", ErrInvalidValue, name)
			}
		}
	} else {
		if redisAddr != "" {
			tiersEnabled["redis"] = true
		}
		if boltPath != "" {
			tiersEnabled["bolt"] = true
		}
	}
	if tiersEnabled["redis"] && redisAddr == "" {
		return missingKey("SKYLIGHT_REDIS_ADDR")
	}
	if tiersEnabled["bolt"] && boltPath == "" {
		return missingKey("SKYLIGHT_BOLT_PATH")
	}

	conf := Config{
		env: env,

		sentryDSN:   sentryDSN,
		redisAddr:   redisAddr,
		boltPath:    boltPath,
		databaseURL: databaseURL,

		tiersEnabled: tiersEnabled,

		ttlStatistics:   24 * time.Hour,
		ttlIncomeLimits: 720 * time.Hour,
		ttlNotices:      6 * time.Hour,
		ttlPrograms:     24 * time.Hour,
		ttlProjects:     24 * time.Hour,

		maxRetries:       3,
		backoffBase:      500 * time.Millisecond,
		backoffMax:       30 * time.Second,
		failureThreshold: 5,
		breakerCooldown:  60 * time.Second,

		port:         "8080",
		requestDelay: 2 * time.Second,
	}

	if port, ok := os.LookupEnv("SKYLIGHT_PORT"); ok && port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return Config{}, fmt.Errorf("%w: SKYLIGHT_PORT (%s)", ErrInvalidValue, port)
		}
		conf.port = port
	}

	var err error
	if conf.ttlStatistics, err = durationFromEnv("SKYLIGHT_TTL_STATISTICS", conf.ttlStatistics); err != nil {
		return Config{}, err
	}
	if conf.ttlIncomeLimits, err = durationFromEnv("SKYLIGHT_TTL_INCOME_LIMITS", conf.ttlIncomeLimits); err != nil {
		return Config{}, err
	}
	if conf.ttlNotices, err = durationFromEnv("SKYLIGHT_TTL_NOTICES", conf.ttlNotices); err != nil {
		return Config{}, err
	}
	if conf.ttlPrograms, err = durationFromEnv("SKYLIGHT_TTL_PROGRAMS", conf.ttlPrograms); err != nil {
		return Config{}, err
	}
	if conf.ttlProjects, err = durationFromEnv("SKYLIGHT_TTL_PROJECTS", conf.ttlProjects); err != nil {
		return Config{}, err
	}
	if conf.backoffBase, err = durationFromEnv("SKYLIGHT_BACKOFF_BASE", conf.backoffBase); err != nil {
		return Config{}, err
	}
	if conf.backoffMax, err = durationFromEnv("SKYLIGHT_BACKOFF_MAX", conf.backoffMax); err != nil {
		return Config{}, err
	}
	if conf.breakerCooldown, err = durationFromEnv("SKYLIGHT_BREAKER_COOLDOWN", conf.breakerCooldown); err != nil {
		return Config{}, err
	}
	if conf.requestDelay, err = durationFromEnv("SKYLIGHT_REQUEST_DELAY", conf.requestDelay); err != nil {
		return Config{}, err
	}
	if conf.maxRetries, err = intFromEnv("SKYLIGHT_MAX_RETRIES", conf.maxRetries); err != nil {
		return Config{}, err
	}
	if conf.failureThreshold, err = intFromEnv("SKYLIGHT_BREAKER_FAILURE_THRESHOLD", conf.failureThreshold); err != nil {
		return Config{}, err
	}

	return conf, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive (%s)", ErrInvalidValue, key, raw)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, raw)
	}
	return n, nil
}
