// Package config loads the flat LoginRewards.* key=value configuration
// file. Only keys under the LoginRewards. prefix are consumed; anything
// else in a shared host config file is ignored. A missing file disables
// the module rather than failing the host.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magiconair/properties"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const keyPrefix = "loginrewards."

// Config is the immutable settings snapshot for one (re)load event.
type Config struct {
	Enable              bool   `mapstructure:"enable"`
	ShowModuleStatus    bool   `mapstructure:"showmodulestatus"`
	DailyGoldAmount     int64  `mapstructure:"dailygoldamount"`
	DailyResetHour      int    `mapstructure:"dailyresethour"`
	RewardDelaySeconds  int    `mapstructure:"rewarddelayseconds"`
	AnnounceMessage     string `mapstructure:"announcemessage"`
	ShowAnnounceMessage bool   `mapstructure:"showannouncemessage"`
	ResetTimeZone       string `mapstructure:"resettimezone"`
	DataDir             string `mapstructure:"datadir"`
	LogDir              string `mapstructure:"logdir"`

	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Missing is set when the config file was absent and the module
	// was therefore disabled.
	Missing bool `mapstructure:"-"`

	loc *time.Location
}

// StorageConfig selects the record store backend.
type StorageConfig struct {
	Type string `mapstructure:"type"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig defines logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig defines the metrics endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// boolKeys follow the original "1"-means-true convention rather than
// strconv.ParseBool.
var boolKeys = map[string]bool{
	"enable":              true,
	"showmodulestatus":    true,
	"showannouncemessage": true,
}

// intKeys are validated up front so one bad value falls back to its
// default instead of failing the whole load.
var intKeys = map[string]bool{
	"dailygoldamount":    true,
	"dailyresethour":     true,
	"rewarddelayseconds": true,
	"redis.db":           true,
	"metrics.port":       true,
}

// Load reads the configuration file at path. A missing file yields a
// disabled snapshot, not an error; a malformed value is logged and
// dropped so its default applies.
func Load(path string, logger zerolog.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("LOGINREWARDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Config file unavailable, module disabled")
		return &Config{Missing: true, loc: time.UTC}, nil
	}
	// Values are opaque text; ${...} expansion would mangle templates.
	props.DisableExpansion = true

	if err := v.MergeConfigMap(nest(normalize(props.Map(), logger))); err != nil {
		return nil, fmt.Errorf("config: merge %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	if err := cfg.validate(logger); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults mirrors the built-in defaults the module ran with before
// it grew a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("enable", true)
	v.SetDefault("showmodulestatus", true)
	v.SetDefault("dailygoldamount", 100000)
	v.SetDefault("dailyresethour", 0)
	v.SetDefault("rewarddelayseconds", 60)
	v.SetDefault("announcemessage", "|cffFF69B4[Daily Reward]|r You received %gold% gold for logging in today!")
	v.SetDefault("showannouncemessage", true)
	v.SetDefault("resettimezone", "Asia/Seoul")
	v.SetDefault("datadir", "data/login_rewards")
	v.SetDefault("logdir", "logs/login_rewards")

	v.SetDefault("storage.type", "csv")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.port", 0)
}

// normalize filters the raw key=value pairs down to the LoginRewards
// namespace, applies the "1"-boolean convention, drops unparseable
// integers, and strips optional surrounding quotes.
func normalize(raw map[string]string, logger zerolog.Logger) map[string]any {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		lower := strings.ToLower(strings.TrimSpace(key))
		if !strings.HasPrefix(lower, keyPrefix) {
			continue
		}
		lower = strings.TrimPrefix(lower, keyPrefix)
		value = unquote(strings.TrimSpace(value))

		switch {
		case boolKeys[lower]:
			out[lower] = value == "1"
		case intKeys[lower]:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				logger.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric config value")
				continue
			}
			out[lower] = n
		default:
			out[lower] = value
		}
	}
	return out
}

// nest expands dotted keys into the nested map shape viper merges.
func nest(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return root
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// validate checks ambient settings and clamps reward values that are
// out of range back to safe defaults.
func (c *Config) validate(logger zerolog.Logger) error {
	if c.DailyResetHour < 0 || c.DailyResetHour > 23 {
		logger.Warn().Int("reset_hour", c.DailyResetHour).Msg("Reset hour out of range, using 0")
		c.DailyResetHour = 0
	}
	if c.DailyGoldAmount < 0 {
		logger.Warn().Int64("amount", c.DailyGoldAmount).Msg("Negative reward amount, using 0")
		c.DailyGoldAmount = 0
	}
	if c.RewardDelaySeconds < 0 {
		logger.Warn().Int("delay", c.RewardDelaySeconds).Msg("Negative reward delay, using 0")
		c.RewardDelaySeconds = 0
	}

	switch c.Storage.Type {
	case "csv", "bolt", "redis":
	default:
		return fmt.Errorf("config: unknown storage type %q", c.Storage.Type)
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("config: invalid metrics port %d", c.Metrics.Port)
	}

	loc, err := time.LoadLocation(c.ResetTimeZone)
	if err != nil {
		return fmt.Errorf("config: invalid reset time zone %q: %w", c.ResetTimeZone, err)
	}
	c.loc = loc
	return nil
}

// Location returns the fixed reference zone every reset-hour and
// timestamp computation uses. Never the host's local zone.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
