package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingSetting is returned when a mode-specific required setting is empty.
var ErrMissingSetting = errors.New("missing required setting")

var validate = validator.New()

// AppConfig is built once at startup and treated as immutable afterwards.
type AppConfig struct {
	DiscordToken  string `yaml:"discord_token" validate:"required"`
	ApplicationID string `yaml:"client_id" validate:"required"`
	// GuildID scopes command registration to one guild; empty means global.
	GuildID string `yaml:"guild_id"`

	OpenWeatherAPIKey  string `yaml:"openweather_api_key" validate:"required"`
	OpenWeatherBaseURL string `yaml:"openweather_base_url" validate:"omitempty,url"`

	// Geocoder selects "openweather" (default) or "google".
	Geocoder     string `yaml:"geocoder" validate:"oneof=openweather google"`
	GoogleAPIKey string `yaml:"google_api_key" validate:"required_if=Geocoder google"`

	// LocationsFile is the JSON file holding saved locations.
	LocationsFile string `yaml:"locations_file" validate:"required"`

	CommandPrefix string        `yaml:"command_prefix" validate:"required"`
	FollowUpDelay time.Duration `yaml:"follow_up_delay"`

	// Outbound provider calls.
	HTTPTimeout    time.Duration `yaml:"http_timeout" validate:"gt=0"`
	CommandTimeout time.Duration `yaml:"command_timeout" validate:"gt=0"`
	ProviderRPS    float64       `yaml:"provider_rps" validate:"gt=0"`
	ProviderBurst  int           `yaml:"provider_burst" validate:"gte=1"`

	// Timezone is used for display when the provider gives no offset.
	Timezone string `yaml:"timezone"`

	// Port for the ops HTTP server; "off" disables it.
	Port string `yaml:"port"`
}

// HTTPEnabled reports whether the ops HTTP server should run.
func (c *AppConfig) HTTPEnabled() bool {
	return c.Port != "" && c.Port != "off"
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and then
// the environment, which wins. Defaults fill anything left unset.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.DiscordToken = getenvDefault("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.ApplicationID = getenvDefault("CLIENT_ID", cfg.ApplicationID)
	cfg.GuildID = getenvDefault("GUILD_ID", cfg.GuildID)
	cfg.OpenWeatherAPIKey = getenvDefault("OPENWEATHER_API_KEY", cfg.OpenWeatherAPIKey)
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", cfg.OpenWeatherBaseURL)
	cfg.Geocoder = getenvDefault("GEOCODER", cfg.Geocoder)
	cfg.GoogleAPIKey = getenvDefault("GOOGLE_API_KEY", cfg.GoogleAPIKey)
	cfg.LocationsFile = getenvDefault("LOCATIONS_FILE", cfg.LocationsFile)
	cfg.CommandPrefix = getenvDefault("COMMAND_PREFIX", cfg.CommandPrefix)
	cfg.Timezone = getenvDefault("TIMEZONE", cfg.Timezone)
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.ProviderBurst = getenvInt("PROVIDER_BURST", cfg.ProviderBurst)

	var err error
	if cfg.ProviderRPS, err = getenvFloat("PROVIDER_RPS", cfg.ProviderRPS); err != nil {
		return nil, err
	}
	if cfg.FollowUpDelay, err = getenvDuration("FOLLOW_UP_DELAY", cfg.FollowUpDelay); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.CommandTimeout, err = getenvDuration("COMMAND_TIMEOUT", cfg.CommandTimeout); err != nil {
		return nil, err
	}

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		Geocoder:       "openweather",
		LocationsFile:  "data/locations.json",
		CommandPrefix:  "!",
		FollowUpDelay:  500 * time.Millisecond,
		HTTPTimeout:    10 * time.Second,
		CommandTimeout: 15 * time.Second,
		// Free tier: 60 calls/minute.
		ProviderRPS:   1,
		ProviderBurst: 60,
		Port:          "8080",
	}
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ValidateRun checks the settings needed by the long-running bot.
func (c *AppConfig) ValidateRun() error {
	return c.validate("DiscordToken", "OpenWeatherAPIKey", "OpenWeatherBaseURL", "Geocoder",
		"GoogleAPIKey", "LocationsFile", "CommandPrefix", "HTTPTimeout", "CommandTimeout",
		"ProviderRPS", "ProviderBurst")
}

// ValidateRegister checks the settings needed to push the command schema.
func (c *AppConfig) ValidateRegister() error {
	return c.validate("DiscordToken", "ApplicationID")
}

func (c *AppConfig) validate(fields ...string) error {
	if err := validate.StructPartial(c, fields...); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s (%s)", ErrMissingSetting, verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// Location returns the display fallback zone.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
