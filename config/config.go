package config

import (
	"fmt"
	"os"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Fleet    FleetConfig    `yaml:"fleet"`
	Sources  SourcesConfig  `yaml:"sources"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Push     PushConfig     `yaml:"push"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	NATS     NATSConfig     `yaml:"nats"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	APIAddr             string   `yaml:"api_addr"`
	OpsAddr             string   `yaml:"ops_addr"`
	SwaggerPath         string   `yaml:"swagger_path"`
	CORSOrigins         []string `yaml:"cors_origins"`
	WriteLimitPerMinute int      `yaml:"write_limit_per_minute" validate:"gte=0"`
}

type FleetConfig struct {
	Roster          []models.RosterEntry `yaml:"roster" validate:"dive"`
	WatchedAirport  string               `yaml:"watched_airport" validate:"omitempty,len=4,alphanum"`
	AirportLat      float64              `yaml:"airport_lat" validate:"gte=-90,lte=90"`
	AirportLon      float64              `yaml:"airport_lon" validate:"gte=-180,lte=180"`
	IntervalSeconds int                  `yaml:"interval_seconds" validate:"gte=0"`
	JitterSeconds   int                  `yaml:"jitter_seconds" validate:"gte=0"`
	ActiveSource    string               `yaml:"active_source" validate:"omitempty,oneof=fr24 opensky fake"`
}

type SourceConfig struct {
	Enabled            bool   `yaml:"enabled"`
	BaseURL            string `yaml:"base_url" validate:"omitempty,url"`
	MinIntervalSeconds int    `yaml:"min_interval_seconds" validate:"gte=0"`
	CacheTTLSeconds    int    `yaml:"cache_ttl_seconds" validate:"gte=0"`
	// Backoff is on unless explicitly disabled.
	Backoff         *bool `yaml:"backoff"`
	BudgetPerMinute int64 `yaml:"budget_per_minute" validate:"gte=0"`
}

// BackoffEnabled defaults to true for real providers.
func (s SourceConfig) BackoffEnabled() bool {
	return s.Backoff == nil || *s.Backoff
}

type FR24Config struct {
	SourceConfig `yaml:",inline"`
	APIKey       string `yaml:"api_key"`
}

type OpenSkyConfig struct {
	SourceConfig `yaml:",inline"`
	TokenURL     string `yaml:"token_url" validate:"omitempty,url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type SourcesConfig struct {
	FR24    FR24Config    `yaml:"fr24"`
	OpenSky OpenSkyConfig `yaml:"opensky"`
	Fake    SourceConfig  `yaml:"fake"`
}

type ScheduleConfig struct {
	URL             string `yaml:"url" validate:"omitempty,url"`
	IntervalSeconds int    `yaml:"interval_seconds" validate:"gte=0"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" validate:"gte=0"`
	RetentionDays   int    `yaml:"retention_days" validate:"gte=0"`
	Timezone        string `yaml:"timezone"`
}

type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subject         string `yaml:"subject"`
	TTLSeconds      int    `yaml:"ttl_seconds" validate:"gte=0"`
	ClickURL        string `yaml:"click_url"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type CacheConfig struct {
	Backend   string `yaml:"backend" validate:"omitempty,oneof=redis memory"`
	SizeBytes int    `yaml:"size_bytes" validate:"gte=0"`
	Prefix    string `yaml:"prefix"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Host          string   `yaml:"host"`
	Port          int      `yaml:"port" validate:"gte=0,lte=65535"`
	Brokers       []string `yaml:"brokers"`
	TopicName     string   `yaml:"topic_name"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// BrokerList prefers the explicit broker list over host/port.
func (k KafkaConfig) BrokerList() []string {
	if len(k.Brokers) > 0 {
		return k.Brokers
	}
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	config.applyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// applyEnv lets deployments keep secrets out of the YAML file.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Sources.FR24.APIKey, "FR24_API_KEY")
	set(&c.Sources.OpenSky.ClientID, "OPENSKY_CLIENT_ID")
	set(&c.Sources.OpenSky.ClientSecret, "OPENSKY_CLIENT_SECRET")
	set(&c.Push.VAPIDPublicKey, "VAPID_PUBLIC_KEY")
	set(&c.Push.VAPIDPrivateKey, "VAPID_PRIVATE_KEY")
}

func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Fleet.ActiveSource != "" && !c.sourceEnabled(c.Fleet.ActiveSource) {
		return fmt.Errorf("active source %q is not enabled", c.Fleet.ActiveSource)
	}
	if c.Sources.OpenSky.Enabled && len(c.Fleet.RosterOrDefault().Hexes()) == 0 {
		return fmt.Errorf("opensky enabled but no roster entry has a hex")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 && c.Kafka.Host == "" {
		return fmt.Errorf("kafka enabled without brokers")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats enabled without url")
	}
	return nil
}

// RosterOrDefault falls back to the built-in Beluga XL roster.
func (f FleetConfig) RosterOrDefault() models.Roster {
	if len(f.Roster) == 0 {
		return models.DefaultRoster()
	}
	return models.Roster(f.Roster)
}

func (c *Config) sourceEnabled(name string) bool {
	switch name {
	case "fr24":
		return c.Sources.FR24.Enabled
	case "opensky":
		return c.Sources.OpenSky.Enabled
	case "fake":
		return c.Sources.Fake.Enabled
	}
	return false
}
