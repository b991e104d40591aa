package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// GeocoderConfig selects and parameterizes the geocoding provider.
type GeocoderConfig struct {
	// Provider is "nominatim" (default) or "google".
	Provider         string
	NominatimBaseURL string
	GoogleAPIKey     string
}

// RoutingConfig parameterizes the routing engine client.
type RoutingConfig struct {
	ValhallaBaseURL string
	Costing         string
}

// ImageryConfig parameterizes the satellite-imagery client.
type ImageryConfig struct {
	BaseURL  string
	Width    int
	Height   int
	PadRatio float64
}

// VisionConfig parameterizes the language/vision service client.
type VisionConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// PipelineConfig holds the orchestration policy values. These are product
// policy, kept named and overridable rather than buried as literals.
type PipelineConfig struct {
	// MaxDurationSeconds halts the pipeline before imagery when a route is
	// strictly longer than this. A route of exactly this length proceeds.
	MaxDurationSeconds float64
}

// ServiceConfig holds all configuration for the walkroute service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	HTTPTimeout time.Duration
	Geocoder    GeocoderConfig
	Routing     RoutingConfig
	Imagery     ImageryConfig
	Vision      VisionConfig
	Pipeline    PipelineConfig
}

// Load reads configuration from environment variables (and a local .env file
// when present), prefixed WALK_.
func Load() (*ServiceConfig, error) {
	// Missing .env is fine outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("WALK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service_port", ":8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("geocoder.provider", "nominatim")
	v.SetDefault("geocoder.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.google_api_key", "")
	v.SetDefault("routing.valhalla_url", "https://valhalla1.openstreetmap.de")
	v.SetDefault("routing.costing", "pedestrian")
	v.SetDefault("imagery.url", "https://imagery.strollscribe.dev/static")
	v.SetDefault("imagery.width", 1024)
	v.SetDefault("imagery.height", 1024)
	v.SetDefault("imagery.pad_ratio", 0.1)
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.model", "claude-sonnet-4-20250514")
	v.SetDefault("vision.max_tokens", 1024)
	v.SetDefault("max_duration_seconds", 3600)

	cfg := &ServiceConfig{
		Port:        normalizePort(v.GetString("service_port")),
		AppEnv:      v.GetString("app_env"),
		HTTPTimeout: time.Duration(v.GetInt("http_timeout_seconds")) * time.Second,
		Geocoder: GeocoderConfig{
			Provider:         v.GetString("geocoder.provider"),
			NominatimBaseURL: v.GetString("geocoder.nominatim_url"),
			GoogleAPIKey:     v.GetString("geocoder.google_api_key"),
		},
		Routing: RoutingConfig{
			ValhallaBaseURL: v.GetString("routing.valhalla_url"),
			Costing:         v.GetString("routing.costing"),
		},
		Imagery: ImageryConfig{
			BaseURL:  v.GetString("imagery.url"),
			Width:    v.GetInt("imagery.width"),
			Height:   v.GetInt("imagery.height"),
			PadRatio: v.GetFloat64("imagery.pad_ratio"),
		},
		Vision: VisionConfig{
			APIKey:    v.GetString("vision.api_key"),
			Model:     v.GetString("vision.model"),
			MaxTokens: v.GetInt64("vision.max_tokens"),
		},
		Pipeline: PipelineConfig{
			MaxDurationSeconds: v.GetFloat64("max_duration_seconds"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.Geocoder.Provider != "nominatim" && c.Geocoder.Provider != "google" {
		return fmt.Errorf("unknown geocoder provider %q", c.Geocoder.Provider)
	}
	if c.Geocoder.Provider == "google" && c.Geocoder.GoogleAPIKey == "" {
		return fmt.Errorf("geocoder provider google requires WALK_GEOCODER_GOOGLE_API_KEY")
	}
	if c.Pipeline.MaxDurationSeconds <= 0 {
		return fmt.Errorf("max duration must be positive, got %f", c.Pipeline.MaxDurationSeconds)
	}
	return nil
}

func normalizePort(port string) string {
	if port == "" {
		return ":8080"
	}
	if !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}
