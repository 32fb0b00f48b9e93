package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/Skotchmaster/shop_api/pkg/config"
)

type Config struct {
	ServerPort string        `envconfig:"SERVER_PORT" default:"5000"`
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"info"`
	DBURL      string        `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL     time.Duration `envconfig:"JWT_TTL" default:"60m"`

	ClientBaseURL string   `envconfig:"CLIENT_BASE_URL" default:"http://localhost:5173"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS"`
	CookieSecure  bool     `envconfig:"COOKIE_SECURE" default:"false"`
	CSRFEnabled   bool     `envconfig:"CSRF_ENABLED" default:"false"`
	BodyLimit     string   `envconfig:"BODY_LIMIT" default:"8M"`

	PayPal PayPal
	Kafka  Kafka
	ES     ES
	S3     S3
	Redis  Redis
}

type PayPal struct {
	Mode         string `envconfig:"PAYPAL_MODE" default:"sandbox"`
	ClientID     string `envconfig:"PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"PAYPAL_CLIENT_SECRET"`
}

type Kafka struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

type ES struct {
	URL      string `envconfig:"ES_URL"`
	User     string `envconfig:"ES_USER"`
	Password string `envconfig:"ES_PASSWORD"`
	Index    string `envconfig:"ES_INDEX" default:"products"`
}

type S3 struct {
	Bucket   string `envconfig:"S3_BUCKET"`
	Region   string `envconfig:"S3_REGION" default:"us-east-1"`
	Endpoint string `envconfig:"S3_ENDPOINT"`
}

type Redis struct {
	URL string `envconfig:"REDIS_URL"`
}

// Load reads the dotenv file (if any) and the process environment.
func Load(files ...string) (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg, files...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	switch c.PayPal.Mode {
	case "sandbox", "live":
	default:
		return fmt.Errorf("PAYPAL_MODE must be sandbox or live, got %q", c.PayPal.Mode)
	}
	return nil
}

// AllowedOrigins is CORS_ORIGINS, or the client base URL when that is unset.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 && c.ClientBaseURL != "" {
		out = append(out, c.ClientBaseURL)
	}
	return out
}

func (c *Config) PayPalEnabled() bool {
	return c.PayPal.ClientID != "" && c.PayPal.ClientSecret != ""
}
