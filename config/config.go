package config

import (
	"fmt"
	"time"

	"github.com/wayfarer-go/navigator/pkg/configparser"
)

// Config contains all configuration variables of the application
type (
	Config struct {
		HTTP      HTTPConfig
		Database  DatabaseConfig
		RabbitMQ  RabbitMQConfig
		WebSocket WebSocketConfig
		Route     RouteProviderConfig
		Session   SessionConfig
		Auth      Auth
	}

	HTTPConfig struct {
		Port string `env:"HTTP_PORT" default:"8080"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"navigator_user"`
		Password string `env:"DATABASE_PASSWORD" default:"navigator_pass"`
		Database string `env:"DATABASE_DATABASE" default:"navigator_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	// RouteProviderConfig points at the bundled OSRM/Valhalla-compatible
	// route provider used by navsession.Service.RequestReroute.
	RouteProviderConfig struct {
		BaseURL string `env:"ROUTE_PROVIDER_BASE_URL" default:"http://localhost:8002"`
		Costing string `env:"ROUTE_PROVIDER_COSTING" default:"auto"`
	}

	// SessionConfig tunes navsession.Service policy that lives outside the
	// pure controller.
	SessionConfig struct {
		RerouteCooldown time.Duration `env:"SESSION_REROUTE_COOLDOWN" default:"5s"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	WebSocketConfig struct {
		WriteTimeout time.Duration `env:"WEBSOCKET_WRITE_TIMEOUT" default:"10s"`
	}

	// Auth gates the five session HTTP routes with a bearer JWT
	// minted by whatever identity system fronts this host, and gates the
	// live WebSocket stream with a separate hashed key so browser clients
	// that cannot set an Authorization header can still subscribe.
	Auth struct {
		JWTSecret   string `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
		WSStreamKey string `env:"AUTH_WS_STREAM_KEY" default:"supersecretkey"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	return cfg, nil
}
