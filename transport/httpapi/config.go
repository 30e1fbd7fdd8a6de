package httpapi

import "time"

type Config struct {
	Addr           string        `envconfig:"ADDR" default:":8080" validate:"required"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" split_words:"true" default:"60s"`
	// RateLimit uses the limiter format, e.g. "60-M" for 60 requests per minute.
	// Empty disables rate limiting.
	RateLimit      string        `envconfig:"RATE_LIMIT" split_words:"true" default:"60-M"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" split_words:"true" default:"*"`
	SampleRows     int           `envconfig:"SAMPLE_ROWS" split_words:"true" default:"5" validate:"gt=0,lte=100"`
	ShutdownGrace  time.Duration `envconfig:"SHUTDOWN_GRACE" split_words:"true" default:"10s"`
}
