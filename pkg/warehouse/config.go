package warehouse

import "time"

type Config struct {
	URL            string        `envconfig:"URL" default:"sqlite://control_tower.db" validate:"required"`
	MaxOpenConns   int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"10" validate:"gt=0"`
	QueryTimeout   time.Duration `envconfig:"QUERY_TIMEOUT" split_words:"true" default:"15s"`
	MaxRows        int           `envconfig:"MAX_ROWS" split_words:"true" default:"50" validate:"gt=0"`
	SampleRows     int           `envconfig:"SAMPLE_ROWS" split_words:"true" default:"3" validate:"gte=0"`
	SchemaCacheTTL time.Duration `envconfig:"SCHEMA_CACHE_TTL" split_words:"true" default:"5m"`
	// CreateTables creates the logistics tables when they are missing.
	CreateTables bool `envconfig:"CREATE_TABLES" split_words:"true" default:"false"`
}
