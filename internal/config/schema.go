package config

import (
	"time"

	"github.com/LevdanskyVitaliy/todo-sync/internal/search"
)

// Config represents the full todo-sync configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Remote store the client talks to
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"`

	// Search matching options
	Search search.Options `yaml:"search" mapstructure:"search"`

	// Dev store settings, used by todo-store
	Store StoreConfig `yaml:"store" mapstructure:"store"`
}

// RemoteConfig configures the remote store client
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// StoreConfig configures the dev store server
type StoreConfig struct {
	Addr   string `yaml:"addr" mapstructure:"addr"`
	Driver string `yaml:"driver" mapstructure:"driver"`

	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`

	MongoURI      string `yaml:"mongo_uri" mapstructure:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database" mapstructure:"mongo_database"`
}

// Store drivers
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)
