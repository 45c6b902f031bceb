package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/LevdanskyVitaliy/todo-sync/internal/search"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Remote: RemoteConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		Search: search.DefaultOptions(),
		Store: StoreConfig{
			Addr:          ":3000",
			Driver:        DriverSQLite,
			SQLitePath:    "~/.todo-sync/todos.db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "todo_sync",
		},
	}
}

// WriteDefault writes the default configuration to path, creating its directory
func WriteDefault(path string) error {
	content := `# todo-sync configuration
version: "1"

# Remote store the todo CLI talks to
remote:
  base_url: http://localhost:3000
  timeout: 10s  # bound on every remote call

# Task search
search:
  fuzzy: 0.2     # allowed edit distance as a fraction of term length
  prefix: true
  max_fuzzy: 6

# Dev store served by todo-store
store:
  addr: ":3000"
  driver: sqlite  # "sqlite" or "mongo"
  sqlite_path: ~/.todo-sync/todos.db
  # mongo_uri: mongodb://localhost:27017
  # mongo_database: todo_sync
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
