package host

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the function host
type Config struct {
	// Port is the port to listen on (default: 7071)
	Port string

	// Host is the host to bind to (default: "")
	Host string

	// Adapter selects the web server: echo, gin or fiber (default: echo)
	Adapter string

	// ShutdownTimeout is the timeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// FunctionKey enables the built-in function-key scheme when set
	FunctionKey string
}

// LoadConfig returns a configuration read from the environment with defaults
func LoadConfig() *Config {
	return &Config{
		Port:            getEnvOrDefault("FNHOST_PORT", getEnvOrDefault("PORT", "7071")),
		Host:            getEnvOrDefault("FNHOST_HOST", ""),
		Adapter:         getEnvOrDefault("FNHOST_ADAPTER", "echo"),
		ShutdownTimeout: getDurationOrDefault("FNHOST_SHUTDOWN_TIMEOUT", 30*time.Second),
		FunctionKey:     os.Getenv("FNHOST_FUNCTION_KEY"),
	}
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
