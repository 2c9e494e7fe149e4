package config

import (
	"fmt"
	"strings"
	"time"
)

type MongoConfig struct {
	URI     string        `koanf:"uri"`
	Name    string        `koanf:"name"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the database configuration
// with credentials stripped from the URI.
func (c *MongoConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  uri: %s\n", maskURI(c.URI)))
	b.WriteString(fmt.Sprintf("  name: %s\n", c.Name))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

// maskURI hides the credentials part of a connection string.
func maskURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd == -1 {
		return uri
	}
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	return uri[:schemeEnd+3] + "***@" + uri[at+1:]
}

func (c *MongoConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("database URI is not configured")
	}
	if !isValidMongoURI(c.URI) {
		return fmt.Errorf("database URI must start with 'mongodb://': %s", c.URI)
	}
	if c.Name == "" {
		return fmt.Errorf("database name is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	return nil
}

// isValidMongoURI checks if the provided URI is a valid MongoDB connection string
func isValidMongoURI(uri string) bool {
	return strings.HasPrefix(uri, "mongodb://") ||
		strings.HasPrefix(uri, "mongodb+srv://")
}
