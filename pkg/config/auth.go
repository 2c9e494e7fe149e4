package config

import (
	"fmt"
	"strings"
	"time"
)

type AuthConfig struct {
	Secret   string        `koanf:"secret"`
	Issuer   string        `koanf:"issuer"`
	TokenTTL time.Duration `koanf:"tokenttl"`
}

// String returns a string representation of the auth configuration.
// The signing secret is never printed.
func (c *AuthConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  issuer: %s\n", c.Issuer))
	b.WriteString(fmt.Sprintf("  tokenttl: %s\n", c.TokenTTL))
	return b.String()
}

func (c *AuthConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("auth secret cannot be empty")
	}
	if len(c.Secret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 bytes long")
	}
	if c.Issuer == "" {
		return fmt.Errorf("auth issuer cannot be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL must be greater than zero")
	}
	return nil
}
