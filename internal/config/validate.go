package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn must not be empty")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 15 {
		return fmt.Errorf("auth.bcrypt_cost must be between 10 and 15 (got %d)", c.Auth.BcryptCost)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port (got %d)", c.Server.Port)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Issues.MaxTitleLength <= 0 {
		return fmt.Errorf("issues.max_title_length must be > 0 (got %d)", c.Issues.MaxTitleLength)
	}
	if c.Issues.MaxCommentLength <= 0 {
		return fmt.Errorf("issues.max_comment_length must be > 0 (got %d)", c.Issues.MaxCommentLength)
	}

	return nil
}
