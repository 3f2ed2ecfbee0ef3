package config

import "strings"

// RedisConfig contains the session store connection.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
	// Prefix namespaces session keys when the instance is shared.
	Prefix string `env:"SESSION_PREFIX" envDefault:"tom:session:"`
}

// Sanitize applies guardrails to Redis configuration values.
func (c *RedisConfig) Sanitize() {
	c.Addr = strings.TrimSpace(c.Addr)
	if c.DB < 0 {
		c.DB = 0
	}
}
