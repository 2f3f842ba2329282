// internal/workers/professionals/list-professionals/config.go
package listprofessionals

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DefaultLimit: 12,
		MaxLimit:     100,
	}
}
