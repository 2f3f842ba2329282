// internal/workers/professionals/list-top-professionals/config.go
package listtopprofessionals

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DefaultLimit: 3,
		MaxLimit:     50,
	}
}
