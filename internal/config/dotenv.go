package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var dotenvOnce sync.Once

// LoadDotEnv loads .env from the working directory into the process
// environment the first time it is called. Existing variables win.
func LoadDotEnv() {
	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("No .env file found, using process environment")
		}
	})
}
