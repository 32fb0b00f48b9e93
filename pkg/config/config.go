package config

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first existing dotenv file, then fills target from the environment.
// Variables already set in the process environment win over the file.
func Load(target any, files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("warning: could not load %s: %v", f, err)
		}
		break
	}
	return envconfig.Process("", target)
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}
