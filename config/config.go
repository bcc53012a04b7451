package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config reads a variable from the environment, loading .env once on first use.
func Config(key string) string {
	godotenv.Load(".env")
	return os.Getenv(key)
}
