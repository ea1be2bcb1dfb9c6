package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Env holds the values read from the .env file. Process environment
// variables always take precedence so container deployments can
// override the file.
var Env map[string]string

// GetEnv returns the configured value for key, falling back to def.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val, ok := Env[key]; ok && val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found relative to the working
// directory. A missing file is not an error: the service runs on
// process environment and built-in defaults alone.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // project root
		"../../.env",    // from cmd/zabora or cmd/migrate
		"../../../.env", // deeper nesting
	}

	for _, envFile := range envFiles {
		vals, err := godotenv.Read(envFile)
		if err == nil {
			Env = vals
			return
		}
	}

	log.Println("no .env file found, using process environment and defaults")
}

// IsDev reports whether the service runs in development mode.
func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
