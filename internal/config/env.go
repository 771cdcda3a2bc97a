package config

import (
	"os"

	"github.com/joho/godotenv"
)

// EnvLoad loads .env (or the given files) into the environment. A missing
// file is not an error; the file is optional.
func EnvLoad(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// Get base-chain API endpoint override
func EnvHiveNodeURL() string {
	return os.Getenv("HIVE_NODE_URL")
}

// Get side-chain API endpoint override
func EnvEngineNodeURL() string {
	return os.Getenv("ENGINE_NODE_URL")
}

// Get default log level
func EnvLogLevel() string {
	return os.Getenv("LOG_LEVEL")
}

// Get log file enabled flag
func EnvLogFileEnabled() bool {
	return os.Getenv("LOG_FILE_ENABLED") == "true"
}

// Get log file path
func EnvLogFilePath() string {
	return os.Getenv("LOG_FILE_PATH")
}
