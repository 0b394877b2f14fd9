package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      int
	ZmqApiPort      int
	DatabaseFile    string
	DatabaseType    string
	Locking         bool
	Autoflush       bool
	ConfigServerUrl string
	DeploymentMode  string
}

func LoadConfig() Config {
	godotenv.Load(".env")
	return Config{
		ServerPort:      intEnv("HTTP_SERVER_PORT", 3000),
		ZmqApiPort:      intEnv("ZMQ_API_PORT", 5555),
		DatabaseFile:    stringEnv("DATABASE_FILE", "dpdb.db"),
		DatabaseType:    stringEnv("DATABASE_TYPE", "map"),
		Locking:         boolEnv("DATABASE_LOCKING", true),
		Autoflush:       boolEnv("DATABASE_AUTOFLUSH", true),
		ConfigServerUrl: os.Getenv("CONFIG_SERVER_URL"),
		DeploymentMode:  os.Getenv("DEPLOYMENT_MODE"),
	}
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func boolEnv(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
