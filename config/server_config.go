package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds server tunables loaded from environment variables.
type ServerConfig struct {
	Addr         string
	StaticDir    string
	LogFile      string
	RoomCapacity int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins []string
}

// LoadServerConfig reads configuration from the environment, loading a .env
// file first when one is present. Missing variables fall back to defaults.
func LoadServerConfig() ServerConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	return ServerConfig{
		Addr:         getEnv("PLAZA_ADDR", ":8080"),
		StaticDir:    getEnv("STATIC_DIR", ""),
		LogFile:      getEnv("PLAZA_LOG_FILE", "plaza-server.log"),
		RoomCapacity: parseInt(getEnv("ROOM_CAPACITY", ""), DefaultRoomCapacity),
		ReadTimeout:  parseDuration(getEnv("API_READ_TIMEOUT", "15s"), 15*time.Second),
		WriteTimeout: parseDuration(getEnv("API_WRITE_TIMEOUT", "15s"), 15*time.Second),
		AllowOrigins: []string{getEnv("CORS_ORIGIN", "*")},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
