// Package config reads service settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Frontend configures cmd/saferoute.
type Frontend struct {
	Addr              string
	GeocodeURL        string
	GeocodeUserAgent  string
	GeocodeCacheTTL   time.Duration
	RoutingURL        string
	RoutingProfile    string
	RiskBackendURL    string
	RiskAPIToken      string
	PipelineTimeout   time.Duration
	HTTPClientTimeout time.Duration
	MQTTBroker        string
	MQTTTopic         string
	RateLimitMax      int
	RateLimitWindow   int
	LogLevel          string
	Environment       string
	JaegerEndpoint    string
}

// Risk configures cmd/riskd.
type Risk struct {
	Addr             string
	AccidentSource   string
	AccidentCSV      string
	MongoURI         string
	MongoDB          string
	SQLitePath       string
	JWTSecret        string
	JWTExpiry        time.Duration
	AuthRequired     bool
	ClientID         string
	ClientSecretHash string
	Neighbors        int
	MajorSeverity    int
	MaxSeverity      int
	LogLevel         string
	Environment      string
	JaegerEndpoint   string
}

// Accident sample sources.
const (
	SourceCSV    = "csv"
	SourceMongo  = "mongo"
	SourceSQLite = "sqlite"
)

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}
}

func LoadFrontend() Frontend {
	loadDotEnv()
	return Frontend{
		Addr:              getEnvWithDefault("HTTP_ADDR", ":8080"),
		GeocodeURL:        getEnvWithDefault("GEOCODE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocodeUserAgent:  getEnvWithDefault("GEOCODE_USER_AGENT", "safe-route/1.0"),
		GeocodeCacheTTL:   getEnvAsDuration("GEOCODE_CACHE_TTL", 10*time.Minute),
		RoutingURL:        getEnvWithDefault("ROUTING_URL", "https://router.project-osrm.org"),
		RoutingProfile:    getEnvWithDefault("ROUTING_PROFILE", "driving"),
		RiskBackendURL:    getEnvWithDefault("RISK_BACKEND_URL", "http://127.0.0.1:5000"),
		RiskAPIToken:      os.Getenv("RISK_API_TOKEN"),
		PipelineTimeout:   getEnvAsDuration("PIPELINE_TIMEOUT", 30*time.Second),
		HTTPClientTimeout: getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		MQTTBroker:        os.Getenv("MQTT_BROKER"),
		MQTTTopic:         getEnvWithDefault("MQTT_TOPIC", "saferoute/status"),
		RateLimitMax:      getEnvAsInt("RATE_LIMIT_MAX", 30),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		Environment:       getEnvWithDefault("ENVIRONMENT", "development"),
		JaegerEndpoint:    os.Getenv("JAEGER_ENDPOINT"),
	}
}

func LoadRisk() Risk {
	loadDotEnv()
	return Risk{
		Addr:             getEnvWithDefault("RISK_ADDR", ":5000"),
		AccidentSource:   getEnvWithDefault("ACCIDENT_SOURCE", SourceCSV),
		AccidentCSV:      getEnvWithDefault("ACCIDENT_CSV", "data/accidents.csv"),
		MongoURI:         getEnvWithDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:          getEnvWithDefault("MONGO_DB", "saferoute"),
		SQLitePath:       getEnvWithDefault("SQLITE_PATH", "data/accidents.db"),
		JWTSecret:        getEnvWithDefault("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiry:        getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		AuthRequired:     getEnvAsBool("AUTH_REQUIRED", false),
		ClientID:         getEnvWithDefault("CLIENT_ID", "saferoute"),
		ClientSecretHash: os.Getenv("CLIENT_SECRET_HASH"),
		Neighbors:        getEnvAsInt("KNN_NEIGHBORS", 10),
		MajorSeverity:    getEnvAsInt("MAJOR_SEVERITY", 3),
		MaxSeverity:      getEnvAsInt("MAX_SEVERITY", 4),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		Environment:      getEnvWithDefault("ENVIRONMENT", "development"),
		JaegerEndpoint:   os.Getenv("JAEGER_ENDPOINT"),
	}
}

// ParseLevel returns the logrus level for name, falling back to info.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
