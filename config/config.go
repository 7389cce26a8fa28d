package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	JWTSecret      string
	JWTIssuer      string
	LogMode        string
	UploadDir      string
	AllowedOrigins []string
	StatsCacheTTL  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string
}

// Load reads .env when present and then the process environment.
// A missing .env file is not an error; it returns false in that case.
func Load() (Config, bool) {
	loaded := godotenv.Load() == nil

	cfg := Config{
		Port:           String("PORT", "3000"),
		MongoURI:       String("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:        String("MONGODB_DB", "Krishi-Link-DB"),
		RedisAddr:      String("REDIS_ADDR", ""),
		JWTSecret:      String("JWT_SECRET", ""),
		JWTIssuer:      String("JWT_ISSUER", ""),
		LogMode:        String("LOG_MODE", "development"),
		UploadDir:      String("UPLOAD_DIR", "./static/uploads"),
		AllowedOrigins: List("ALLOWED_ORIGINS", []string{"*"}),
		StatsCacheTTL:  Duration("STATS_CACHE_TTL", 30*time.Second),
		RateLimitRPS:   Float("RATE_LIMIT_RPS", 10),
		RateLimitBurst: Int("RATE_LIMIT_BURST", 20),
		TrustedProxies: List("TRUSTED_PROXIES", nil),
	}
	return cfg, loaded
}

func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func Int(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func Float(name string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Duration accepts Go duration strings ("45s") or a bare number of seconds.
func Duration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func List(name string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
