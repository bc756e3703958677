package shared

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CRMBase       string
	CRMKey        string
	ItineraryBase string
	ChromePath    string
	CompanyName   string
	CompanyLine   string
	ClientRPS     int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisDB:       atoi("REDIS_DB", 0),
		RedisPass:     env("REDIS_PASSWORD", ""),
		CRMBase:       env("CRM_BASE_URL", "http://localhost:8000/api"),
		CRMKey:        env("CRM_API_KEY", ""),
		ItineraryBase: env("ITINERARY_BASE_URL", "http://localhost:8000/api"),
		ChromePath:    env("CHROME_PATH", ""),
		CompanyName:   env("COMPANY_NAME", "TravelOps"),
		CompanyLine:   env("COMPANY_LINE", "Delhi, India | Email: info@travelops.com | Mobile: +91-9871023004"),
		ClientRPS:     atoi("CLIENT_RPS", 5),
	}
	if c.CRMKey == "" {
		log.Warn().Msg("CRM_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
