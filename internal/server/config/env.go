package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file
// in the working directory is loaded first; a missing file is not an
// error. Unset variables leave the current value untouched.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString(&config.EndpointAddr, "ADDRESS")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.PrivateKeyPath, "PRIVATE_KEY_PATH")
	setString(&config.JWTIssuer, "JWT_ISSUER")
	setString(&config.JWTAudience, "JWT_AUDIENCE")

	setDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_VALIDITY")
	setDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_VALIDITY")

	setString(&config.Google.PublicKeyPath, "GOOGLE_PUBLIC_KEY_PATH")
	setString(&config.Google.Issuer, "GOOGLE_ISSUER")
	setString(&config.Google.Audience, "GOOGLE_AUDIENCE")
	setString(&config.Apple.PublicKeyPath, "APPLE_PUBLIC_KEY_PATH")
	setString(&config.Apple.Issuer, "APPLE_ISSUER")
	setString(&config.Apple.Audience, "APPLE_AUDIENCE")

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok && v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		config.CORSOrigins = origins
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// setDuration accepts Go duration strings ("15m", "168h"). A malformed
// value is ignored and the current value stays in effect.
func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return
	}
	*dst = d
}
