package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("[CONFIG] no .env file found, using system environment")
	} else {
		log.Println("[CONFIG] .env loaded")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func EnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func EnvFloats(key string, def []float64) []float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []float64
	for _, part := range strings.Split(v, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			log.Printf("[CONFIG] skip invalid amount %q in %s", part, key)
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// =======================
// APP CONFIG
// =======================

// AppConfig is built once in main and handed to the composition root.
// No package keeps lazily-initialized global clients.
type AppConfig struct {
	Port string

	// persistence: "postgres" | "mysql" | "file"
	StorageBackend string
	FileStoreDir   string

	// object storage (S3-compatible, e.g. Backblaze B2)
	S3Endpoint   string
	S3Region     string
	S3KeyID      string
	S3AppKey     string
	S3Bucket     string
	SignedURLTTL time.Duration

	// OCR provider
	OcrEndpoint string
	OcrAPIKey   string
	OcrTimeout  time.Duration

	// payment verification
	AllowedAmounts []float64
	PayeeName      string

	// registration
	RegistrationLimit int

	// admin session
	JWTSecret         string
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	SessionTTL        time.Duration
}

func Load() *AppConfig {
	cfg := &AppConfig{
		Port: GetEnv("PORT", "3000"),

		StorageBackend: strings.ToLower(GetEnv("STORAGE_BACKEND", "postgres")),
		FileStoreDir:   GetEnv("FILE_STORE_DIR", "data"),

		S3Endpoint:   GetEnv("B2_S3_ENDPOINT"),
		S3Region:     GetEnv("B2_S3_REGION", "us-east-005"),
		S3KeyID:      GetEnv("B2_KEY_ID"),
		S3AppKey:     GetEnv("B2_APPLICATION_KEY"),
		S3Bucket:     GetEnv("B2_BUCKET"),
		SignedURLTTL: time.Duration(EnvInt("B2_SIGNED_URL_TTL", 900)) * time.Second,

		OcrEndpoint: GetEnv("OCR_SPACE_ENDPOINT", "https://api.ocr.space/parse/image"),
		OcrAPIKey:   GetEnv("OCR_SPACE_API_KEY"),
		OcrTimeout:  time.Duration(EnvInt("OCR_TIMEOUT_SECONDS", 20)) * time.Second,

		AllowedAmounts: EnvFloats("PAYMENT_ALLOWED_AMOUNTS", []float64{900, 7900}),
		PayeeName:      GetEnv("PAYMENT_PAYEE_NAME", "aditya kuveskar"),

		RegistrationLimit: EnvInt("REGISTRATION_LIMIT", 100),

		JWTSecret:         GetEnv("JWT_SECRET"),
		AdminUsername:     GetEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     GetEnv("ADMIN_PASSWORD"),
		AdminPasswordHash: GetEnv("ADMIN_PASSWORD_HASH"),
		SessionTTL:        time.Duration(EnvInt("ADMIN_SESSION_TTL_SECONDS", 24*60*60)) * time.Second,
	}

	if cfg.JWTSecret == "" {
		log.Println("[CONFIG] JWT_SECRET is not set, admin login will be rejected")
	}
	if cfg.OcrAPIKey == "" {
		log.Println("[CONFIG] OCR_SPACE_API_KEY is not set, registrations will fail")
	}
	return cfg
}
