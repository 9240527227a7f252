package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment    string
	Domains        []string
	CertCacheDir   string
	HTTPPort       string
	ServiceBaseURL string

	StorageDir string
	TempDir    string
	LogDir     string

	FontPath     string
	FontBoldPath string
	LogoURL      string

	VideoQuality  string
	FrameRate     int
	VideoCodec    string
	AudioCodec    string
	FFmpegPath    string
	FFprobePath   string
	SegmentPacing time.Duration
	Grouping      bool
	CharCap       int

	TTSProvider    string
	TTSMaxAttempts int
	TTSBaseDelay   time.Duration

	ElevenLabsAPIURL   string
	ElevenLabsAPIKey   string
	ElevenLabsModel    string
	ElevenLabsVoiceIDs map[string]string

	AWSRegion    string
	AWSAPIKey    string
	AWSAPISecret string

	CategoriesFile         string
	StockDir               string
	StockCatalogDB         string
	StockPick              string
	CategoryReloadSchedule string

	DatabaseURL        string
	VideoRetentionDays int
	CleanupSchedule    string
	RunRetention       time.Duration

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	NotifyTo         string
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		Domains:        getEnvAsList("DOMAIN", []string{"example.com"}),
		CertCacheDir:   getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		HTTPPort:       getEnv("HTTP_PORT", "8086"),
		ServiceBaseURL: getEnv("SERVICE_BASE_URL", "http://localhost:8086"),

		StorageDir: getEnv("STORAGE_DIR", "storage"),
		TempDir:    getEnv("TEMP_DIR", os.TempDir()),
		LogDir:     getEnv("LOG_DIR", "logs"),

		FontPath:     getEnv("FONT_PATH", ""),
		FontBoldPath: getEnv("FONT_BOLD_PATH", ""),
		LogoURL:      getEnv("LOGO_URL", ""),

		VideoQuality:  getEnv("VIDEO_QUALITY", "medium"),
		FrameRate:     getEnvAsInt("FRAME_RATE", 24),
		VideoCodec:    getEnv("VIDEO_CODEC", "libx264"),
		AudioCodec:    getEnv("AUDIO_CODEC", "aac"),
		FFmpegPath:    getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:   getEnv("FFPROBE_PATH", "ffprobe"),
		SegmentPacing: getEnvAsDuration("SEGMENT_PACING_MS", 200*time.Millisecond, time.Millisecond),
		Grouping:      getEnvAsBool("SEGMENT_GROUPING", false),
		CharCap:       getEnvAsInt("SEGMENT_CHAR_CAP", 300),

		TTSProvider:    getEnv("TTS_PROVIDER", "elevenlabs"),
		TTSMaxAttempts: getEnvAsInt("TTS_MAX_ATTEMPTS", 5),
		TTSBaseDelay:   getEnvAsDuration("TTS_BASE_DELAY_MS", time.Second, time.Millisecond),

		ElevenLabsAPIURL:   getEnv("ELEVENLABS_API_URL", "https://api.elevenlabs.io/v1/text-to-speech"),
		ElevenLabsAPIKey:   getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsModel:    getEnv("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
		ElevenLabsVoiceIDs: getEnvAsMap("ELEVENLABS_VOICE_IDS"),

		AWSRegion:    getEnv("AWS_REGION", "eu-west-1"),
		AWSAPIKey:    getEnv("AWS_API_KEY", ""),
		AWSAPISecret: getEnv("AWS_API_SECRET", ""),

		CategoriesFile:         getEnv("CATEGORIES_FILE", ""),
		StockDir:               getEnv("STOCK_DIR", "storage/stock"),
		StockCatalogDB:         getEnv("STOCK_CATALOG_DB", ""),
		StockPick:              getEnv("STOCK_PICK", "first"),
		CategoryReloadSchedule: getEnv("CATEGORY_RELOAD_SCHEDULE", "@every 5m"),

		DatabaseURL:        getEnv("DATABASE_URL", ""),
		VideoRetentionDays: getEnvAsInt("VIDEO_RETENTION_DAYS", 7),
		CleanupSchedule:    getEnv("CLEANUP_SCHEDULE", "0 3 * * *"),
		RunRetention:       getEnvAsDuration("RUN_RETENTION_MINUTES", time.Hour, time.Minute),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getEnv("TWILIO_FROM", ""),
		NotifyTo:         getEnv("NOTIFY_TO", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration reads an integer count of unit.
func getEnvAsDuration(key string, fallback time.Duration, unit time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil && value >= 0 {
		return time.Duration(value) * unit
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsMap parses "a=1,b=2".
func getEnvAsMap(key string) map[string]string {
	out := map[string]string{}
	for _, pair := range getEnvAsList(key, nil) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}
