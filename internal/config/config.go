package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port              string
	LogLevel          string
	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string
	CBRURL            string
	UseKeyRate        bool
	BankMargin        float64
	EffectiveRate     float64
	InitialRecords    int
	GeneratorSeed     *uint64
	RefreshSchedule   string
	MaxUploadBytes    int64
	SMTPHost          string
	SMTPPort          string
	SMTPUsername      string
	SMTPPassword      string
	SenderEmail       string
	ReportRecipients  []string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", "analyst"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		CBRURL:            getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		RefreshSchedule:   getEnv("REFRESH_SCHEDULE", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", "analytics@localhost"),
		ReportRecipients:  getEnvList("REPORT_RECIPIENTS"),
	}

	var err error
	if cfg.UseKeyRate, err = getEnvBool("USE_KEY_RATE", false); err != nil {
		return nil, err
	}
	if cfg.BankMargin, err = getEnvFloat("BANK_MARGIN", 5.0); err != nil {
		return nil, err
	}
	if cfg.EffectiveRate, err = getEnvFloat("DEFAULT_EFFECTIVE_RATE", 0.12); err != nil {
		return nil, err
	}
	if cfg.InitialRecords, err = getEnvInt("INITIAL_RECORDS", 10000); err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", 50<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if raw, ok := os.LookupEnv("GENERATOR_SEED"); ok && raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("GENERATOR_SEED must be an unsigned integer: %w", err)
		}
		cfg.GeneratorSeed = &seed
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.InitialRecords < 0 {
		return nil, fmt.Errorf("INITIAL_RECORDS must not be negative")
	}
	// scheduled refreshes regenerate InitialRecords applications
	if cfg.RefreshSchedule != "" && cfg.InitialRecords == 0 {
		return nil, fmt.Errorf("INITIAL_RECORDS must be positive when REFRESH_SCHEDULE is set")
	}
	if cfg.EffectiveRate <= 0 || cfg.EffectiveRate >= 1 {
		return nil, fmt.Errorf("DEFAULT_EFFECTIVE_RATE must be between 0 and 1")
	}

	return cfg, nil
}

// ReportsEnabled reports whether digest emails can be sent
func (c *Config) ReportsEnabled() bool {
	return c.SMTPHost != "" && len(c.ReportRecipients) > 0
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
