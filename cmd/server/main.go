package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"company-verify/internal/api"
	"company-verify/internal/explain"
	"company-verify/internal/sources"
	"company-verify/internal/verify"
)

func main() {
	if err := godotenv.Load(); err == nil {
		logrus.Info("loaded .env")
	}
	configureLogging()

	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	srcCfg := sources.ConfigFromEnv()
	concurrency := envInt("VERIFY_CONCURRENCY", 6)
	verifier, err := verify.NewVerifier(verify.Config{
		SourceTimeout: srcCfg.SourceBudget(),
		Concurrency:   concurrency,
	}, sources.New(srcCfg).All()...)
	if err != nil {
		logrus.Fatalf("create verifier: %v", err)
	}

	aiCfg := explain.Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	}
	if temp := os.Getenv("OPENAI_TEMPERATURE"); temp != "" {
		if v, err := strconv.ParseFloat(temp, 64); err == nil {
			aiCfg.Temperature = v
		}
	}

	cfg := api.Config{
		Verifier:       verifier,
		SilentDB:       true,
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		AIConfig:       aiCfg,
		DisableAI:      strings.EqualFold(strings.TrimSpace(os.Getenv("DISABLE_AI")), "true"),
	}

	if !strings.EqualFold(strings.TrimSpace(os.Getenv("VERIFY_HISTORY")), "false") {
		cfg.DBPath = filepath.Join(baseDir, "data", "verifications.db")
		if override := strings.TrimSpace(os.Getenv("VERIFY_DB_PATH")); override != "" {
			cfg.DBPath = override
		}
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "2000"
	}

	logrus.WithFields(logrus.Fields{
		"source_timeout": srcCfg.HTTP.Timeout,
		"source_budget":  srcCfg.SourceBudget(),
		"source_delay":   srcCfg.HTTP.Delay,
		"concurrency":    concurrency,
		"history":        cfg.DBPath != "",
	}).Infof("starting company-verify backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}

func configureLogging() {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		return
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("LOG_LEVEL", level).Warn("unknown log level")
		return
	}
	logrus.SetLevel(parsed)
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			return val
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
