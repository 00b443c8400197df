package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"exchangedesk/internal/config"
	"exchangedesk/internal/logger"
	"exchangedesk/internal/seed"
	"exchangedesk/internal/service"
	"exchangedesk/internal/store"
)

// seed creates the data file from the seed defaults when it does not exist and
// hashes the configured default passwords of users that have none yet.
func main() {
	seedPath := flag.String("seed", "", "YAML seed file (defaults to SEED_FILE, then the built-in seed)")
	dataPath := flag.String("data", "", "data file (defaults to DATA_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *seedPath != "" {
		cfg.SeedFile = *seedPath
	}
	if *dataPath != "" {
		cfg.DataFile = *dataPath
	}

	zapLogger, cleanup, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer cleanup()

	seedFile, err := seed.Open(cfg.SeedFile)
	if err != nil {
		zapLogger.Fatal("load seed", zap.Error(err))
	}

	ctx := context.Background()
	dataStore := store.New(cfg.DataFile, store.WithLogger(zapLogger))
	if err := dataStore.Initialize(ctx, seedFile.Document(time.Now().UTC())); err != nil {
		zapLogger.Fatal("data store init", zap.String("path", cfg.DataFile), zap.Error(err))
	}

	passwords := seedFile.Passwords()
	for email, password := range cfg.BootstrapPasswords {
		passwords[email] = password
	}
	credentials := service.NewCredentialService(dataStore, passwords, zapLogger)
	changed, err := credentials.BootstrapDefaults(ctx)
	if err != nil {
		zapLogger.Fatal("bootstrap passwords", zap.Error(err))
	}

	doc := dataStore.Get()
	zapLogger.Info("seed complete",
		zap.String("path", cfg.DataFile),
		zap.Int("users", len(doc.Users)),
		zap.Int("currencies", len(doc.Currencies)),
		zap.Int("rates", len(doc.Rates)),
		zap.Int("passwords_set", changed))
}
