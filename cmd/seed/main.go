package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"treasuryroi/internal/config"
	"treasuryroi/internal/database"
	"treasuryroi/internal/domain"
	"treasuryroi/internal/repository"
)

// Seeds the admin account and default settings. Safe to run twice:
// existing rows are left alone.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	switch err := userRepo.Create(ctx, user); {
	case err == nil:
		log.Println("Created admin user:", email)
	case errors.Is(err, repository.ErrDuplicateEmail):
		log.Println("Admin user already exists:", email)
	default:
		log.Fatal(err)
	}

	defaults := map[string]string{
		domain.SettingReportTitle:     "Treasury ROI Report",
		domain.SettingNarrativeOn:     "true",
		domain.SettingRetentionDays:   "365",
		domain.SettingDefaultCurrency: "USD",
	}
	for key, value := range defaults {
		if _, err := settingRepo.Get(ctx, key); err == nil {
			continue
		}
		if err := settingRepo.Set(ctx, key, value); err != nil {
			log.Fatal(err)
		}
		log.Printf("Seeded setting %s=%s", key, value)
	}

	log.Println("Seed complete")
}
