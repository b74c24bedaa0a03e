// Command seed creates the schema, a first organization and its owner.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sarelsmotors/garage/internal/api/validation"
	"github.com/sarelsmotors/garage/internal/auth"
	"github.com/sarelsmotors/garage/internal/database"
	"github.com/sarelsmotors/garage/internal/database/models"
	"github.com/sarelsmotors/garage/pkg/config"
	"github.com/sarelsmotors/garage/pkg/util"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	orgName := flag.String("org", envOr("SEED_ORG_NAME", "Sarel's Motors"), "organization name")
	vatNumber := flag.String("vat", os.Getenv("SEED_ORG_VAT"), "organization VAT number")
	email := flag.String("email", os.Getenv("SEED_OWNER_EMAIL"), "owner email")
	name := flag.String("name", envOr("SEED_OWNER_NAME", "Owner"), "owner name")
	password := flag.String("password", os.Getenv("SEED_OWNER_PASSWORD"), "owner password")
	flag.Parse()

	if !validation.IsValidEmail(*email) {
		log.Fatal("a valid owner email is required (-email or SEED_OWNER_EMAIL)")
	}
	if ok, msg := validation.IsValidPassword(*password); !ok {
		log.Fatalf("owner password: %s (-password or SEED_OWNER_PASSWORD)", msg)
	}
	if *vatNumber != "" && !validation.IsValidVATNumber(*vatNumber) {
		log.Fatal("VAT number must be 10 digits starting with 4")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	normalized := models.NormalizeEmail(*email)

	var existing models.User
	err = db.Where("email = ?", normalized).First(&existing).Error
	if err == nil {
		fmt.Printf("User already exists: %s\n", normalized)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("failed to look up user: %v", err)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	org := &models.Organization{
		Name:      validation.SanitizeString(*orgName),
		VATNumber: validation.NormalizeDigits(*vatNumber),
	}
	owner := &models.User{
		Email:          normalized,
		Name:           validation.SanitizeString(*name),
		HashedPassword: hash,
		Role:           models.RoleOwner,
		IsActive:       true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("creating organization: %w", err)
		}
		owner.OrganizationID = org.ID
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("creating owner: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Organization created: %s (%s)\n", org.Name, org.ID)
	fmt.Printf("Owner created: %s\n", owner.Email)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
