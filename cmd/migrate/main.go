package main

import (
	"os"

	"metrocare-be/internal/model"
	"metrocare-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		color.White("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer database.Close(db)

	color.Cyan("Starting GORM migration...")

	// 3. Pre-Migration: Extensions (AutoMigrate does not create them)
	color.Yellow("Step 1: Setting up extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Red("Error: Failed to execute setup SQL: %v", err)
			os.Exit(1)
		}
	}

	// 4. AutoMigrate All Models
	color.Yellow("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.Report{},
		&model.StatusUpdate{},
		&model.Vote{},
		&model.Notification{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	// 5. Post-Migration: Indexes & Triggers
	color.Yellow("Step 3: Creating indexes and triggers...")

	postMigrationSQL := []string{
		// Embedded reports are the similarity population; keep them cheap to scan.
		`CREATE INDEX IF NOT EXISTS idx_reports_embedded_created
		 ON reports (created_at DESC) WHERE image_embedding IS NOT NULL;`,

		`ALTER TABLE reports DROP CONSTRAINT IF EXISTS chk_reports_upvotes_non_negative;`,
		`ALTER TABLE reports ADD CONSTRAINT chk_reports_upvotes_non_negative CHECK (upvotes >= 0);`,

		// Function: set_current_timestamp_updated_at
		`CREATE OR REPLACE FUNCTION set_current_timestamp_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
		DECLARE _new_value TIMESTAMP WITH TIME ZONE;
		BEGIN
		  _new_value := now();
		  IF NEW.updated_at IS DISTINCT FROM _new_value THEN NEW.updated_at = _new_value; END IF;
		  RETURN NEW;
		END; $$;`,

		`DROP TRIGGER IF EXISTS set_reports_updated_at ON reports;`,
		`CREATE TRIGGER set_reports_updated_at BEFORE UPDATE ON reports
		 FOR EACH ROW EXECUTE FUNCTION set_current_timestamp_updated_at();`,

		`DROP TRIGGER IF EXISTS set_users_updated_at ON users;`,
		`CREATE TRIGGER set_users_updated_at BEFORE UPDATE ON users
		 FOR EACH ROW EXECUTE FUNCTION set_current_timestamp_updated_at();`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Red("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	color.Green("Success: database migration completed.")
}
