package main

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
)

const exportRecordsDDL = `
CREATE TABLE IF NOT EXISTS export_records (
    id BIGSERIAL PRIMARY KEY,
    created_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ,
    deleted_at TIMESTAMPTZ,
    filename VARCHAR(255) NOT NULL,
    format VARCHAR(10) NOT NULL,
    status VARCHAR(50) NOT NULL DEFAULT 'pending',
    file_key VARCHAR(255),
    row_count BIGINT,
    params JSONB,
    created_by VARCHAR(255) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_export_records_deleted_at ON export_records (deleted_at);
`

func main() {
	dsn := os.Getenv("APP_DATABASE_DSN")
	if dsn == "" {
		log.Fatal("APP_DATABASE_DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Run migrations
	if _, err := db.Exec(exportRecordsDDL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")
}
