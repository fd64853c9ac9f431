// ABOUTME: Copies deals and saved views from a SQLite database into Postgres
// ABOUTME: Provides dry-run, validation and backup for a safe move between backends

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/dealflow/db"
	"github.com/harperreed/dealflow/models"
)

func main() {
	dbPath := flag.String("db", "", "Path to the source SQLite database (required)")
	dsn := flag.String("postgres", os.Getenv("DEALFLOW_POSTGRES_DSN"), "Destination Postgres DSN")
	dryRun := flag.Bool("dry-run", false, "Validate and count without writing")
	backup := flag.Bool("backup", true, "Create a backup of the SQLite file first")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}
	if *dsn == "" && !*dryRun {
		log.Fatal("Error: -postgres flag or DEALFLOW_POSTGRES_DSN is required")
	}

	if err := migrate(context.Background(), *dbPath, *dsn, *dryRun, *backup); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migration completed successfully")
}

type report struct {
	deals   int
	invalid int
	views   int
}

func migrate(ctx context.Context, dbPath, dsn string, dryRun, createBackup bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun {
		if err := backupFile(dbPath); err != nil {
			return err
		}
	}

	source, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = source.Close() }()
	from := db.NewRepository(source, db.SQLite)

	deals, err := from.LoadDeals(ctx)
	if err != nil {
		return err
	}
	views, err := from.ListViews(ctx)
	if err != nil {
		return err
	}

	var r report
	valid := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if err := models.ValidateDeal(d); err != nil {
			log.Printf("Skipping %s (%s): %v", d.DealNumber, d.ID, err)
			r.invalid++
			continue
		}
		valid = append(valid, d)
	}

	if dryRun {
		log.Printf("[DRY RUN] Would copy %d deal(s) and %d view(s); %d deal(s) fail validation",
			len(valid), len(views), r.invalid)
		return nil
	}

	dest, err := db.OpenPostgres(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = dest.Close() }()
	to := db.NewRepository(dest, db.Postgres)

	for _, d := range valid {
		if err := to.SaveDeal(ctx, d); err != nil {
			return fmt.Errorf("failed to copy deal %s: %w", d.ID, err)
		}
		r.deals++
	}
	for _, v := range views {
		if err := to.SaveView(ctx, v); err != nil {
			return fmt.Errorf("failed to copy view %s: %w", v.Name, err)
		}
		r.views++
	}

	log.Printf("Copied %d deal(s) and %d view(s); skipped %d invalid deal(s)", r.deals, r.views, r.invalid)
	return nil
}

func backupFile(path string) error {
	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)

	input, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created successfully")
	return nil
}
