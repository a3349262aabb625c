package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"confidant/internal/config"
	"confidant/internal/domain/models"
	"confidant/internal/repository/postgres"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed sample contacts")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	if err := seedContacts(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to seed contacts: %v", err)
	}
	log.Println("Seeding complete")
}

// dropAllTables removes the prefixed tables in dependency order.
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	ordered := []string{
		tables.MessageBlocks,
		tables.Messages,
		tables.ContactTags,
		tables.Contacts,
	}

	for _, table := range ordered {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}

	return nil
}

// seedContacts inserts a couple of sample contacts with tags for local
// development. Inserts are idempotent on (name) via a lookup first.
func seedContacts(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	logger := log.Default()

	samples := []struct {
		contact models.Contact
		tags    []models.ContactTag
	}{
		{
			contact: models.Contact{
				Name:         "Alex",
				Relationship: "coworker",
				Profile:      "Sits on the platform team. Direct communicator, dislikes long meetings.",
			},
			tags: []models.ContactTag{
				{Kind: models.TagKindStrategy, Label: "lead with the ask, then context", Confirmed: true},
			},
		},
		{
			contact: models.Contact{
				Name:         "Sam",
				Relationship: "sibling",
				Profile:      "Lives abroad, calls monthly. Sensitive about career questions.",
			},
			tags: []models.ContactTag{
				{Kind: models.TagKindRisk, Label: "avoid unsolicited career advice", Confirmed: true},
				{Kind: models.TagKindStrategy, Label: "ask about their city first", Confirmed: false},
			},
		},
	}

	for _, sample := range samples {
		var existing string
		err := pool.QueryRow(ctx,
			fmt.Sprintf("SELECT id FROM %s WHERE name = $1", tables.Contacts),
			sample.contact.Name,
		).Scan(&existing)
		if err == nil {
			logger.Printf("Contact %q already seeded, skipping", sample.contact.Name)
			continue
		}

		var contactID string
		err = pool.QueryRow(ctx,
			fmt.Sprintf("INSERT INTO %s (name, relationship, profile) VALUES ($1, $2, $3) RETURNING id", tables.Contacts),
			sample.contact.Name, sample.contact.Relationship, sample.contact.Profile,
		).Scan(&contactID)
		if err != nil {
			return fmt.Errorf("insert contact %q: %w", sample.contact.Name, err)
		}

		for _, tag := range sample.tags {
			if _, err := pool.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (contact_id, kind, label, confirmed) VALUES ($1, $2, $3, $4)", tables.ContactTags),
				contactID, tag.Kind, tag.Label, tag.Confirmed,
			); err != nil {
				return fmt.Errorf("insert tag %q: %w", tag.Label, err)
			}
		}

		logger.Printf("Seeded contact %q with %d tags", sample.contact.Name, len(sample.tags))
	}

	return nil
}
