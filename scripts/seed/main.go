package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"mailreach/internal/config"
)

// ANSI color codes for terminal output
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

// Command-line flags
var (
	contactCount = flag.Int("contacts", 20, "Number of contacts to create")
	clearData    = flag.Bool("clear", false, "Clear existing seed data before inserting")
	showHelp     = flag.Bool("help", false, "Show usage information")
)

var firstNames = []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace", "Heidi", "Ivan", "Judy"}
var lastNames = []string{"Kimani", "Otieno", "Mwangi", "Achieng", "Njoroge", "Wanjiku", "Odhiambo", "Mutua"}

func main() {
	flag.Parse()

	if *showHelp {
		fmt.Println("Usage: go run ./scripts/seed [-contacts N] [-clear]")
		os.Exit(0)
	}

	// Load .env file (ignore error if not present)
	_ = godotenv.Load()

	printInfo("=== MailReach Database Seeder ===\n")

	cfg, err := config.Load()
	if err != nil {
		fatal(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	printInfo("Connecting to database...")
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		fatal(fmt.Sprintf("Failed to open database connection: %v", err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fatal(fmt.Sprintf("Failed to ping database: %v", err))
	}
	printSuccess("✓ Connected to database\n")

	if *clearData {
		printInfo("Clearing existing seed data...")
		if err := clear(db); err != nil {
			fatal(fmt.Sprintf("Failed to clear data: %v", err))
		}
		printSuccess("✓ Cleared\n")
	}

	if err := seedTemplates(db); err != nil {
		fatal(fmt.Sprintf("Failed to seed templates: %v", err))
	}
	if err := seedContacts(db, *contactCount); err != nil {
		fatal(fmt.Sprintf("Failed to seed contacts: %v", err))
	}

	printSuccess("\n✨ Seeding completed successfully!")
}

func clear(db *sql.DB) error {
	tables := []string{"replies", "email_logs", "campaigns", "contact_group_members", "contact_groups", "contacts", "templates"}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func seedTemplates(db *sql.DB) error {
	printInfo("Seeding templates...")

	templates := []struct {
		name    string
		subject string
		content string
	}{
		{"Spring Promo", "Spring Sale", "<p>Hi {{name}},</p><p>Our spring sale is on. Take a look!</p>"},
		{"Welcome", "Welcome aboard", "<p>Hello {{name}},</p><p>Thanks for joining us.</p>"},
		{"Product Update", "What's new this month", "<p>Hi {{name}},</p><p>Here is everything we shipped this month.</p>"},
	}

	for _, t := range templates {
		_, err := db.Exec(
			"INSERT INTO templates (name, subject, content) VALUES ($1, $2, $3)",
			t.name, t.subject, t.content,
		)
		if err != nil {
			return err
		}
	}

	printSuccess(fmt.Sprintf("  ✓ Created %d templates", len(templates)))
	return nil
}

func seedContacts(db *sql.DB, count int) error {
	printInfo(fmt.Sprintf("Seeding %d contacts...", count))

	created := 0
	for i := 0; i < count; i++ {
		first := firstNames[i%len(firstNames)]
		last := lastNames[i%len(lastNames)]
		name := first + " " + last
		email := fmt.Sprintf("%s.%s%d@example.com", first, last, i)

		// Every fifth contact has no stored name to exercise the
		// fallback salutation path
		var storedName *string
		if i%5 != 0 {
			storedName = &name
		}

		result, err := db.Exec(
			"INSERT INTO contacts (email, name, status) VALUES ($1, $2, 'active') ON CONFLICT (email) DO NOTHING",
			email, storedName,
		)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			created++
		}
	}

	printSuccess(fmt.Sprintf("  ✓ Created %d contacts", created))
	return nil
}

// Helper functions for colored output

func printSuccess(msg string) {
	fmt.Printf("%s%s%s\n", colorGreen, msg, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%s%s%s\n", colorCyan, msg, colorReset)
}

func fatal(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorRed, msg, colorReset)
	os.Exit(1)
}
