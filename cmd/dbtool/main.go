package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"campus-dispatch-service/internal/adapters/kvstore"
	"campus-dispatch-service/internal/adapters/repositories"
	"campus-dispatch-service/internal/config"
	"campus-dispatch-service/internal/platform/db"
	"campus-dispatch-service/internal/ports"
)

var (
	databaseURL string
	dbPath      string
	campusFile  string
)

var rootCmd = &cobra.Command{
	Use:   "dbtool",
	Short: "Manage the campus dispatch database",
	Long: "Initialize the schema, seed campus locations, and inspect or reset " +
		"mission history and volunteer settings.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		if dbPath == "" {
			dbPath = config.Get("DB_PATH", "data/app.db")
		}
		if campusFile == "" {
			campusFile = os.Getenv("CAMPUS_FILE")
		}
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "SQLite file used when no Postgres URL is set (default $DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&campusFile, "campus", "", "campus YAML file (default: embedded campus)")

	rootCmd.AddCommand(initCmd, seedCmd, locationsCmd, historyCmd, volunteersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}

// conn is an open database plus the adapters bound to its dialect.
type conn struct {
	db       *sql.DB
	postgres bool
}

func (c *conn) kv() ports.KVStore {
	if c.postgres {
		return kvstore.NewSQLStore(c.db)
	}
	return kvstore.NewSqliteStore(c.db)
}

func (c *conn) locations() ports.LocationRepository {
	if c.postgres {
		return repositories.NewPostgresLocationRepository(c.db)
	}
	return repositories.NewSqliteLocationRepository(c.db)
}

func (c *conn) initSchema(ctx context.Context) error {
	if c.postgres {
		return repositories.InitPostgresSchema(ctx, c.db)
	}
	return repositories.InitSchema(c.db)
}

func openConn() (*conn, error) {
	if strings.TrimSpace(databaseURL) != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			return nil, err
		}
		return &conn{db: pg, postgres: true}, nil
	}

	lite, err := db.OpenSqlite(dbPath)
	if err != nil {
		return nil, err
	}
	return &conn{db: lite}, nil
}

// withConn opens the database for the duration of fn.
func withConn(fn func(ctx context.Context, c *conn) error) error {
	c, err := openConn()
	if err != nil {
		return err
	}
	defer c.db.Close()

	return fn(context.Background(), c)
}
