package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"campus-dispatch-service/internal/adapters/repositories"
	"campus-dispatch-service/internal/config"
	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/services"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConn(func(ctx context.Context, c *conn) error {
			fmt.Println("Initializing database schema...")
			if err := c.initSchema(ctx); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}
			fmt.Println(color.New(color.FgGreen).Sprint("Schema ready."))
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create tables and load campus locations",
	Long:  "Create tables and upsert every location of the campus file (or the embedded campus).",
	RunE: func(cmd *cobra.Command, args []string) error {
		campus, err := config.LoadCampus(campusFile)
		if err != nil {
			return err
		}

		return withConn(func(ctx context.Context, c *conn) error {
			if err := c.initSchema(ctx); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}

			fmt.Println("Seeding database...")
			if c.postgres {
				err = repositories.SeedLocationsPostgres(ctx, c.db, campus.Locations)
			} else {
				err = repositories.SeedLocations(ctx, c.db, campus.Locations)
			}
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			fmt.Println(color.New(color.FgGreen).Sprintf("Seeded %d locations.", len(campus.Locations)))
			return nil
		})
	},
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List campus locations with current availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConn(func(ctx context.Context, c *conn) error {
			catalog := services.NewLocationCatalog(c.locations(), c.kv())
			locs, err := catalog.List(ctx)
			if err != nil {
				return err
			}

			for _, l := range locs {
				status := color.New(color.FgGreen).Sprint("open  ")
				if !l.Enabled {
					status = color.New(color.FgRed).Sprint("closed")
				}
				fmt.Printf("%s  %-16s %-10s %s  %s\n", status, l.ID, l.Category, l.Position, l.Name)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or reset mission history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recorded missions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConn(func(ctx context.Context, c *conn) error {
			records, err := services.NewHistoryRecorder(c.kv()).List(ctx)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(color.New(color.FgYellow).Sprint("No history."))
				return nil
			}

			for _, r := range records {
				status := color.New(color.FgGreen).Sprint(r.Status)
				if r.Status != domain.HistoryStatusSuccess {
					status = color.New(color.FgYellow).Sprint(r.Status)
				}
				fmt.Printf("%s  %-9s  %s -> %s\n", r.Timestamp, status, r.Pickup, r.Delivery)
			}
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded missions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConn(func(ctx context.Context, c *conn) error {
			if err := services.NewHistoryRecorder(c.kv()).Clear(ctx); err != nil {
				return err
			}
			fmt.Println(color.New(color.FgGreen).Sprint("History cleared."))
			return nil
		})
	},
}

var volunteersCmd = &cobra.Command{
	Use:   "volunteers [count]",
	Short: "Show or set the number of library volunteers",
	Long:  "Without an argument, print the volunteer count. With zero volunteers the library cannot be selected.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConn(func(ctx context.Context, c *conn) error {
			catalog := services.NewLocationCatalog(c.locations(), c.kv())

			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("count must be an integer: %w", err)
				}
				if err := catalog.SetVolunteerCount(ctx, n); err != nil {
					return err
				}
			}

			n, err := catalog.VolunteerCount(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Volunteers on duty: %s\n", color.New(color.FgCyan).Sprint(n))
			return nil
		})
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyClearCmd)
}
