package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/moabank/counsel/internal/config"
	"github.com/moabank/counsel/internal/db"
	"github.com/moabank/counsel/internal/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the Counsel database schema",
		Long:  "Creates or updates all tables, then seeds the consultant and customer directories from config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "counsel.yaml", "path to Counsel config file")
	return cmd
}

func runDBMigrate(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	return migrateAndSeed(cmd, cfg, gormDB)
}

func migrateAndSeed(cmd *cobra.Command, cfg *config.Config, gormDB *gorm.DB) error {
	out := cmd.OutOrStdout()

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.SeedConsultants(gormDB, seedConsultants(cfg)); err != nil {
		return err
	}
	if err := db.SeedCustomers(gormDB, seedCustomers(cfg)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d consultants, %d customers\n",
		len(cfg.Seed.Consultants), len(cfg.Seed.Customers))
	return nil
}

func seedConsultants(cfg *config.Config) []models.Consultant {
	consultants := make([]models.Consultant, 0, len(cfg.Seed.Consultants))
	for _, c := range cfg.Seed.Consultants {
		consultants = append(consultants, models.Consultant{LoginID: c.LoginID, Name: c.Name})
	}
	return consultants
}

func seedCustomers(cfg *config.Config) []models.Customer {
	customers := make([]models.Customer, 0, len(cfg.Seed.Customers))
	for _, c := range cfg.Seed.Customers {
		customers = append(customers, models.Customer{LoginID: c.LoginID, Tier: c.Tier})
	}
	return customers
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop all Counsel tables and re-migrate",
		Long: `Drops every Counsel table, losing all sessions and transcripts, then
re-creates the schema and re-seeds the directories from config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "counsel.yaml", "path to Counsel config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	if !skipConfirm && !confirmReset(cmd, cfg.Database.Name) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	if err := gormDB.Migrator().DropTable(db.AllModels()...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	fmt.Fprintf(out, "Dropped %d tables from %s\n", len(db.AllModels()), cfg.Database.Name)

	return migrateAndSeed(cmd, cfg, gormDB)
}

func confirmReset(cmd *cobra.Command, dbName string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in database %q.\n", dbName)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}
