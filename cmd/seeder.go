package cmd

import (
	"context"
	"fmt"
	"log"

	claimPostgres "github.com/frahmantamala/servicebook/internal/claim/postgres"
	machinePostgres "github.com/frahmantamala/servicebook/internal/machine/postgres"
	maintenancePostgres "github.com/frahmantamala/servicebook/internal/maintenance/postgres"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
	typePostgres "github.com/frahmantamala/servicebook/internal/maintenancetype/postgres"
	"github.com/frahmantamala/servicebook/internal/seed"
	"github.com/frahmantamala/servicebook/internal/user"
	userPostgres "github.com/frahmantamala/servicebook/internal/user/postgres"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with users, groups, maintenance types and machines from a YAML fixture file.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := setupLogger(cfg.Observability.Logging)

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		fixture, err := seed.LoadFile(seedFile)
		if err != nil {
			log.Fatalf("failed to load fixtures: %v", err)
		}

		if clearData {
			if err := seed.Clear(ctx, gdb); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		seeder := &seed.Seeder{
			Users:       user.NewService(userPostgres.NewUserRepository(db), cfg.Security.BCryptCost, lg),
			Types:       maintenancetype.NewService(typePostgres.NewMaintenanceTypeRepository(gdb), lg),
			Machines:    machinePostgres.NewMachineRepository(gdb),
			Maintenance: maintenancePostgres.NewMaintenanceRepository(gdb),
			Claims:      claimPostgres.NewClaimRepository(gdb),
			Logger:      lg,
		}

		report, err := seeder.Run(ctx, fixture)
		if err != nil {
			log.Fatalf("failed to seed: %v", err)
		}

		fmt.Printf("Seeded %d users, %d maintenance types, %d machines, %d maintenance records, %d claims\n",
			report.Users, report.Types, report.Machines, report.Maintenance, report.Claims)
	},
}
