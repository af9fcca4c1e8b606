package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal/accesscontrol"
	acPostgres "github.com/Kauel-Chile/MERN-Boilerplate/internal/accesscontrol/postgres"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/auth"
	userPostgres "github.com/Kauel-Chile/MERN-Boilerplate/internal/user/postgres"
	"github.com/Kauel-Chile/MERN-Boilerplate/pkg/logger"
	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create or reconcile the SuperAdmin role and root identity",
	Long:  `Idempotently create the SuperAdmin role with full access and the configured root identity. The server runs the same step on startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		sqlDB, db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		lg := logger.L()
		hasher := auth.NewBcryptHasher(cfg.Security.BCryptCost, cfg.Security.MaxConcurrentHashes, cfg.Security.HashTimeout)
		access := accesscontrol.NewService(acPostgres.NewRoleRepository(db), userPostgres.NewUserRepository(db), hasher, cfg.Bootstrap, lg)

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		root, err := access.Bootstrap(ctx)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}

		fmt.Println("Root identity ready:", root.Email)
		return nil
	},
}
