package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/boxscore-backend/internal/config"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <email> <password>",
	Short: "Create an admin account for the admin API",
	Args:  cobra.ExactArgs(2),
	RunE:  runCreateAdmin,
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.database == nil {
		return fmt.Errorf("create-admin requires DATABASE_URL to be set")
	}

	authConfig, err := config.NewAuthConfig()
	if err != nil {
		return err
	}

	hash, err := authConfig.HashPassword(args[1])
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := a.database.CreateAdmin(ctx, args[0], hash)
	if err != nil {
		return err
	}

	fmt.Printf("Created admin %s (%s)\n", args[0], id)
	return nil
}
