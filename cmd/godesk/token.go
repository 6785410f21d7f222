package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/godesk-io/godesk-ce/internal/auth"
	"github.com/godesk-io/godesk-ce/internal/config"
	"github.com/godesk-io/godesk-ce/internal/repository"
)

var tokenEmailFlag string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for a user",
	Long: `Mints a signed access token for the given user. Meant for scripting
and debugging; the token carries identity only, permissions are always
resolved from the live user record.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmailFlag, "email", "", "Email of the user")
	tokenCmd.MarkFlagRequired("email")
}

func runToken(cmd *cobra.Command, _ []string) error {
	if err := config.LoadFromFile(configFileFlag); err != nil {
		log.Printf("config not loaded, using defaults: %v", err)
	}
	cfg := config.Get()
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	db, err := openDB(cmd, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := repository.NewUserRepository(db).GetByEmail(cmd.Context(), tokenEmailFlag)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return fmt.Errorf("user %s is deactivated", tokenEmailFlag)
	}

	manager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTLifetime)
	token, err := manager.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, token)
	return nil
}
