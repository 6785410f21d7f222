package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/godesk-io/godesk-ce/internal/config"
	"github.com/godesk-io/godesk-ce/internal/database"
)

var (
	resetEmailFlag    string
	resetPasswordFlag string
)

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset a user's password",
	RunE:  runResetPassword,
}

func init() {
	resetPasswordCmd.Flags().StringVar(&resetEmailFlag, "email", "", "Email of the user to reset")
	resetPasswordCmd.Flags().StringVar(&resetPasswordFlag, "password", "", "New password")
	resetPasswordCmd.MarkFlagRequired("email")
	resetPasswordCmd.MarkFlagRequired("password")
}

func runResetPassword(cmd *cobra.Command, _ []string) error {
	if err := config.LoadFromFile(configFileFlag); err != nil && !os.IsNotExist(err) {
		log.Printf("config not loaded, using defaults: %v", err)
	}
	db, err := openDB(cmd, config.Get())
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(resetPasswordFlag), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := db.ExecContext(cmd.Context(), database.ConvertPlaceholders(
		"UPDATE users SET password_hash = ? WHERE email = ?"), string(hash), resetEmailFlag)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no user with email %s", resetEmailFlag)
	}
	fmt.Printf("password reset for %s\n", resetEmailFlag)
	return nil
}
