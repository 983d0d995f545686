package main

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/internal/store"
)

var (
	userEmail    string
	userPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user who can sign in to the bid service",
	Args:  cobra.NoArgs,
	RunE:  runCreateUser,
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	email := strings.ToLower(strings.TrimSpace(userEmail))
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email %q", userEmail)
	}
	if userPassword == "" {
		return errors.New("password is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, cfg, storeLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	existing, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("user %s already exists (id %d)", email, existing.ID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(userPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	id, err := st.CreateUser(ctx, &models.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	logger.Info("user created", zap.Int64("user_id", id), zap.String("email", email))
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", id, email)
	return nil
}
