package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/sun1tar/crm-tasks/internal/models"
	"github.com/sun1tar/crm-tasks/internal/repository"
)

type userOptions struct {
	username  string
	password  string
	firstName string
	lastName  string
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users who can sign in",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var opts userOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user with a bcrypt-hashed password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.store.Close()

			user, err := addUser(cmd.Context(), rt.store, opts)
			if err != nil {
				return err
			}
			rt.log.WithField("user_id", user.ID).Info("user created")
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.username, "username", "", "login name")
	cmd.Flags().StringVar(&opts.password, "password", "", "plain text password, stored as bcrypt hash")
	cmd.Flags().StringVar(&opts.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.lastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func addUser(ctx context.Context, users repository.UserStore, opts userOptions) (*models.User, error) {
	username := strings.TrimSpace(opts.username)
	if username == "" || opts.password == "" {
		return nil, errors.New("username and password are required")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(opts.password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:             "u_" + uuid.NewString(),
		Username:       username,
		FirstName:      opts.firstName,
		LastName:       opts.lastName,
		PasswordDigest: string(digest),
		CreatedAt:      time.Now().UTC(),
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("user %q already exists", username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
