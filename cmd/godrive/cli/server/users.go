package server

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mwantia/godrive/internal/auth"
	config "github.com/mwantia/godrive/internal/config/server"
	"github.com/mwantia/godrive/pkg/db/migrations"
	"github.com/mwantia/godrive/pkg/db/store"
	"github.com/mwantia/godrive/pkg/log"
)

func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
		Long:  "Manage user accounts directly against the metadata store, without a running server.",
	}

	cmd.AddCommand(newUsersAddCommand())
	cmd.AddCommand(newUsersListCommand())

	return cmd
}

// openStore loads the server configuration and opens a migrated metadata
// store for one-shot admin commands.
func openStore(cmd *cobra.Command) (*config.BaseServerConfig, *store.SQLiteStore, error) {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load server configuration: %w", err)
	}

	metadata, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: cfg.Metadata.SQLite.Path,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	if err := metadata.Connect(cmd.Context()); err != nil {
		return nil, nil, fmt.Errorf("failed to connect metadata store: %w", err)
	}

	if err := migrations.NewMigrator(metadata.DB()).Migrate(cmd.Context()); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return cfg, metadata, nil
}

func newUsersAddCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, metadata, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer metadata.Close()

			logger := log.NewLoggerService("godrive", cfg.Log)
			service := auth.NewService(metadata, logger, cfg.Auth)

			user, err := service.Register(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			fmt.Printf("Created user %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password for the new account")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newUsersListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, metadata, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer metadata.Close()

			users, err := metadata.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			for _, user := range users {
				files, err := metadata.ListFiles(cmd.Context(), user.ID, nil)
				if err != nil {
					return fmt.Errorf("failed to list files of %q: %w", user.Username, err)
				}

				var total int64
				for _, file := range files {
					total += file.Size
				}

				fmt.Printf("%d\t%s\t%d root files (%s)\n",
					user.ID, user.Username, len(files), humanize.Bytes(uint64(total)))
			}

			return nil
		},
	}

	return cmd
}
