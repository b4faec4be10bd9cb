package server

import (
	"context"
	"fmt"

	"github.com/mwantia/godrive/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/mwantia/godrive/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the GoDrive Server Agent",
		Long:  `Start the GoDrive Server Agent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			agent := agent.NewAgent(cfg)
			if err := agent.Serve(context.Background()); err != nil {
				return err
			}

			return nil
		},
	}

	return cmd
}
