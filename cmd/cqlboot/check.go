package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Connect once, provisioning the cluster if needed, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := a.newManager(nil)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Shutdown(context.Background()) }()

			if err := manager.Connect(cmd.Context()); err != nil {
				return err
			}

			target := manager.Target()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: keyspace %s on %s as %s (session %s)\n",
				manager.State(), target.Keyspace.Name, target.Endpoint, target.Credentials, manager.SessionID())

			return nil
		},
	}
}
