package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/cqlboot"
	"github.com/arloliu/cqlboot/config"
	"github.com/arloliu/cqlboot/internal/logging"
	"github.com/arloliu/cqlboot/types"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	envFiles   []string

	settings *config.Settings
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cqlboot",
		Short: "Bootstrap and hold a session to a Cassandra-compatible cluster",
		Long: fmt.Sprintf(`cqlboot (%s)

Connects to a Cassandra or ScyllaDB cluster as the application user. On a
fresh cluster it creates the keyspace and the user with the default
superuser first, then reconnects.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML settings file")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")
	config.RegisterFlags(flags)

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	if err := config.LoadEnvFiles(a.envFiles...); err != nil {
		return err
	}

	settings, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, logging.Options{
		Level:  settings.Log.Level,
		Format: settings.Log.Format,
	})
	if err != nil {
		return err
	}

	a.settings = settings
	a.logger = logger.With("keyspace", settings.Cassandra.Keyspace)

	return nil
}

// newManager builds a manager from the loaded settings. collector may be nil.
func (a *app) newManager(collector types.MetricsCollector) (*cqlboot.Manager, error) {
	dialer, err := a.settings.Dialer()
	if err != nil {
		return nil, err
	}

	opts, err := a.settings.Options(a.logger, collector)
	if err != nil {
		return nil, err
	}
	opts = append(opts, cqlboot.WithOnStateChange(func(from, to types.ConnectionState) {
		a.logger.Debug("connection state changed", "from", from.String(), "to", to.String())
	}))

	return cqlboot.NewManager(dialer, a.settings.Target(), opts...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of cqlboot",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cqlboot %s\n", Version)
		},
	}
}
