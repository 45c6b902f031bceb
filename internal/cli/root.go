package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LevdanskyVitaliy/todo-sync/internal/config"
	"github.com/LevdanskyVitaliy/todo-sync/internal/logger"
	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
)

var (
	verbose bool
	version = "dev"

	// cfg is the merged configuration, loaded before every command
	cfg *config.Config

	// newStore builds the remote store client; tests swap it out
	newStore = func(c *config.Config) remote.Store {
		return remote.NewHTTPClient(c.Remote.BaseURL, c.Remote.Timeout)
	}
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "todo",
		Short: "todo - a task list kept in sync with a remote store",
		Long: `todo manages a task list stored on a remote REST store.

Edits are applied locally first and reconciled with the store; failed
edits are rolled back and reported.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(renameCmd())
	rootCmd.AddCommand(toggleCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	rootCmd.Version = version
	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	logger.Init(cmd.ErrOrStderr(), verbose)

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded
	return nil
}

// Execute runs the root command
func Execute(v string) error {
	version = v
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
