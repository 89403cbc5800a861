package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbonduro/parrotops/internal/client"
	"github.com/vbonduro/parrotops/internal/config"
	"github.com/vbonduro/parrotops/internal/editor"
	"github.com/vbonduro/parrotops/internal/logging"
)

// newRootCommand builds the command tree. Every command shares one viper
// instance so flags, environment and the config file resolve the same way.
func newRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "parrotops",
		Short:         "Warehouse bins, lots and zone layout backed by a spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "Log format (json, text)")
	root.PersistentFlags().String("api-url", "", "Base URL of a running server")
	root.PersistentFlags().String("api-token", "", "Bearer token sent to the server")
	mustBind(v, "LOG_LEVEL", root, "log-level")
	mustBind(v, "LOG_FORMAT", root, "log-format")
	mustBind(v, "API_URL", root, "api-url")
	mustBind(v, "API_TOKEN", root, "api-token")

	root.AddCommand(
		serveCommand(v),
		layoutCommand(v),
		zoneCommand(v),
		binCommand(v),
		lotsCommand(v),
		journalCommand(v),
	)
	return root
}

func mustBind(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
	}
}

// newClient loads config and builds a client for the running server.
func newClient(v *viper.Viper) (*client.Client, *config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	if cfg.APIToken == "" {
		return nil, nil, errors.New("API_TOKEN is required")
	}
	return client.New(cfg.APIURL, cfg.APIToken), cfg, nil
}

// newEditor builds a client and loads the current map into an editor.
func newEditor(cmd *cobra.Command, v *viper.Viper) (*editor.Editor, error) {
	c, cfg, err := newClient(v)
	if err != nil {
		return nil, err
	}
	logger := slog.New(logging.NewHandler(cmd.ErrOrStderr(), cfg.LogLevel, "text"))

	ed := editor.New(c, editor.WithLogger(logger))
	if err := ed.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return ed, nil
}
