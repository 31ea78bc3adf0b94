package cli

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/client/api"
	"github.com/dmitrijs2005/carmarket/internal/client/config"
	"github.com/spf13/cobra"
)

// TokenEnv names the environment variable holding the session token.
const TokenEnv = "CARMARKET_TOKEN"

var errNoToken = errors.New("no session token: run login and export " + TokenEnv)

// App carries what every command needs once flags are parsed.
type App struct {
	config *config.Config
	api    *api.Client
	reader *bufio.Reader
}

// NewRootCmd creates the root command for the carmarket CLI.
func NewRootCmd() *cobra.Command {
	var (
		configFile string
		serverURL  string
		timeout    time.Duration
	)
	app := &App{}

	cmd := &cobra.Command{
		Use:           "carmarket-cli",
		Short:         "carmarket command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.ServerURL = serverURL
			}
			if cmd.Flags().Changed("timeout") {
				cfg.RequestTimeout = timeout
			}

			app.config = cfg
			app.api = api.New(cfg.ServerURL, &http.Client{Timeout: cfg.RequestTimeout})
			app.reader = bufio.NewReader(cmd.InOrStdin())
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to JSON config file")
	cmd.PersistentFlags().StringVarP(&serverURL, "server", "a", "", "base URL of the carmarket API")
	cmd.PersistentFlags().DurationVarP(&timeout, "timeout", "i", 0, "timeout for each request")

	cmd.AddCommand(newSignupCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newMeCmd(app))
	cmd.AddCommand(newAddCarCmd(app))

	return cmd
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// prompt returns value, or asks for it when it is empty.
func (a *App) prompt(cmd *cobra.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return GetSimpleText(a.reader, label, cmd.ErrOrStderr())
}

func tokenFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if t := os.Getenv(TokenEnv); t != "" {
		return t, nil
	}
	return "", errNoToken
}
