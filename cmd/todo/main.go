package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jrsteele09/go-todo-client/apiclient"
	"github.com/jrsteele09/go-todo-client/auth"
	"github.com/jrsteele09/go-todo-client/internal/config"
	"github.com/jrsteele09/go-todo-client/internal/logging"
	"github.com/jrsteele09/go-todo-client/routeguard"
	"github.com/jrsteele09/go-todo-client/token/filestore"
	"github.com/spf13/cobra"
)

const configPathEnvVar = "TODO_CONFIG"

var (
	// Global flags
	configPath string
	apiURL     string
	logLevel   string

	// Built before any subcommand runs
	todo *app
)

type app struct {
	cfg     config.Config
	store   *filestore.Store
	client  *apiclient.Client
	manager *auth.Manager
}

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "To-do list client",
	Long: `A client for the to-do REST API.

Run "todo serve" for the web UI, or use the task and account commands
directly from the terminal. Both share the same stored login.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		todo, err = newApp()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(configPathEnvVar), "YAML configuration file (or set "+configPathEnvVar+")")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(passwordResetCmd)
	rootCmd.AddCommand(passwordResetConfirmCmd)
	rootCmd.AddCommand(tasksCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() (*app, error) {
	cfg, err := config.New(
		config.WithDotEnv(),
		config.WithFile(configPath),
		config.WithAPIBaseURL(apiURL),
		config.WithLogLevel(logLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cfg.GetLogLevel(), cfg.GetEnv())

	store, err := filestore.New(cfg.GetTokenFile(), filestore.WithPassphrase(cfg.GetStorePassphrase()))
	if err != nil {
		return nil, err
	}
	client, err := apiclient.New(cfg.GetAPIBaseURL(), store, apiclient.WithTimeout(cfg.GetAPITimeout()))
	if err != nil {
		return nil, err
	}
	manager, err := auth.NewManager(store, client)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, store: store, client: client, manager: manager}, nil
}

// requireSession resolves the stored login and applies the same guard as
// the web UI's protected pages.
func (a *app) requireSession(ctx context.Context) (auth.Session, error) {
	a.manager.Initialize(ctx)
	snapshot := a.manager.Snapshot()
	if routeguard.Decide(snapshot.State) != routeguard.OutcomeRender || snapshot.Session == nil {
		return auth.Session{}, errNotLoggedIn
	}
	return *snapshot.Session, nil
}
