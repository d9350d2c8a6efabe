package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"plotterctl/config"
	"plotterctl/control"
	"plotterctl/db"
	"plotterctl/server"
	"plotterctl/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd(&cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "plotterctl",
		Short:        "Browse and cancel queued capture commands",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfg.Server, "server", "s", cfg.Server, "control server base URL")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	cmd.Flags().StringVar(&cfg.LogFile, "log", cfg.LogFile, "write debug logs to this file")

	cmd.AddCommand(serveCmd(cfg))
	return cmd
}

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local control server backed by sqlite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path (default ~/.plotterctl/control.db)")
	cmd.Flags().IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "commands per page")
	cmd.Flags().StringVar(&cfg.KeyName, "key", cfg.KeyName, "name of the key created on startup")
	return cmd
}

func runConsole(ctx context.Context, cfg *config.Config) error {
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "plotterctl")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	client := control.NewClient(cfg.Server, cfg.Timeout)
	app := ui.NewApp(ctx, client)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}

func runServer(cfg *config.Config) error {
	path := cfg.DBPath
	if path == "" {
		var err error
		if path, err = db.DefaultPath(); err != nil {
			return err
		}
	}

	database, err := db.New(path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	key, err := database.EnsureKey(cfg.KeyName)
	if err != nil {
		return fmt.Errorf("create key: %w", err)
	}
	log.Printf("using key %q (id %d, token %s), database %s", key.Name, key.ID, key.APIToken, path)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(database, cfg.PageSize).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("control server listening on %s", cfg.Addr)
	return srv.ListenAndServe()
}
