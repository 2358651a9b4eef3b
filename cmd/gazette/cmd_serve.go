package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/server"
	"github.com/pders01/gazette/internal/validation"
)

var serveAddr string

// serveCmd runs the blog functions against a local sqlite database, so the
// reader can be pointed at it for development.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the blog functions from a local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer debuglog.Close()

		path, err := validation.NewPathValidator().PrepareFile(cfg.Database.ServerPath)
		if err != nil {
			return fmt.Errorf("database.server_path: %w", err)
		}
		db, err := server.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s%s\n", path, addr, cfg.Server.Prefix)
		debuglog.Infof("serve: %s on %s%s", path, addr, cfg.Server.Prefix)
		return server.ListenAndServe(ctx, addr, server.New(db, cfg.Server.Prefix))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}
