package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"archive-analyzer/web"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the password-protected web interface",
	Long: `Start the web interface. APP_PASSWORD must be set; every page except the
login form and /health requires it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.AppPassword == "" {
			return errors.New("APP_PASSWORD must be set to serve the web interface")
		}
		analyzer, err := a.analyzer()
		if err != nil {
			return err
		}
		srv, err := web.NewServer(a.cfg.AppPassword, analyzer, a.logger)
		if err != nil {
			return err
		}

		addr := flagAddr
		if addr == "" {
			addr = a.cfg.ListenAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&flagAddr, "addr", "a", "", "listen address (default LISTEN_ADDR)")
}
