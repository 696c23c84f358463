package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"archive-analyzer/memorylol"
	"archive-analyzer/services"
)

var identityCmd = &cobra.Command{
	Use:   "identity <handle>",
	Short: "Show the account history behind a handle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle := services.CleanHandle(args[0])
		if handle == "" {
			return errors.New("a handle is required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		headers, err := a.headers()
		if err != nil {
			return err
		}
		summary, err := a.resolver(headers).Resolve(cmd.Context(), handle)
		if err != nil && !errors.Is(err, memorylol.ErrNoData) {
			return err
		}
		services.PrintIdentity(cmd.OutOrStdout(), handle, summary)
		return nil
	},
}
