package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/navigation"
)

func newNavigateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Resolve a web app route through the auth guard",
		Long: `Runs the web app's route guard for <path> using the stored session and
prints the path the browser would end up on, with any redirects in between.`,
		Example: "  osnctl navigate /dashboard",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			router, err := s.router()
			if err != nil {
				return err
			}

			res, navErr := router.Navigate(cmd.Context(), args[0])
			if err := s.save(); err != nil {
				return err
			}
			if navErr != nil {
				return navErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatHops(res))
			return nil
		},
	}
}

// formatHops renders the redirect chain ending at the resolved path.
func formatHops(res navigation.Result) string {
	hops := append(slices.Clone(res.Redirects), res.Path)
	return strings.Join(hops, " -> ")
}

func newLiveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "live <video-id>",
		Short: "Show the live-stream status of a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			details, err := s.client.LiveDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(details, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
