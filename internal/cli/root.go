// Package cli implements osnctl, a command-line client for the OSN API that
// keeps its session in a cookie file between invocations.
package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/apiclient"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/logger"
)

const (
	envPrefix     = "OSNCTL"
	defaultServer = "http://localhost:8000"
	cookieFile    = "cookies.json"
)

// options carries the resolved global settings to every command.
type options struct {
	v       *viper.Viper
	version string
}

func (o *options) server() string { return o.v.GetString("server") }

func (o *options) cookieFile() string { return o.v.GetString("cookie-file") }

func (o *options) timeout() time.Duration { return o.v.GetDuration("timeout") }

func (o *options) logger(errOut io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if o.v.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	return logger.New(errOut, "console").Level(level)
}

// NewRootCmd builds the osnctl command tree. Settings come from flags, then
// OSNCTL_* environment variables, then defaults.
func NewRootCmd(version string) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	opts := &options{v: v, version: version}

	root := &cobra.Command{
		Use:   "osnctl",
		Short: "Command-line client for the OSN API",
		Long: `osnctl talks to an OSN server the way the web app does: it keeps the
session and CSRF cookies between runs and sends the X-XSRF-TOKEN header on
every request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("server", defaultServer, "API base URL (or set OSNCTL_SERVER)")
	flags.String("cookie-file", defaultCookieFile(), "Session cookie file (or set OSNCTL_COOKIE_FILE)")
	flags.Duration("timeout", 30*time.Second, "Request timeout")
	flags.BoolP("verbose", "v", false, "Log requests to stderr")
	for _, name := range []string{"server", "cookie-file", "timeout", "verbose"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	_ = v.BindEnv("password")

	root.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newNavigateCmd(opts),
		newLiveCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// Execute runs osnctl with the process arguments.
func Execute(version string) error {
	root := NewRootCmd(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		return err
	}
	return nil
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "osnctl version %s\n", opts.version)
		},
	}
}

func defaultCookieFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + filepath.Join("osnctl", cookieFile)
	}
	return filepath.Join(dir, "osnctl", cookieFile)
}

// describeError expands validation failures into one line per field.
func describeError(err error) string {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Errors) == 0 {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(apiErr.Message)
	for _, field := range slices.Sorted(maps.Keys(apiErr.Errors)) {
		for _, msg := range apiErr.Errors[field] {
			fmt.Fprintf(&b, "\n  %s: %s", field, msg)
		}
	}
	return b.String()
}
