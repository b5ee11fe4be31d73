package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/philcifone/blog/internal/client/config"
)

// VersionInfo is stamped into the binary at build time.
type VersionInfo struct {
	Version string
	Commit  string
}

// state carries the App from the root's pre-run hook to the subcommands.
type state struct {
	app *App
}

// NewRootCommand builds the blogctl command tree. A nil factory means NewApp.
func NewRootCommand(info VersionInfo, factory AppFactory) *cobra.Command {
	if factory == nil {
		factory = NewApp
	}

	var (
		path      string
		serverURL string
		tokenFile string
		st        = &state{}
	)

	cmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "Blog admin client",
		Long:          "Manage blog posts and tags from the command line. Reads fall back to a local cache when the server is unreachable.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return err
			}
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}
			if tokenFile != "" {
				cfg.TokenFile = tokenFile
			}

			app, err := factory(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if st.app == nil {
				return nil
			}
			return st.app.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "JSON config file")
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "blog server URL (overrides config)")
	cmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "where the login token is kept (overrides config)")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	cmd.AddCommand(NewLoginCommand(st))
	cmd.AddCommand(NewLogoutCommand(st))
	cmd.AddCommand(NewStatusCommand(st))
	cmd.AddCommand(NewListCommand(st))
	cmd.AddCommand(NewShowCommand(st))
	cmd.AddCommand(NewCreateCommand(st))
	cmd.AddCommand(NewUpdateCommand(st))
	cmd.AddCommand(NewDeleteCommand(st))
	cmd.AddCommand(NewTagsCommand(st))
	cmd.AddCommand(NewPruneTagsCommand(st))

	return cmd
}

// Execute runs blogctl with args and writes errors to errOut.
func Execute(ctx context.Context, info VersionInfo, args []string, out, errOut io.Writer) error {
	cmd := NewRootCommand(info, nil)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
	}
	return err
}
