package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/philcifone/blog/internal/client/client"
	"github.com/philcifone/blog/internal/common"
)

// getPassword is swapped in tests.
var getPassword = GetPassword

func NewLoginCommand(st *state) *cobra.Command {
	var userName string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the blog admin",
		Long:  "Exchange the admin username and password for a token that later commands send with every write.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.app.login(cmd.Context(), userName)
		},
	}

	cmd.Flags().StringVarP(&userName, "username", "u", "", "admin username (prompted when empty)")

	return cmd
}

func (a *App) login(ctx context.Context, userName string) error {
	var err error
	if userName == "" {
		if userName, err = GetSimpleText(a.reader, "Username", a.errOut); err != nil {
			return err
		}
	}

	password, err := getPassword(a.errOut)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		if errors.Is(err, common.ErrInvalidCredential) {
			return errors.New("invalid username or password")
		}
		return err
	}

	fmt.Fprintf(a.out, "logged in as %s\n", userName)
	return nil
}

func NewLogoutCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token and cached posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.app.logout(cmd.Context())
		},
	}
}

func (a *App) logout(ctx context.Context) error {
	if err := a.api.Logout(); err != nil {
		return err
	}
	if err := a.cache.Clear(ctx); err != nil {
		a.warnf("clear cache: %v", err)
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func NewStatusCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server reachability, login state and cache age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.app.status(cmd.Context())
		},
	}
}

func (a *App) status(ctx context.Context) error {
	server := "ok"
	if err := a.api.Ping(ctx); err != nil {
		if !errors.Is(err, client.ErrUnavailable) {
			return err
		}
		server = "unavailable"
	}

	loggedIn := "no"
	if a.api.LoggedIn() {
		loggedIn = "yes"
	}

	synced := "never"
	t, ok, err := a.cache.SyncedAt(ctx)
	if err != nil {
		return err
	}
	if ok {
		synced = t.Local().Format(time.DateTime)
	}

	fmt.Fprintf(a.out, "server:    %s\nlogged in: %s\nsynced:    %s\n", server, loggedIn, synced)
	return nil
}
