// Command adduser creates the blog's admin account or resets its password.
//
//	adduser -n admin [-d postgres://...]
//
// The password is read from the terminal. When stdin is not a terminal it
// comes from BLOG_ADMIN_PASSWORD, and failing that a random one is generated
// and printed once.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/flagx"
	"github.com/philcifone/blog/internal/server"
	"github.com/philcifone/blog/internal/server/config"
	"github.com/philcifone/blog/internal/server/services"
)

const passwordEnv = "BLOG_ADMIN_PASSWORD"

type passwordSource struct {
	isTerminal   bool
	readPassword func() ([]byte, error)
	lookupEnv    func(string) (string, bool)
}

// adminPassword returns the password and whether it was generated.
func adminPassword(src passwordSource, prompt io.Writer) (string, bool, error) {
	if src.isTerminal {
		fmt.Fprint(prompt, "New admin password: ")
		pw, err := src.readPassword()
		fmt.Fprintln(prompt)
		if err != nil {
			return "", false, err
		}
		defer common.WipeByteArray(pw)
		if len(pw) == 0 {
			return "", false, errors.New("empty password")
		}
		return string(pw), false, nil
	}

	if v, ok := src.lookupEnv(passwordEnv); ok && v != "" {
		return v, false, nil
	}

	pw, err := common.MakeRandHexString(12)
	if err != nil {
		return "", false, err
	}
	return pw, true, nil
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	userName := fs.String("n", "admin", "admin username")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-n"})); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	password, generated, err := adminPassword(passwordSource{
		isTerminal:   term.IsTerminal(fd),
		readPassword: func() ([]byte, error) { return term.ReadPassword(fd) },
		lookupEnv:    os.LookupEnv,
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	db, m, err := server.OpenDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := services.NewUserService(db, m, cfg).Provision(ctx, *userName, password)
	if err != nil {
		return err
	}

	fmt.Printf("admin %q (id %d) is ready\n", user.UserName, user.ID)
	if generated {
		fmt.Printf("generated password: %s\n", password)
	}
	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
