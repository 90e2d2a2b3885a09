package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagEmail    string
	flagPassword string
	flagName     string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and load your trips from the store",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget local state",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "Account email")
		c.Flags().StringVar(&flagPassword, "password", "", "Account password (prompted when omitted)")
	}
	signupCmd.Flags().StringVar(&flagName, "name", "", "Display name")

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd)
}

func runSignup(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		email, password := credentials()
		user, err := a.api.Signup(ctx, email, password, flagName)
		if err != nil {
			return err
		}
		fmt.Printf("  Created account for %s\n", user.Email)
		return login(ctx, a, email, password)
	})
}

func runLogin(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		email, password := credentials()
		return login(ctx, a, email, password)
	})
}

func login(ctx context.Context, a *app, email, password string) error {
	session, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.cfg.AccessToken = session.AccessToken
	if err := a.saveConfig(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	a.api = a.api.WithToken(session.AccessToken)

	// the store's copy replaces whatever was kept locally
	if err := a.store.Reset(ctx); err != nil {
		return err
	}
	if err := a.pull(ctx); err != nil {
		return err
	}

	fmt.Printf("  Signed in as %s (%d trips)\n", session.User.Email, len(a.state.Trips))
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		pending, err := a.store.Queue().Len(ctx)
		if err != nil {
			return err
		}
		if pending > 0 {
			fmt.Fprintf(os.Stderr, "  Discarding %d unsynced change(s)\n", pending)
		}

		a.cfg.AccessToken = ""
		if err := a.saveConfig(); err != nil {
			return err
		}
		if err := a.store.Reset(ctx); err != nil {
			return err
		}
		fmt.Println("  Signed out")
		return nil
	})
}

// credentials reads email and password from flags, prompting for what is missing
func credentials() (email, password string) {
	reader := bufio.NewReader(os.Stdin)
	email = strings.TrimSpace(flagEmail)
	if email == "" {
		fmt.Print("  Email: ")
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	password = flagPassword
	if password == "" {
		fmt.Print("  Password: ")
		password = readPassword(reader)
	}
	return email, password
}

// readPassword reads without echo from a terminal and falls back to a plain
// line read when stdin is piped
func readPassword(reader *bufio.Reader) string {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return string(secret)
		}
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
