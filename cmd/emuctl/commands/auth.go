package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginArgs struct {
	email    string
	password string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials(loginArgs.email, loginArgs.password)
		if err != nil {
			return err
		}
		tok, err := newClient().Login(email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := saveToken(tok.AccessToken); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (token expires %s)\n", email, tok.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var registerArgs struct {
	email    string
	password string
	name     string
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials(registerArgs.email, registerArgs.password)
		if err != nil {
			return err
		}
		name := registerArgs.name
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}
		u, err := newClient().Register(email, password, name)
		if err != nil {
			return fmt.Errorf("register failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", u.Email)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authenticatedClient()
		if err != nil {
			return err
		}
		u, err := client.Me()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", u.Email, u.Name)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginArgs.email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginArgs.password, "password", "", "Account password (prompted when omitted)")

	registerCmd.Flags().StringVar(&registerArgs.email, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerArgs.password, "password", "", "Account password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerArgs.name, "name", "", "Display name")
}

// credentials prompts for whatever was not passed as a flag.
func credentials(email, password string) (string, string, error) {
	if email == "" {
		fmt.Fprint(os.Stderr, "Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return "", "", errors.New("--password is required when stdin is not a terminal")
		}
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = string(b)
	}
	return email, password, nil
}
