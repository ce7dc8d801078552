// Package commands implements the emuctl command tree.
package commands

import (
	"fmt"
	"os"

	"github.com/cloudemu/engine/pkg/apiclient"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8000"

var flags struct {
	server string
	token  string
	output string
}

var rootCmd = &cobra.Command{
	Use:   "emuctl",
	Short: "Command-line client for the cloud emulator",
	Long: `emuctl manages emulated EC2 and RDS instances through the emulator REST API.

Examples:
  # Log in and store the token
  emuctl login --email dev@example.com

  # Launch an instance and open its console
  emuctl ec2 create web --image ubuntu:22.04
  emuctl ec2 console <instance-id>

  # Launch a postgres database
  emuctl rds create orders --engine postgres --username app --password secret`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.server, "server", envOr("EMUCTL_SERVER", defaultServer), "Emulator API URL")
	rootCmd.PersistentFlags().StringVar(&flags.token, "token", os.Getenv("EMUCTL_TOKEN"), "Bearer token (overrides stored credential)")
	rootCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "table", "Output format (table|json)")

	rootCmd.AddCommand(loginCmd, registerCmd, whoamiCmd, ec2Cmd, rdsCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient() *apiclient.Client {
	return apiclient.New(flags.server)
}

// authenticatedClient returns a client carrying the flag token or the stored one.
func authenticatedClient() (*apiclient.Client, error) {
	token := flags.token
	if token == "" {
		stored, err := loadToken()
		if err != nil {
			return nil, fmt.Errorf("not logged in: run 'emuctl login' first")
		}
		token = stored
	}
	return newClient().WithToken(token), nil
}
