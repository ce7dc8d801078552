package commands

import (
	"fmt"
	"os"

	"github.com/cloudemu/engine/pkg/apiclient"
	"github.com/spf13/cobra"
)

var rdsCmd = &cobra.Command{
	Use:   "rds",
	Short: "Manage database instances",
}

var rdsCreateArgs struct {
	engine   string
	username string
	password string
}

var rdsCreateCmd = &cobra.Command{
	Use:   "create <identifier>",
	Short: "Launch a database instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := newClient().CreateDBInstance(apiclient.CreateDBInstanceRequest{
			Identifier: args[0],
			Username:   rdsCreateArgs.username,
			Password:   rdsCreateArgs.password,
			Engine:     rdsCreateArgs.engine,
		})
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, db, false, "", dbInstanceList{*db})
	},
}

var rdsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List database instances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := newClient().ListDBInstances()
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, items, len(items) == 0, "No database instances found.", dbInstanceList(items))
	},
}

var rdsGetCmd = &cobra.Command{
	Use:   "get <instance-id>",
	Short: "Show a database instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := newClient().GetDBInstance(args[0])
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, db, false, "", dbInstanceList{*db})
	},
}

var rdsStartCmd = &cobra.Command{
	Use:   "start <instance-id>",
	Short: "Start a database instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := newClient().StartDBInstance(args[0])
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, db, false, "", dbInstanceList{*db})
	},
}

var rdsStopCmd = &cobra.Command{
	Use:   "stop <instance-id>",
	Short: "Stop a database instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := newClient().StopDBInstance(args[0])
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, db, false, "", dbInstanceList{*db})
	},
}

var rdsDeleteCmd = &cobra.Command{
	Use:   "delete <instance-id>",
	Short: "Delete a database instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteDBInstance(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database instance %s deleted\n", args[0])
		return nil
	},
}

func init() {
	rdsCreateCmd.Flags().StringVar(&rdsCreateArgs.engine, "engine", "postgres", "Database engine (postgres|mysql)")
	rdsCreateCmd.Flags().StringVar(&rdsCreateArgs.username, "username", "", "Master username")
	rdsCreateCmd.Flags().StringVar(&rdsCreateArgs.password, "password", "", "Master password")
	_ = rdsCreateCmd.MarkFlagRequired("username")
	_ = rdsCreateCmd.MarkFlagRequired("password")

	rdsCmd.AddCommand(rdsCreateCmd, rdsListCmd, rdsGetCmd, rdsStartCmd, rdsStopCmd, rdsDeleteCmd)
}
