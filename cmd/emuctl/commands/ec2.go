package commands

import (
	"fmt"
	"os"

	"github.com/cloudemu/engine/pkg/apiclient"
	"github.com/spf13/cobra"
)

var ec2Cmd = &cobra.Command{
	Use:   "ec2",
	Short: "Manage compute instances",
}

var ec2CreateArgs struct {
	image        string
	instanceType string
}

var ec2CreateCmd = &cobra.Command{
	Use:   "create <identifier>",
	Short: "Launch a compute instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := newClient().CreateInstance(apiclient.CreateInstanceRequest{
			Identifier:   args[0],
			AmiID:        ec2CreateArgs.image,
			InstanceType: ec2CreateArgs.instanceType,
		})
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, inst, false, "", instanceList{*inst})
	},
}

var ec2ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List compute instances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := newClient().ListInstances()
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, items, len(items) == 0, "No instances found.", instanceList(items))
	},
}

var ec2GetCmd = &cobra.Command{
	Use:   "get <instance-id>",
	Short: "Show a compute instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := newClient().GetInstance(args[0])
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, inst, false, "", instanceList{*inst})
	},
}

var ec2StartCmd = &cobra.Command{
	Use:   "start <instance-id>",
	Short: "Start a compute instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := newClient().StartInstance(args[0])
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, inst, false, "", instanceList{*inst})
	},
}

var ec2StopCmd = &cobra.Command{
	Use:   "stop <instance-id>",
	Short: "Stop a compute instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := newClient().StopInstance(args[0])
		if err != nil {
			return err
		}
		return printOutput(os.Stdout, inst, false, "", instanceList{*inst})
	},
}

var ec2DeleteCmd = &cobra.Command{
	Use:   "delete <instance-id>",
	Short: "Terminate a compute instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteInstance(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Instance %s deleted\n", args[0])
		return nil
	},
}

var ec2ConsoleCmd = &cobra.Command{
	Use:   "console <instance-id>",
	Short: "Open an interactive shell in a running instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := authenticatedClient()
		if err != nil {
			return err
		}
		conn, err := client.DialConsole(args[0])
		if err != nil {
			return err
		}
		return runConsole(conn, os.Stdin, os.Stdout)
	},
}

func init() {
	ec2CreateCmd.Flags().StringVar(&ec2CreateArgs.image, "image", "", "Container image used as the machine image")
	ec2CreateCmd.Flags().StringVar(&ec2CreateArgs.instanceType, "type", "", "Instance type label (default t2.micro)")
	_ = ec2CreateCmd.MarkFlagRequired("image")

	ec2Cmd.AddCommand(ec2CreateCmd, ec2ListCmd, ec2GetCmd, ec2StartCmd, ec2StopCmd, ec2DeleteCmd, ec2ConsoleCmd)
}
