package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewIdentifyCommand creates the identify command.
func NewIdentifyCommand(rootOpts *RootOptions) *cobra.Command {
	var propsJSON string

	cmd := &cobra.Command{
		Use:   "identify <user-id>",
		Short: "Identify a user and update their profile",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentify(rootOpts, cmd, args[0], propsJSON)
		},
	}

	cmd.Flags().StringVarP(&propsJSON, "props", "p", "", "profile properties as a JSON object")

	return cmd
}

func runIdentify(opts *RootOptions, cmd *cobra.Command, userID, propsJSON string) error {
	formatter := newFormatter(opts, cmd)

	props, err := parseProps(propsJSON)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --props", err)
	}

	client, err := openClient(opts)
	if err != nil {
		return err
	}

	client.Identify(userID, props)
	if err := client.Close(); err != nil {
		return WrapExitError(ExitCommandError, "close client", err)
	}

	return formatter.Success(fmt.Sprintf("identified %s", userID))
}
