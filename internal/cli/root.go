package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func NewTagwireCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagwire",
		Short: "tagwire converts tagged documents between cbor, json and yaml",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(NewCmdTranscode())
	cmd.AddCommand(NewCmdInspect())
	cmd.AddCommand(NewCmdValidate())
	cmd.AddCommand(NewCmdVersion())
	return cmd
}
