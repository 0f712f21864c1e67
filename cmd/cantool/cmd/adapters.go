package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cantype/cantype"
)

func init() {
	rootCmd.AddCommand(adaptersCmd)
}

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "list available adapters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range cantype.ListAdapters() {
			fmt.Println(a.String())
		}
		return nil
	},
}
