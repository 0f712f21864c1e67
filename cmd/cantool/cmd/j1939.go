package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cantype/cantype/j1939"
)

func init() {
	rootCmd.AddCommand(j1939Cmd)
}

var j1939Cmd = &cobra.Command{
	Use:   "j1939 <identifier>...",
	Short: "decode 29-bit J1939 identifiers given in hex",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			id, err := j1939.TryFromHex(arg)
			if err != nil {
				return err
			}
			src, _ := id.SourceAddress().Lookup()
			fmt.Printf("%s priority %d pgn %05X source %s",
				id.Hex(), id.Priority(), id.PGN(), src)
			if dst, ok := id.DestinationAddress().Lookup(); ok {
				fmt.Printf(" destination %s", dst)
			}
			fmt.Println()
		}
		return nil
	},
}
