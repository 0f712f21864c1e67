package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cantype/cantype"
)

var flagASC bool

func init() {
	monitorCmd.Flags().BoolVar(&flagASC, "asc", false, "print frames as Vector ASC records")
	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:   "monitor [identifier]...",
	Short: "print bus traffic, optionally limited to the given hex identifiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ids, err := parseIdentifiers(args)
		if err != nil {
			return err
		}

		c, err := initClient(cmd, ids...)
		if err != nil {
			return err
		}
		defer c.Close()

		sub := c.Subscribe(ctx, ids...)
		defer sub.Close()

		for {
			select {
			case msg, ok := <-sub.Chan():
				if !ok {
					return nil
				}
				if flagASC {
					fmt.Println(cantype.ASC(msg))
				} else {
					fmt.Println(msg.ColorString())
				}
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func parseIdentifiers(args []string) ([]uint32, error) {
	var ids []uint32
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("identifier %q: %w", arg, err)
		}
		ids = append(ids, uint32(id))
	}
	return ids, nil
}
