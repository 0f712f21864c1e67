package cmd

import (
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cantype/cantype"
)

var (
	flagExtended bool
	flagRemote   bool
	flagFD       bool
)

func init() {
	sendCmd.Flags().BoolVarP(&flagExtended, "extended", "e", false, "use a 29-bit identifier")
	sendCmd.Flags().BoolVar(&flagRemote, "remote", false, "send a remote transmission request")
	sendCmd.Flags().BoolVar(&flagFD, "fd", false, "send as CAN FD frame")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <identifier> [data]",
	Short: "send a single frame, identifier and data in hex",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := strconv.ParseUint(args[0], 16, 32)
		if err != nil {
			return fmt.Errorf("identifier %q: %w", args[0], err)
		}
		id := cantype.IDFromBits(uint32(raw), flagExtended)

		var data []byte
		if len(args) == 2 {
			if data, err = hex.DecodeString(strings.ReplaceAll(args[1], " ", "")); err != nil {
				return fmt.Errorf("data %q: %w", args[1], err)
			}
		}

		var msg *cantype.Message
		if flagRemote {
			msg, err = cantype.NewRemote(id, len(data))
		} else {
			msg, err = cantype.NewMessage(id, data)
		}
		if err != nil {
			return err
		}
		if flagFD {
			if err := msg.SetFD(true); err != nil {
				return err
			}
		}

		c, err := initClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Send(msg); err != nil {
			return err
		}
		log.Println("sent", msg.String())
		return nil
	},
}
