package cmd

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cantype/cantype"
	"github.com/cantype/cantype/isotp"
	"github.com/cantype/cantype/pkg/bar"
)

var (
	flagTxID       string
	flagRxID       string
	flagFunctional bool
	flagIsotpFD    bool
	flagTimeout    time.Duration
)

func init() {
	pf := isotpCmd.PersistentFlags()
	pf.StringVar(&flagTxID, "tx", "7E0", "transmit identifier in hex")
	pf.StringVar(&flagRxID, "rx", "7E8", "receive identifier in hex")
	pf.BoolVar(&flagIsotpFD, "fd", false, "use CAN FD framing")
	pf.DurationVar(&flagTimeout, "timeout", 2*time.Second, "response timeout")
	isotpSendCmd.Flags().BoolVar(&flagFunctional, "functional", false, "send on the functional identifier")
	isotpCmd.AddCommand(isotpSendCmd, isotpRequestCmd)
	rootCmd.AddCommand(isotpCmd)
}

var isotpCmd = &cobra.Command{
	Use:   "isotp",
	Short: "ISO 15765-2 transfers",
}

var isotpSendCmd = &cobra.Command{
	Use:   "send <hexfile|hexstring>",
	Short: "write a payload, segmenting as needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data, err := readPayload(args[0])
		if err != nil {
			return err
		}

		pb := bar.New(len(data), "sending")
		tr, c, err := initTransport(cmd, func(sent, total int) {
			pb.Set(sent)
		})
		if err != nil {
			return err
		}
		defer c.Close()
		defer tr.Close()

		start := time.Now()
		if err := tr.Write(ctx, flagFunctional, data); err != nil {
			return err
		}
		log.Printf("\nwrote %d bytes in %s", len(data), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

// readPayload takes either a path to a file of hex digits or a hex
// string on the command line.
func readPayload(arg string) ([]byte, error) {
	text := arg
	if fi, err := os.Stat(arg); err == nil && fi.Mode().IsRegular() {
		raw, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("payload %q: %w", arg, err)
		}
		text = string(raw)
	}
	text = strings.Join(strings.Fields(text), "")
	data, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("payload %q: %w", arg, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("payload %q: empty", arg)
	}
	return data, nil
}

var isotpRequestCmd = &cobra.Command{
	Use:   "request <data>",
	Short: "write a payload and wait for the response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data, err := hex.DecodeString(strings.ReplaceAll(args[0], " ", ""))
		if err != nil {
			return fmt.Errorf("data %q: %w", args[0], err)
		}

		tr, c, err := initTransport(cmd, nil)
		if err != nil {
			return err
		}
		defer c.Close()
		defer tr.Close()

		tr.SetListener(&progressListener{})

		resp, err := tr.Request(ctx, data)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", hex.EncodeToString(resp))
		return nil
	},
}

func initTransport(cmd *cobra.Command, progress func(sent, total int)) (*isotp.Transport, *cantype.Client, error) {
	txID, err := parseHexID(flagTxID)
	if err != nil {
		return nil, nil, err
	}
	rxID, err := parseHexID(flagRxID)
	if err != nil {
		return nil, nil, err
	}

	c, err := initClient(cmd, rxID.Raw())
	if err != nil {
		return nil, nil, err
	}

	addr := isotp.DefaultAddress()
	addr.TxID = txID
	addr.RxID = rxID
	tr, err := isotp.NewTransport(c, addr, &isotp.Options{
		FD:              flagIsotpFD,
		ResponseTimeout: flagTimeout,
		Progress:        progress,
	})
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	return tr, c, nil
}

func parseHexID(s string) (cantype.ID, error) {
	raw, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return cantype.ID{}, fmt.Errorf("identifier %q: %w", s, err)
	}
	return cantype.IDFromBits(uint32(raw), raw > uint64(cantype.MaskStandard)), nil
}

// progressListener draws a byte bar while a segmented response arrives.
type progressListener struct {
	bar *progressbar.ProgressBar
}

func (p *progressListener) OnEvent(ev isotp.Event) {
	switch ev.Type {
	case isotp.EventFirstFrame:
		p.bar = bar.New(int(ev.Length), "receiving")
	case isotp.EventData:
		if p.bar != nil {
			p.bar.Add(len(ev.Data))
		}
	}
}
