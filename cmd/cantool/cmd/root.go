package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/cantype/cantype"
)

var rootCmd = &cobra.Command{
	Use:          "cantool",
	Short:        "CAN bus swiss army tool",
	Long:         `monitor, send and run ISO-TP transfers over a CAN adapter`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	rootCmd.ExecuteContext(ctx)
}

const (
	flagAdapter  = "adapter"
	flagPort     = "port"
	flagBaudrate = "baudrate"
	flagBitrate  = "bitrate"
	flagChannel  = "channel"
	flagDebug    = "debug"
)

func init() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagAdapter, "a", "slcan", "what adapter to use")
	pf.StringP(flagPort, "p", "*", "com-port, * = select interactively")
	pf.IntP(flagBaudrate, "b", 115200, "serial port baudrate")
	pf.IntP(flagBitrate, "r", 500000, "CAN bus bitrate")
	pf.StringP(flagChannel, "c", "can0", "channel name, interface name for socketcan")
	pf.BoolP(flagDebug, "d", false, "debug mode")
}

func initClient(cmd *cobra.Command, filters ...uint32) (*cantype.Client, error) {
	ctx := cmd.Context()
	adapterName, _ := cmd.Flags().GetString(flagAdapter)
	port, _ := cmd.Flags().GetString(flagPort)
	baudrate, _ := cmd.Flags().GetInt(flagBaudrate)
	bitrate, _ := cmd.Flags().GetInt(flagBitrate)
	channel, _ := cmd.Flags().GetString(flagChannel)
	debug, _ := cmd.Flags().GetBool(flagDebug)

	info, err := cantype.AdapterByName(adapterName)
	if err != nil {
		return nil, err
	}
	if info.RequiresSerialPort && port == "*" {
		if port, err = selectPort(); err != nil {
			return nil, err
		}
	}

	var logger *zap.SugaredLogger
	if debug {
		zl, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		logger = zl.Sugar()
	}

	cfg := &cantype.Config{
		Channel:      channel,
		Port:         port,
		PortBaudrate: baudrate,
		BitRate:      bitrate,
		Filters:      filters,
		Debug:        debug,
		Logger:       logger,
	}
	dev, err := cantype.NewAdapter(adapterName, cfg)
	if err != nil {
		return nil, err
	}
	return cantype.NewClient(ctx, dev, cfg)
}

func selectPort() (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}
	prompt := promptui.Select{
		Label:    "Select port",
		HideHelp: true,
		Items:    ports,
	}
	_, port, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return port, nil
}
