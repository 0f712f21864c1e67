package cantype

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Adapter is a handle to CAN hardware. Implementations move frames over
// their Send and Recv channels from background goroutines started by Open.
type Adapter interface {
	Name() string
	Open(context.Context) error
	Close() error
	Send() chan<- *Message
	Recv() <-chan *Message
	Err() <-chan error
}

// AdapterInfo describes a registered adapter type.
type AdapterInfo struct {
	Name               string
	Description        string
	RequiresSerialPort bool
	New                func(*Config) (Adapter, error)
}

func (a *AdapterInfo) String() string {
	return fmt.Sprintf("%s | %s, requires serial port: %v", a.Name, a.Description, a.RequiresSerialPort)
}

// Config carries adapter settings. Zero values are usable for adapters
// that need no hardware, like the loopback.
type Config struct {
	// Channel names the bus, the network interface or serial port.
	Channel string
	// Port is the serial port for adapters that need one.
	Port         string
	PortBaudrate int
	// BitRate is the CAN bus bitrate in bit/s.
	BitRate int
	// Filters holds raw acceptance filter identifiers. Empty means
	// receive everything.
	Filters []uint32
	Debug   bool
	// Logger receives adapter and client logging. Nil silences it.
	Logger *zap.SugaredLogger
}

// Log returns the configured logger or a nop one.
func (cfg *Config) Log() *zap.SugaredLogger {
	if cfg != nil && cfg.Logger != nil {
		return cfg.Logger
	}
	return zap.NewNop().Sugar()
}

var adapterMap = make(map[string]*AdapterInfo)

// RegisterAdapter adds an adapter type to the registry. Adapter packages
// call it from init.
func RegisterAdapter(adapter *AdapterInfo) error {
	if _, found := adapterMap[adapter.Name]; found {
		return fmt.Errorf("adapter %s already registered", adapter.Name)
	}
	adapterMap[adapter.Name] = adapter
	return nil
}

// NewAdapter creates an adapter by registered name.
func NewAdapter(name string, cfg *Config) (Adapter, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if adapter, found := adapterMap[name]; found {
		return adapter.New(cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrAdapterUnknown, name)
}

// AdapterByName returns the descriptor of a registered adapter.
func AdapterByName(name string) (*AdapterInfo, error) {
	if adapter, found := adapterMap[name]; found {
		return adapter, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrAdapterUnknown, name)
}

// ListAdapterNames returns the registered adapter names sorted.
func ListAdapterNames() []string {
	var out []string
	for name := range adapterMap {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

// ListAdapters returns descriptors for all registered adapters.
func ListAdapters() []AdapterInfo {
	var out []AdapterInfo
	for _, name := range ListAdapterNames() {
		out = append(out, *adapterMap[name])
	}
	return out
}
