// Command rfserver is the RouteFlow controller daemon (spec.md §6).
//
// Usage:
//
//	rfserver [flags] <configfile>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/routeflow/rfserver/pkg/rfconfig"
	"github.com/routeflow/rfserver/pkg/rfdispatch"
	"github.com/routeflow/rfserver/pkg/rfengine"
	"github.com/routeflow/rfserver/pkg/rflog"
	"github.com/routeflow/rfserver/pkg/rfstore"
	"github.com/routeflow/rfserver/pkg/rftransport"
	"github.com/routeflow/rfserver/pkg/version"
)

type flags struct {
	islConfig    string
	defaultRules string
	schema       string
	verbose      bool
	listenAddr   string
	redisAddr    string
}

func main() {
	f := &flags{}

	root := &cobra.Command{
		Use:           "rfserver <configfile>",
		Short:         "RouteFlow controller daemon",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], f)
		},
	}

	root.Flags().StringVarP(&f.islConfig, "islconfig", "i", "./islconf.json", "ISL config file")
	root.Flags().StringVarP(&f.defaultRules, "default-rules", "d", "./default-rules.json", "Default rules file")
	root.Flags().StringVarP(&f.schema, "schema", "s", "./config.schema", "Mapping config schema file")
	root.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Verbose logging")
	root.Flags().StringVar(&f.listenAddr, "listen", "", "Address to listen for client/proxy TCP connections (empty disables the network transport)")
	root.Flags().StringVar(&f.redisAddr, "redis", "", "Redis address for table storage (empty uses an in-memory store)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Info())
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rfserver:", err)
		os.Exit(1)
	}
}

func run(configFile string, f *flags) error {
	rflog.SetVerbose(f.verbose)

	if err := rfconfig.Validate(configFile); err != nil {
		return fmt.Errorf("mapping config %s failed validation: %w", configFile, err)
	}
	mapping, err := rfconfig.LoadMappingConfig(configFile)
	if err != nil {
		return err
	}

	islconf, err := loadISLConfig(f.islConfig)
	if err != nil {
		return err
	}

	rules, err := rfconfig.LoadRules(f.defaultRules)
	if err != nil {
		return fmt.Errorf("default rules %s: %w", f.defaultRules, err)
	}

	driver, err := buildDriver(f.redisAddr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	client := make(chan rfdispatch.Inbound)
	proxy := make(chan rfdispatch.Inbound)

	var transport rftransport.Transport
	if f.listenAddr != "" {
		bus, err := rftransport.Listen(f.listenAddr)
		if err != nil {
			return err
		}
		defer bus.Close()
		transport = bus

		frames := make(chan rftransport.Frame)
		go func() {
			if err := bus.Serve(frames); err != nil {
				rflog.Logger.WithError(err).Warn("listener stopped")
			}
		}()
		go fanInFrames(ctx, frames, client, proxy)
		rflog.WithField("addr", bus.Addr()).Info("listening for client/proxy connections")
	} else {
		transport = rftransport.NewMemTransport()
		rflog.Logger.Info("no --listen address given, running with an in-process transport")
	}

	engine := rfengine.NewServer(driver, mapping, islconf, rules, transport)
	dispatcher := rfdispatch.New(engine)

	rflog.Logger.Info("rfserver started")
	return dispatcher.Run(ctx, client, proxy)
}

// fanInFrames splits decoded Frames onto the client/proxy Inbound channels
// by their Channel tag (spec.md §6's "two logical buses").
func fanInFrames(ctx context.Context, frames <-chan rftransport.Frame, client, proxy chan<- rfdispatch.Inbound) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			in := rfdispatch.Inbound{Channel: f.Channel, From: f.Dest, Msg: f.Msg}
			switch f.Channel {
			case "proxy":
				select {
				case proxy <- in:
				case <-ctx.Done():
					return
				}
			default:
				select {
				case client <- in:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// loadISLConfig applies spec.md §6's "ISL config file missing only → warn
// and continue with empty ISL config" exception to the otherwise-strict
// "exit non-zero on missing required file" rule.
func loadISLConfig(path string) (*rfconfig.ISLConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		rflog.WithField("path", path).Warn("ISL config file not found, continuing with no inter-switch links")
		return rfconfig.NewISLConfig(nil), nil
	}
	if err := rfconfig.ValidateISL(path); err != nil {
		return nil, fmt.Errorf("ISL config %s failed validation: %w", path, err)
	}
	return rfconfig.LoadISLConfig(path)
}

func buildDriver(redisAddr string) (rfstore.Driver, error) {
	if redisAddr == "" {
		return rfstore.NewMemoryDriver(), nil
	}
	return rfstore.NewRedisDriverAt(redisAddr)
}
