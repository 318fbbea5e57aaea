package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lookaround/lookaround/internal/client"
	"github.com/lookaround/lookaround/internal/config"
	"github.com/lookaround/lookaround/internal/discovery"
	"github.com/lookaround/lookaround/internal/logging"
	"github.com/lookaround/lookaround/internal/netif"
	"github.com/lookaround/lookaround/internal/server"
	"github.com/lookaround/lookaround/internal/ui"
)

// Discovery command flags
var (
	bindAddrs     []string
	timeoutSecs   float64
	interactive   bool
	plainOutput   bool
	nicknameFlag  string
	mdnsFlag      bool
	browseTimeout float64
)

var discoveryTroubleshooting = []string{
	"Check that a firewall is not blocking UDP port 9040",
	"Pass --bind-addr with the IP of the interface facing the LAN",
	"Run with --log-level debug to see every datagram",
}

func init() {
	clientCmd.Flags().StringSliceVar(&bindAddrs, "bind-addr", nil, "Interface IPv4 address to query on (repeatable; default all)")
	clientCmd.Flags().Float64Var(&timeoutSecs, "timeout", config.DefaultTimeoutSeconds, "Seconds to wait for replies")
	clientCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Show replies live with rescan")
	clientCmd.Flags().BoolVar(&plainOutput, "plain", false, "Plain output even on a terminal")

	findNickCmd.Flags().StringSliceVar(&bindAddrs, "bind-addr", nil, "Interface IPv4 address to query on (repeatable; default all)")
	findNickCmd.Flags().Float64Var(&timeoutSecs, "timeout", config.DefaultTimeoutSeconds, "Seconds to wait for replies")

	serverCmd.Flags().StringSliceVar(&bindAddrs, "bind-addr", nil, "Interface IPv4 address to answer on (repeatable; default all)")
	serverCmd.Flags().StringVar(&nicknameFlag, "nickname", "", "Nickname to announce")
	serverCmd.Flags().BoolVar(&mdnsFlag, "mdns", false, "Also advertise over mDNS")

	browseCmd.Flags().Float64Var(&browseTimeout, "timeout", discovery.DefaultScanTimeout.Seconds(), "Seconds to browse for")

	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(findNickCmd)
	rootCmd.AddCommand(myIPsCmd)
	rootCmd.AddCommand(browseCmd)
}

// clientCmd runs one discovery round and prints the report
var clientCmd = &cobra.Command{
	Use:     "client",
	Aliases: []string{"scan"},
	Short:   "Find lookaround servers on the local network",
	Long: `Send a discovery request to every lookaround server on the local network
and print the peers that answered, sorted by MAC address.

The request is sent 10 times, 100 ms apart, while replies are collected
until the timeout elapses. Peers without a nickname of their own are shown
with the local override from the config file, if any.`,
	Example: `  # Scan all interfaces for 2 seconds (default)
  lookaround client

  # Scan one interface for longer
  lookaround client --bind-addr 192.168.1.5 --timeout 5

  # Watch replies arrive and rescan with 'r'
  lookaround client --interactive`,
	Args: cobra.NoArgs,
	RunE: runClient,
}

func runClient(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	if plainOutput {
		printer.SetPlain(true)
	}

	if interactive {
		if printer.Plain() {
			return errors.New("--interactive needs a terminal")
		}
		reports, err := ui.RunScan(c.DiscoverFunc, c.ServerAddr(), c.Timeout())
		if err != nil {
			return err
		}
		printer.PrintReport(reports)
		return nil
	}

	reports, err := c.Discover(cmd.Context())
	if err != nil {
		printer.PrintError("Discovery failed", err, discoveryTroubleshooting)
		return err
	}
	printer.PrintReport(reports)
	return nil
}

// findNickCmd prints the IP of the peer with the given nickname
var findNickCmd = &cobra.Command{
	Use:   "find-nick <nickname>",
	Short: "Print the IP address of the peer with a nickname",
	Long: `Run a discovery round and print the IP address of the first peer whose
nickname matches, returning as soon as it answers. Local overrides from the
config file count as nicknames.

Exits non-zero if no peer answered with the nickname before the timeout.`,
	Example: `  ssh "$(lookaround find-nick desk)"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		ip, err := c.FindNickname(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ip)
		return nil
	},
}

// newClient builds a client from the config file overridden by flags.
// Every value is validated before any socket is opened.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	addrs := reg.Client.BindAddrs
	if cmd.Flags().Changed("bind-addr") {
		addrs = bindAddrs
	}
	ips, err := netif.ParseIPv4List(addrs)
	if err != nil {
		return nil, err
	}

	timeout := reg.ClientTimeout()
	if cmd.Flags().Changed("timeout") {
		if timeoutSecs <= 0 {
			return nil, fmt.Errorf("--timeout must be positive, got %v", timeoutSecs)
		}
		timeout = time.Duration(timeoutSecs * float64(time.Second))
	}

	overrides, err := reg.NicknameOverrides()
	for _, e := range multierr.Errors(err) {
		logging.Warn("Ignoring nickname override", zap.String("config", reg.Path()), zap.Error(e))
	}

	return client.New(&client.Config{
		BindAddrs: ips,
		Timeout:   timeout,
		Overrides: overrides,
	})
}

// serverCmd answers discovery requests until interrupted
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Answer discovery requests from lookaround clients",
	Long: `Listen on the lookaround multicast group on every interface and answer
each discovery request with this machine's MAC address and nickname.

Interfaces that cannot be listened on are skipped. The server runs until
interrupted with Ctrl+C.`,
	Example: `  # Answer on all interfaces
  lookaround server --nickname desk

  # Answer on one interface and advertise over mDNS too
  lookaround server --nickname desk --bind-addr 192.168.1.5 --mdns`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	nickname := reg.Server.Nickname
	if cmd.Flags().Changed("nickname") {
		nickname = nicknameFlag
	}
	addrs := reg.Server.BindAddrs
	if cmd.Flags().Changed("bind-addr") {
		addrs = bindAddrs
	}
	mdns := reg.Server.MDNS
	if cmd.Flags().Changed("mdns") {
		mdns = mdnsFlag
	}

	ips, err := netif.ParseIPv4List(addrs)
	if err != nil {
		return err
	}

	srv, err := server.New(&server.Config{
		BindAddrs: ips,
		Nickname:  nickname,
		MDNS:      mdns,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	interfaces := "all"
	if len(addrs) > 0 {
		interfaces = strings.Join(addrs, ", ")
	}
	shown := nickname
	if shown == "" {
		shown = "(none)"
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintHeader("Lookaround Server", "lookaround server",
		ui.Param{Key: "Nickname", Value: shown},
		ui.Param{Key: "Group", Value: fmt.Sprintf("%s:%d", netif.MulticastGroup, netif.ServerPort)},
		ui.Param{Key: "Interfaces", Value: interfaces},
		ui.Param{Key: "mDNS", Value: fmt.Sprintf("%t", mdns)},
	)

	return srv.Start()
}

// myIPsCmd lists the addresses the server and client would use by default
var myIPsCmd = &cobra.Command{
	Use:   "my-ips",
	Short: "List this machine's IPv4 addresses",
	Long: `List the IPv4 addresses of every interface that is up. These are the
addresses the server listens on and the client queries on when --bind-addr
is not given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ips, err := netif.LocalIPv4Addrs()
		if err != nil {
			return err
		}
		for _, ip := range ips {
			fmt.Fprintln(cmd.OutOrStdout(), ip)
		}
		return nil
	},
}

// browseCmd lists servers that advertise over mDNS
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List lookaround servers advertising over mDNS",
	Long: `Browse for lookaround servers started with --mdns. This finds servers on
networks that drop multicast to 225.100.99.98 but still pass mDNS.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if browseTimeout <= 0 {
			return fmt.Errorf("--timeout must be positive, got %v", browseTimeout)
		}

		peers, err := discovery.ScanForPeers(cmd.Context(), time.Duration(browseTimeout*float64(time.Second)))
		if err != nil {
			return fmt.Errorf("browse failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Found %d peers:\n", len(peers))
		for _, p := range peers {
			fmt.Fprintln(out, p)
		}
		return nil
	},
}
