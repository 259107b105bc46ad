package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ephemeris/internal/bridge"
	"github.com/muurk/ephemeris/internal/discovery"
	"github.com/muurk/ephemeris/internal/logging"
	"github.com/muurk/ephemeris/internal/payload"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for phone bridges on the network",
	Long: `Scan for Ephemeris bridges using mDNS/DNS-SD discovery.

Bridges advertise the ` + discovery.ServiceType + ` service. Every bridge found
is remembered in the preferences file.`,
	Example: `  # Scan for 5 seconds (default)
  ephemeris-cfg scan

  # Longer scan for busy networks
  ephemeris-cfg scan --timeout 15`,
	RunE: runScan,
}

// Bridge command flags
var (
	serveHost      string
	servePort      int
	servePath      string
	serveCert      string
	serveKey       string
	serveName      string
	serveAdvertise bool
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run a development bridge that prints received settings",
	Long: `Run a WebSocket bridge that accepts settings payloads and prints them.

This stands in for the phone companion while developing: point submit at
it with --bridge, or let discovery find it over mDNS.`,
	Example: `  # Listen on the default port and advertise over mDNS
  ephemeris-cfg bridge

  # Listen on localhost only, without advertising
  ephemeris-cfg bridge --host 127.0.0.1 --advertise=false

  # Serve wss:// with your own certificate
  ephemeris-cfg bridge --cert cert.pem --key key.pem`,
	RunE: runBridge,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")

	bridgeCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host address to bind to")
	bridgeCmd.Flags().IntVar(&servePort, "port", discovery.DefaultPort, "Port to listen on")
	bridgeCmd.Flags().StringVar(&servePath, "path", discovery.DefaultPath, "WebSocket path")
	bridgeCmd.Flags().StringVar(&serveCert, "cert", "", "TLS certificate file (optional)")
	bridgeCmd.Flags().StringVar(&serveKey, "key", "", "TLS key file (optional)")
	bridgeCmd.Flags().StringVar(&serveName, "name", "ephemeris-bridge", "mDNS instance name")
	bridgeCmd.Flags().BoolVar(&serveAdvertise, "advertise", true, "Advertise the bridge over mDNS")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(bridgeCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for bridges (timeout: %ds)...\n\n", scanTimeout)

	bridges, err := discovery.ScanForBridges(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(bridges) == 0 {
		fmt.Println("No bridges found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the phone companion is open and on the same network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --bridge to give the WebSocket URL directly")
		return nil
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	fmt.Printf("Found %d bridge(s):\n\n", len(bridges))
	for i, b := range bridges {
		fmt.Printf("%d. %s\n", i+1, b.Name)
		fmt.Printf("   URL:       %s\n", b.WebSocketURL())
		fmt.Printf("   Encodings: %v\n", b.Encodings())
		fmt.Println()
		reg.UpdateBridgeLastSeen(b.Name, b.WebSocketURL())
	}

	if err := saveRegistry(reg); err != nil {
		logging.Warn("Failed to remember bridges", zap.Error(err))
	}

	fmt.Println("Use 'ephemeris-cfg prefs set bridge.service <name>' to prefer one")
	return nil
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg := &bridge.Config{
		Host:      serveHost,
		Port:      servePort,
		Path:      servePath,
		CertPath:  serveCert,
		KeyPath:   serveKey,
		Advertise: serveAdvertise,
		Name:      serveName,
	}

	srv := bridge.New(cfg, func(remoteAddr string, p *payload.Payload) error {
		fmt.Printf("Settings from %s at %s\n", remoteAddr, time.Now().Format(time.TimeOnly))
		fmt.Println(p.FormatDetailed())
		fmt.Println()
		return nil
	})

	if err := srv.Listen(); err != nil {
		return err
	}
	fmt.Printf("Bridge listening on %s (Ctrl+C to stop)\n\n", srv.URL())
	return srv.Start()
}
