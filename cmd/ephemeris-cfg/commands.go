package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ephemeris/internal/config"
	"github.com/muurk/ephemeris/internal/discovery"
	"github.com/muurk/ephemeris/internal/form"
	"github.com/muurk/ephemeris/internal/payload"
	"github.com/muurk/ephemeris/internal/session"
	"github.com/muurk/ephemeris/internal/ui"
)

// Session command flags
var (
	autoLocation bool
	providerName string
	cityName     string
	locateWait   int
	bridgeURL    string
	encodingName string
	dryRun       bool
	assignments  []string
	outputFormat string
	scanTimeout  int
)

func init() {
	for _, c := range []*cobra.Command{rootCmd, configureCmd, submitCmd} {
		c.Flags().BoolVar(&autoLocation, "auto-location", false, "Look up the location when the session starts")
		c.Flags().StringVar(&providerName, "provider", "", "Location provider (ip, city, none); default from preferences")
		c.Flags().StringVar(&cityName, "city", "", "City name for the city provider")
		c.Flags().IntVar(&locateWait, "location-timeout", 0, "Location timeout in milliseconds; default from preferences")
		c.Flags().StringVar(&bridgeURL, "bridge", "", "Bridge WebSocket URL (skips discovery)")
		c.Flags().StringVar(&encodingName, "encoding", "", "Payload encoding (cbor, json); default from preferences")
		c.Flags().BoolVar(&dryRun, "dry-run", false, "Print the payload as JSON instead of sending it")
		c.Flags().IntVar(&scanTimeout, "scan-timeout", int(discovery.DefaultScanTimeout/time.Second), "Bridge discovery timeout in seconds")
	}
	submitCmd.Flags().StringArrayVar(&assignments, "set", nil, "Set a field, as id=value (repeatable)")
	submitCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(submitCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func currentParams() sessionParams {
	return sessionParams{
		autoLocation: autoLocation,
		provider:     providerName,
		city:         cityName,
		timeout:      time.Duration(locateWait) * time.Millisecond,
	}
}

// deliveryTransport builds the transport for a session. In dry-run mode
// the payload is written as JSON to out.
func deliveryTransport(ctx context.Context, reg *config.Registry, dry bool, out *bytes.Buffer) (session.Transport, string, error) {
	if dry {
		return newDryRun(out), "dry run", nil
	}

	enc, err := encodingFor(reg, encodingName)
	if err != nil {
		return nil, "", err
	}
	url, enc, err := bridgeTarget(ctx, reg, bridgeURL, enc, time.Duration(scanTimeout)*time.Second)
	if err != nil {
		return nil, "", err
	}
	return newWebSocket(url, enc), fmt.Sprintf("%s (%s)", url, enc), nil
}

// configureCmd opens the interactive form
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Open the interactive settings form",
	Long: `Open the settings form in the terminal.

Move between fields with the arrow keys, adjust sliders with left and
right, toggle with space and type a value with enter. Press l to look up
your location again, s to send the settings and q to cancel.

This is the default command.`,
	Example: `  # Open the form, sending to a discovered bridge
  ephemeris-cfg

  # Look the location up by city name first
  ephemeris-cfg configure --auto-location --provider city --city Fairbanks

  # Print the payload instead of sending it
  ephemeris-cfg configure --dry-run`,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("the settings form needs an interactive terminal; use 'ephemeris-cfg submit' instead")
	}

	ctx, stop := signalContext()
	defer stop()

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	var out bytes.Buffer
	tr, target, err := deliveryTransport(ctx, reg, dryRun, &out)
	if err != nil {
		return err
	}

	s, err := newSession(reg, currentParams(), tr)
	if err != nil {
		return err
	}

	runErr := s.Run(ctx, form.NewRenderer())

	// The form used the alternate screen; dry-run output is printed after it closes
	if out.Len() > 0 {
		fmt.Print(out.String())
	}

	switch s.State() {
	case session.StateSubmitted:
		if runErr != nil {
			return runErr
		}
		if !dryRun {
			fmt.Println(ui.NewSuccessResult("Settings sent",
				ui.Param{Key: "Bridge", Value: target},
				ui.Param{Key: "Payload", Value: s.Payload().Summary()},
			))
		}
		return nil
	default:
		if runErr != nil {
			return runErr
		}
		fmt.Println("Configuration cancelled, nothing was sent.")
		return nil
	}
}

// submitCmd runs a session without the form
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send settings without the interactive form",
	Long: `Build and send the settings payload non-interactively.

Fields start at their schema defaults, then preference defaults apply.
With --auto-location the location is looked up first; --set values are
applied afterwards, so they win over a looked-up location.`,
	Example: `  # Look up the location and send it
  ephemeris-cfg submit --auto-location

  # Enter the location manually
  ephemeris-cfg submit --set Latitude=64.84 --set Longitude=-147.72

  # Show the payload that would be sent
  ephemeris-cfg submit --auto-location --set ShowInfo=false --dry-run`,
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	switch outputFormat {
	case "detailed", "compact", "json":
	default:
		return fmt.Errorf("unknown format %q (use detailed, compact or json)", outputFormat)
	}

	edits, err := parseAssignments(assignments)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	var out bytes.Buffer
	tr, target, err := deliveryTransport(ctx, reg, dryRun, &out)
	if err != nil {
		return err
	}

	s, err := newSession(reg, currentParams(), tr)
	if err != nil {
		return err
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	if o := s.Outcome(); !o.IsResolved() && o.Reason.Message() != "" && !dryRun {
		fmt.Fprintln(os.Stderr, ui.NewWarningResult(o.Reason.Message(),
			ui.Param{Key: "Outcome", Value: o.String()},
		))
	}

	for _, e := range edits {
		if err := s.EditString(e[0], e[1]); err != nil {
			_ = s.Abandon()
			return err
		}
	}

	p, err := s.Submit(ctx)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Print(out.String())
		return nil
	}
	printPayload(p)
	fmt.Println(ui.NewSuccessResult("Settings sent",
		ui.Param{Key: "Bridge", Value: target},
		ui.Param{Key: "Payload", Value: p.Summary()},
	))
	return nil
}

func printPayload(p *payload.Payload) {
	switch outputFormat {
	case "compact":
		fmt.Println(p.FormatCompact())
	case "json":
		data, err := p.MarshalJSON()
		if err == nil {
			fmt.Println(string(data))
		}
	default:
		fmt.Println(p.FormatDetailed())
	}
}
