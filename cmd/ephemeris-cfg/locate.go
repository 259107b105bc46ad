package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ephemeris/internal/coord"
	"github.com/muurk/ephemeris/internal/location"
	"github.com/muurk/ephemeris/internal/ui"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Look up the current location",
	Long: `Run one location lookup and print the outcome.

The ip provider asks an IP geolocation service; the city provider looks a
city or town up by name on OpenStreetMap. The encoded values are what the
watch would receive.`,
	Example: `  # Locate by IP address
  ephemeris-cfg locate

  # Locate by city name with a 5 second timeout
  ephemeris-cfg locate --provider city --city Fairbanks --location-timeout 5000`,
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVar(&providerName, "provider", "", "Location provider (ip, city); default from preferences")
	locateCmd.Flags().StringVar(&cityName, "city", "", "City name for the city provider")
	locateCmd.Flags().IntVar(&locateWait, "location-timeout", 0, "Location timeout in milliseconds; default from preferences")

	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	prefs := reg.Preferences

	name := providerName
	if name == "" {
		name = prefs.Provider
	}
	city := cityName
	if city == "" {
		city = prefs.City
	}
	provider, err := buildProvider(name, city)
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("location lookups are disabled (provider is none)")
	}

	timeout := prefs.LocationTimeout()
	if locateWait > 0 {
		timeout = time.Duration(locateWait) * time.Millisecond
	}

	fmt.Println(ui.NewHeader("Locate", "ephemeris-cfg locate",
		ui.Param{Key: "Provider", Value: name},
		ui.Param{Key: "Timeout", Value: timeout.String()},
	))

	ctx, stop := signalContext()
	defer stop()

	outcome := location.NewResolver(provider, nil).Resolve(ctx, timeout, prefs.LocationMaxAge())
	if !outcome.IsResolved() {
		fmt.Println(ui.NewWarningResult(outcome.Reason.Message(),
			ui.Param{Key: "Outcome", Value: outcome.String()},
		))
		return fmt.Errorf("location lookup failed: %s", outcome.Reason)
	}

	enc := coord.EncodeCoordinate(outcome.Coordinate, coord.DefaultScale)
	fmt.Println(ui.NewSuccessResult("Location found",
		ui.Param{Key: "Coordinate", Value: outcome.Coordinate.String()},
		ui.Param{Key: "Encoded", Value: fmt.Sprintf("%d, %d", enc.Latitude, enc.Longitude)},
		ui.Param{Key: "Fix time", Value: outcome.Timestamp.Format(time.RFC3339)},
	))
	return nil
}
