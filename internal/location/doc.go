// Package location obtains the device position for the settings form.
//
// A Provider is the platform capability: it answers one query by calling
// either a success or an error callback. Resolver wraps a provider so that
// each query settles exactly once into an Outcome, bounded by a timeout
// and a maximum fix age, with at most one query in flight.
//
// # Providers
//
//   - StaticProvider: a fixed fix or error, used by tests and --lat/--lon
//   - IPProvider: IP geolocation over HTTP with a cached last fix
//   - CityProvider: looks a city name up on the OpenStreetMap Overpass API
//
// # Example
//
//	r := location.NewResolver(location.NewIPProvider(), logger)
//	out := r.Resolve(ctx, location.DefaultTimeout, location.DefaultMaxAge)
//	if out.IsResolved() {
//	    fmt.Println(out.Coordinate)
//	} else {
//	    fmt.Println(out.Reason.Message())
//	}
package location
