// Package coord converts geographic coordinates into the fixed-point
// integers the watchapp firmware reads from its settings message.
//
// The wire format carries each coordinate component as a signed 32-bit
// integer equal to the component in degrees multiplied by a scale factor
// (100 by default) and truncated toward zero:
//
//	coord.Encode(65.4321, coord.DefaultScale)  // 6543
//	coord.Encode(-147.8, coord.DefaultScale)   // -14780
//	coord.Encode(-0.006, coord.DefaultScale)   // 0, not -1
//
// Truncation matches the `(x * 100) | 0` conversion the firmware has always
// been fed, so a decoded value is never more than 1/scale away from the
// original component.
package coord
