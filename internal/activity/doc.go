// Package activity holds the rules for daily activity records: which fields
// are required, which values are acceptable, and whose records a caller sees.
//
// Create needs day, steps, distanceKm and activeTime. Update accepts any
// subset and leaves the rest untouched. A nil owner means an anonymous
// caller, who sees every record and creates unowned ones.
package activity
