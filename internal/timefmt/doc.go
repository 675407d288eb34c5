// Package timefmt converts record timestamps into the dashboard's display
// form, DD-MM-YYYY, HH:MM:SS in a fixed regional zone (IST by default).
//
// The package has two halves:
//
//   - [Parse]: strict parsing of the accepted wire formats, returning
//     [ErrMalformedTimestamp] for anything else
//   - [Formatter.Format]: lenient display formatting that never fails; input
//     it cannot parse is returned unchanged
package timefmt
