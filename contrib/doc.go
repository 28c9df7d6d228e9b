// Package contrib provides additional functionality and utilities
// for the Data API Go client.
//
// Everything in this package is intended to extend the core client with
// features that are not part of the core library, such as testing
// utilities.
//
// Note that this package is outside of the backward compatibility guarantees
// provided by the core client. Changes to this package may introduce
// breaking changes without following semantic versioning.
//
// [github.com/dataapi/dataapi.go/contrib/testenv] builds clients against a
// real gateway described by environment variables, or against an
// in-process fake when none is configured.
package contrib
