// Package conv provides checked integer conversions for decode paths.
//
// Counts and lengths read from a persisted stream are untrusted; converting
// them with a plain cast can wrap silently on 32-bit platforms or turn a
// corrupted length into a negative slice bound.
package conv
