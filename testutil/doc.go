// Package testutil provides testing utilities for szgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides deterministic generators for the kinds of fields scientific
// compressors see and helpers to verify error bounds.
//
// # Field Generation
//
//	rng := testutil.NewRNG(seed)
//	smooth := testutil.SmoothField[float32](rng, 64, 64)    // sines plus small noise
//	ramp := testutil.RampField[float64]([]float64{1, 0.5}, 32, 32)
//	noise := testutil.NoiseField[float32](rng, 1000)
//
// # Error Bound Verification
//
//	maxErr := testutil.MaxAbsError(original.Data(), decompressed.Data())
package testutil
