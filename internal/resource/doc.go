// Package resource bounds the memory, concurrency and IO throughput the
// archive spends on compressed arrays.
//
// A nil *Controller is valid and imposes no limits.
package resource
