package archive

import (
	"github.com/hupe1980/szgo"
	"github.com/hupe1980/szgo/catalog"
)

type options struct {
	catalog       catalog.Catalog
	memoryLimit   int64
	maxConcurrent int
	ioLimit       int64
	logger        *szgo.Logger
}

// Option configures an Archive.
type Option func(*options)

// WithCatalog sets the catalog. Defaults to an in-memory catalog.
func WithCatalog(c catalog.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithMemoryLimit bounds the decoded bytes held by concurrent loads.
// A load larger than the limit fails. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMaxConcurrent bounds the number of in-flight saves and loads. 0 means unlimited.
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		o.maxConcurrent = n
	}
}

// WithIOLimit throttles blob transfers to bytesPerSec. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithLogger sets the logger. Defaults to no logging.
func WithLogger(l *szgo.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = szgo.NoopLogger()
		}
		o.logger = l
	}
}
