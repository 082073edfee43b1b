// Package archive stores compressed arrays in a blob store and tracks them in a catalog.
//
// Every Save writes a new immutable version of a named array. The stream is
// uploaded first and then committed to the catalog with a conditional write,
// so concurrent writers never overwrite each other and readers never observe
// a catalog entry without its blob.
//
// # Quick Start
//
//	c, _ := szgo.New[float32](szgo.WithErrorBound(1e-4))
//	arch, _ := archive.New(blobstore.NewLocalStore("/data/fields"), c,
//	    archive.WithMemoryLimit(1<<30),
//	    archive.WithIOLimit(64<<20),
//	)
//
//	entry, _ := arch.Save(ctx, "run-42/temperature", field)
//	field, _ = arch.Load(ctx, "run-42/temperature")
//
// # Backends
//
// Any blobstore.BlobStore works: in-memory, local files (read through mmap),
// MinIO or S3. The catalog defaults to an in-memory one; use catalog/ddb for a
// catalog shared between processes.
//
// # Resource Limits
//
// WithMemoryLimit bounds the decoded bytes held by concurrent loads,
// WithMaxConcurrent bounds in-flight operations and WithIOLimit throttles
// blob transfers.
package archive
