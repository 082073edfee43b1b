// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.NewFromConfig(ctx, "my-bucket", "simulations/",
//	    config.WithRegion("us-east-1"),
//	)
//
//	arch := archive.New(store, compressor)
//
// # Features
//
//   - Multipart uploads for large streams with CRC32C checksums
//   - Range reads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
