package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/szgo"
	"github.com/hupe1980/szgo/blobstore"
	"github.com/hupe1980/szgo/catalog"
	"github.com/hupe1980/szgo/internal/resource"
	"github.com/hupe1980/szgo/ndarray"
)

// blobExt is appended to every stream blob.
const blobExt = ".sz"

var (
	// ErrNotFound is returned for names without a committed version.
	ErrNotFound = catalog.ErrNotFound

	// ErrConflict is returned when another writer committed the same version first.
	ErrConflict = catalog.ErrConcurrentModification

	// ErrTypeMismatch is returned when loading an array stored with a different element type.
	ErrTypeMismatch = errors.New("archive: element type mismatch")

	// ErrMemoryLimitExceeded is returned when a load needs more memory than WithMemoryLimit allows.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// Archive is a versioned store of compressed arrays of element type T.
type Archive[T ndarray.Float] struct {
	store      blobstore.BlobStore
	catalog    catalog.Catalog
	compressor *szgo.Compressor[T]
	ctrl       *resource.Controller
	logger     *szgo.Logger
	now        func() time.Time
}

// New creates an archive writing to store with compressor.
func New[T ndarray.Float](store blobstore.BlobStore, compressor *szgo.Compressor[T], optFns ...Option) (*Archive[T], error) {
	if store == nil {
		return nil, errors.New("archive: nil blob store")
	}
	if compressor == nil {
		return nil, errors.New("archive: nil compressor")
	}

	o := options{logger: szgo.NoopLogger()}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.catalog == nil {
		o.catalog = catalog.NewMemory()
	}
	if o.memoryLimit < 0 || o.maxConcurrent < 0 || o.ioLimit < 0 {
		return nil, errors.New("archive: negative resource limit")
	}

	return &Archive[T]{
		store:      store,
		catalog:    o.catalog,
		compressor: compressor,
		ctrl: resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			MaxConcurrent:      int64(o.maxConcurrent),
			IOLimitBytesPerSec: o.ioLimit,
		}),
		logger: o.logger,
		now:    time.Now,
	}, nil
}

// blobName is unique per save attempt, so a writer that loses the commit
// race only ever deletes its own blob.
func blobName(name string, version uint64, attempt uuid.UUID) string {
	return fmt.Sprintf("%s@v%d-%s%s", name, version, attempt, blobExt)
}

// Save compresses a and commits it as the next version of name.
func (a *Archive[T]) Save(ctx context.Context, name string, arr *ndarray.Array[T]) (catalog.Entry, error) {
	if err := blobstore.ValidateName(name); err != nil {
		return catalog.Entry{}, err
	}
	if err := a.ctrl.AcquireSlot(ctx); err != nil {
		return catalog.Entry{}, err
	}
	defer a.ctrl.ReleaseSlot()

	data, err := a.compressor.Compress(ctx, arr)
	if err != nil {
		return catalog.Entry{}, err
	}
	return a.commit(ctx, name, arr.Dims(), data)
}

// SaveAll compresses arrays in parallel and commits each under the name at
// the same index. Commits happen in input order; on failure the entries
// committed so far are returned with the error.
func (a *Archive[T]) SaveAll(ctx context.Context, names []string, arrays []*ndarray.Array[T]) ([]catalog.Entry, error) {
	if len(names) != len(arrays) {
		return nil, fmt.Errorf("archive: %d names for %d arrays", len(names), len(arrays))
	}
	for _, name := range names {
		if err := blobstore.ValidateName(name); err != nil {
			return nil, err
		}
	}

	streams, err := a.compressor.CompressBatch(ctx, arrays)
	if err != nil {
		return nil, err
	}

	entries := make([]catalog.Entry, 0, len(names))
	for i, name := range names {
		e, err := a.commit(ctx, name, arrays[i].Dims(), streams[i])
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (a *Archive[T]) commit(ctx context.Context, name string, dims []int, data []byte) (catalog.Entry, error) {
	version := uint64(1)
	prev, err := a.catalog.Get(ctx, name, 0)
	switch {
	case err == nil:
		version = prev.Version + 1
	case !errors.Is(err, catalog.ErrNotFound):
		return catalog.Entry{}, err
	}

	e := catalog.Entry{
		Name:        name,
		Version:     version,
		Blob:        blobName(name, version, uuid.New()),
		Dims:        dims,
		ElementSize: ndarray.ElemSize[T](),
		Compression: a.compressor.Compression().String(),
		ErrorBound:  a.compressor.ErrorBound(),
		Bytes:       int64(len(data)),
		CreatedAt:   a.now().UTC(),
	}

	if err := a.ctrl.WaitIO(ctx, len(data)); err != nil {
		return catalog.Entry{}, err
	}
	if err := a.store.Put(ctx, e.Blob, data); err != nil {
		return catalog.Entry{}, fmt.Errorf("archive: put %s: %w", e.Blob, err)
	}

	if err := a.catalog.Commit(ctx, e); err != nil {
		if delErr := a.store.Delete(ctx, e.Blob); delErr != nil {
			a.logger.WarnContext(ctx, "orphaned blob", slog.String("blob", e.Blob), slog.Any("error", delErr))
		}
		return catalog.Entry{}, fmt.Errorf("archive: commit %s@%d: %w", name, version, err)
	}

	a.logger.DebugContext(ctx, "saved",
		slog.String("name", name),
		slog.Uint64("version", version),
		slog.Int64("bytes", e.Bytes),
	)
	return e, nil
}

// Load returns the latest version of name.
func (a *Archive[T]) Load(ctx context.Context, name string) (*ndarray.Array[T], error) {
	return a.LoadVersion(ctx, name, 0)
}

// LoadVersion returns name at version, or the latest version when version is 0.
func (a *Archive[T]) LoadVersion(ctx context.Context, name string, version uint64) (*ndarray.Array[T], error) {
	e, err := a.catalog.Get(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if e.ElementSize != ndarray.ElemSize[T]() {
		return nil, fmt.Errorf("%w: stored %d-byte elements", ErrTypeMismatch, e.ElementSize)
	}

	decoded := int64(e.Elements()) * int64(e.ElementSize)
	if err := a.ctrl.AcquireMemory(ctx, decoded); err != nil {
		return nil, err
	}
	defer a.ctrl.ReleaseMemory(decoded)

	if err := a.ctrl.AcquireSlot(ctx); err != nil {
		return nil, err
	}
	defer a.ctrl.ReleaseSlot()

	return a.decode(ctx, e.Blob)
}

// decode keeps the blob open until decompression finishes; mapped blobs
// are only valid until Close.
func (a *Archive[T]) decode(ctx context.Context, blob string) (*ndarray.Array[T], error) {
	b, err := a.store.Open(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", blob, err)
	}
	defer func() { _ = b.Close() }()

	if err := a.ctrl.WaitIO(ctx, int(b.Size())); err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, err
	}
	return a.compressor.Decompress(ctx, data)
}

// Header reads the stream header of the latest version of name without
// transferring the payload.
func (a *Archive[T]) Header(ctx context.Context, name string) (szgo.Header, error) {
	e, err := a.catalog.Get(ctx, name, 0)
	if err != nil {
		return szgo.Header{}, err
	}

	b, err := a.store.Open(ctx, e.Blob)
	if err != nil {
		return szgo.Header{}, fmt.Errorf("archive: open %s: %w", e.Blob, err)
	}
	defer func() { _ = b.Close() }()

	buf := make([]byte, szgo.HeaderSize)
	if _, err := b.ReadAt(ctx, buf, 0); err != nil {
		return szgo.Header{}, fmt.Errorf("%w: %v", szgo.ErrInvalidHeader, err)
	}
	return szgo.ReadHeader(buf)
}

// Stat returns the catalog entry of the latest version of name.
func (a *Archive[T]) Stat(ctx context.Context, name string) (catalog.Entry, error) {
	return a.catalog.Get(ctx, name, 0)
}

// Versions returns every committed version of name in ascending order.
func (a *Archive[T]) Versions(ctx context.Context, name string) ([]catalog.Entry, error) {
	return a.catalog.Versions(ctx, name)
}

// List returns the latest version of every name with prefix.
func (a *Archive[T]) List(ctx context.Context, prefix string) ([]catalog.Entry, error) {
	return a.catalog.List(ctx, prefix)
}

// Delete removes every version of name and its blobs.
func (a *Archive[T]) Delete(ctx context.Context, name string) error {
	versions, err := a.catalog.Versions(ctx, name)
	if err != nil {
		return err
	}
	for _, e := range versions {
		if err := a.store.Delete(ctx, e.Blob); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			return fmt.Errorf("archive: delete %s: %w", e.Blob, err)
		}
	}
	return a.catalog.Delete(ctx, name)
}
