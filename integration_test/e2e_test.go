package integration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/szgo"
	"github.com/hupe1980/szgo/archive"
	"github.com/hupe1980/szgo/blobstore"
	"github.com/hupe1980/szgo/catalog"
	"github.com/hupe1980/szgo/testutil"
)

func TestE2E_Restart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cat := catalog.NewMemory()

	field := testutil.SmoothField[float32](testutil.NewRNG(1), 48, 40, 12)

	// 1. Open and save
	c, err := szgo.New[float32](szgo.WithErrorBound(1e-4))
	require.NoError(t, err)
	arch, err := archive.New(blobstore.NewLocalStore(dir), c, archive.WithCatalog(cat))
	require.NoError(t, err)

	e, err := arch.Save(ctx, "sim/rho", field)
	require.NoError(t, err)

	// 2. Reopen with a fresh store and compressor, then verify
	c2, err := szgo.New[float32]()
	require.NoError(t, err)
	arch2, err := archive.New(blobstore.NewLocalStore(dir), c2, archive.WithCatalog(cat))
	require.NoError(t, err)

	got, err := arch2.Load(ctx, "sim/rho")
	require.NoError(t, err)
	require.Equal(t, field.Dims(), got.Dims())
	require.LessOrEqual(t, testutil.MaxAbsError(field.Data(), got.Data()), e.ErrorBound)

	names, err := blobstore.NewLocalStore(dir).List(ctx, "sim/")
	require.NoError(t, err)
	require.Equal(t, []string{e.Blob}, names)
}

func TestE2E_StreamPortable(t *testing.T) {
	ctx := context.Background()
	field := testutil.SmoothField[float64](testutil.NewRNG(2), 300)

	writer, err := szgo.New[float64](
		szgo.WithErrorBound(1e-6),
		szgo.WithBlockSize(32),
		szgo.WithPredictors(szgo.PredictorRegression, szgo.PredictorLorenzo),
		szgo.WithCompression(szgo.CompressionLZ4),
	)
	require.NoError(t, err)
	stream, err := writer.Compress(ctx, field)
	require.NoError(t, err)

	// Everything needed to decode is in the stream.
	reader, err := szgo.New[float64]()
	require.NoError(t, err)
	got, err := reader.Decompress(ctx, stream)
	require.NoError(t, err)
	require.LessOrEqual(t, testutil.MaxAbsError(field.Data(), got.Data()), 1e-6)
}
