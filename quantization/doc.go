// Package quantization provides the error-bounded linear quantizer applied to
// prediction residuals.
//
// A value x with prediction p is mapped to an integer bin so that the value
// reconstructed from (p, bin) differs from x by at most the error bound:
//
//	q, _ := quantization.NewLinearQuantizer[float32](1e-3, 32768)
//	bin, recon := q.Quantize(x, p)   // |recon - x| <= 1e-3
//	back, _ := q.Recover(p, bin)     // back == recon, bit for bit
//
// Bin 0 marks an unpredictable value: the residual is too large for the bin
// range, or the value is NaN or infinite. Such values are stored verbatim and
// returned in the same order by Recover.
//
// Bins 1..2·radius-1 encode reconstructions p + 2·(bin-radius)·eb. Every
// reconstruction is computed in float64 and then converted to T, so compression
// and decompression produce identical bits.
package quantization
