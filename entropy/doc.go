// Package entropy encodes the per-block predictor selection stream.
//
// The Encoder contract is split into preprocessing, header, stream and cleanup
// steps so that a caller can interleave the coder's own header with other
// persisted state:
//
//	enc := entropy.NewHuffman()
//	_ = enc.PreprocessEncode(selection, 4*numPredictors)
//	_ = enc.Save(w)
//	_ = enc.Encode(selection, w)
//	enc.PostprocessEncode()
//
//	_ = dec.Load(r)
//	selection, _ := dec.Decode(r, count)
//	dec.PostprocessDecode()
//
// Huffman is backed by the huff0 coder from github.com/klauspost/compress.
// Selection streams are short alphabets with long runs, so each chunk falls
// back to run-length or raw storage whenever huff0 cannot shrink it.
package entropy
