// Package filters provides PDF stream decompression filters.
//
// PDF streams can be compressed using various algorithms. This package
// implements the standard PDF decompression filters behind a single closed
// dispatch table keyed by filter name.
//
// # Filter Chains
//
// [Decode] runs raw stream bytes through an ordered chain of [Spec] values:
//
//	out, err := filters.Decode(raw, []filters.Spec{
//	    {Name: "ASCII85Decode"},
//	    {Name: "FlateDecode", Params: filters.Params{"Predictor": 12, "Columns": 4}},
//	}, filters.Limits{MaxOutput: 64 << 20, MaxFilters: 8})
//
// When a stage fails, Decode returns the bytes that stage produced so far
// together with a [*FilterError]. Limit violations wrap [ErrLimitExceeded].
//
// # Supported Filters
//
//   - ASCIIHexDecode, ASCII85Decode
//   - FlateDecode and LZWDecode, with TIFF (2) and PNG (10-15) predictors
//   - RunLengthDecode
//   - CCITTFaxDecode: Group 3 1D, Group 3 2D and Group 4
//   - DCTDecode and JPXDecode are passed through (DCT data is trimmed to
//     its SOI/EOI markers)
//   - Crypt with the Identity filter
//
// JBIG2Decode is recognised but reported as unsupported; the raw data is
// returned as the partial result.
//
// # Decode Parameters
//
// Filters accept a Params map for additional parameters:
//
//	params := filters.Params{
//	    "K":        -1,
//	    "Columns":  1728,
//	    "BlackIs1": true,
//	}
//	decoded, err := filters.CCITTFaxDecode(data, params)
package filters
