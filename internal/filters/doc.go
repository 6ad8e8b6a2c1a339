// Package filters implements the stream filters needed to read and rewrite
// PDF files: FlateDecode in both directions (with TIFF and PNG predictors
// on decode), ASCIIHexDecode, ASCII85Decode and CCITTFaxDecode.
//
// Parameters are passed as a Params map holding plain Go values:
//
//	decoded, err := filters.FlateDecode(data, filters.Params{"Predictor": 12, "Columns": 5})
//	packed, err := filters.FlateEncode(decoded, zlib.BestCompression)
package filters
