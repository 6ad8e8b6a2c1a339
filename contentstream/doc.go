// Package contentstream reads and writes PDF page content streams.
//
// A content stream is a flat sequence of operands followed by an operator:
//
//	ops, err := contentstream.Parse(data)
//	for _, op := range ops {
//	    fmt.Printf("%s %v\n", op.Operator, op.Operands)
//	}
//
// [Encode] turns a list of operations back into bytes, so new content is
// built as values and never by string concatenation:
//
//	data := contentstream.Encode([]contentstream.Operation{
//	    contentstream.Op("BT"),
//	    contentstream.Op("Tf", core.Name("F1"), core.Int(12)),
//	    contentstream.Op("Td", core.Int(72), core.Int(720)),
//	    contentstream.Op("Tj", core.String("Hello")),
//	    contentstream.Op("ET"),
//	})
//
// [ExtractText] recovers the text shown by Tj, TJ, ' and " operators,
// decoding single-byte strings as WinAnsiEncoding.
//
// Inline images (BI ... ID ... EI) are returned as a single "BI" operation
// whose operands are the image dictionary and the raw image bytes.
package contentstream
