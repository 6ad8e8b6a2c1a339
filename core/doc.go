// Package core holds the PDF object model and the byte-level machinery that
// reads and writes it.
//
// Values are represented by the [Object] interface: [Null], [Bool], [Int],
// [Real], [String], [Name], [Array], [Dict], [*Stream] and [IndirectRef].
// [Lexer] and [Parser] work on an in-memory buffer so callers can seek to
// any offset recorded in a cross-reference section. [ParseXRefChain]
// follows classic tables, cross-reference streams and /Prev links, while
// [ScanObjects] rebuilds a table from object headers when those are
// unusable. [WriteObject] emits PDF syntax for any value and
// [BuildObjectStream] packs objects into a /Type /ObjStm stream.
package core
