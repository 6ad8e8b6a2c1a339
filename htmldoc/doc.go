// Package htmldoc reads HTML documents.
//
// [StripTags] is a markup-blind stripper used for plain-text output.
// [Parse] builds a flat list of block elements (headings, paragraphs,
// lists, tables, code and quotes) from the DOM produced by
// golang.org/x/net/html; the result renders as Markdown or as styled
// blocks for the PDF generator. Navigation and page chrome can be dropped
// while parsing, see [NavigationMode].
package htmldoc
