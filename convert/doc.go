// Package convert turns a document into another format without external
// tools.
//
// Every source is first reduced to a flat list of headings, paragraphs
// and preformatted sections, which each target format then renders.
// Pairs with a dedicated path skip that step: Markdown to HTML goes
// through goldmark, HTML to Markdown through htmldoc, and a source whose
// format matches the target is copied byte for byte.
package convert
