// Package pages navigates and edits the page tree of a pdfdoc.Document.
//
// [List] flattens the tree into reading order, [Map] numbers the pages from
// one, and [Page] exposes the per-page attributes. Geometry follows the
// page's own /MediaBox or, failing that, its immediate /Parent's.
// [PushDown] copies every inherited attribute onto the page so the page
// can be moved to another tree, and [SetKids] replaces the tree with a flat
// list. [AddOverlay] appends a content stream with page-local resources.
package pages
