// Package pdfops implements the structural PDF operations: split, merge,
// rotate, crop, reorder and delete pages, page numbers, watermarks,
// password protection, unlocking, compression and repair.
//
// Every function loads its input, edits the document in memory and writes
// a new file. The input file is never modified and no state is kept
// between calls. Page numbers are 1-based; a nil page list selects every
// page.
package pdfops
