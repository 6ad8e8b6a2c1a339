// Package textpdf lays out plain text on fixed-size pages and builds the
// resulting PDF object graph.
//
// Layout uses a constant glyph width instead of font metrics: the number
// of characters per line is derived from the page width, margins and font
// size, lines wrap at the last space before that limit, and a new page
// starts once the line limit is reached. Text is drawn with the built-in
// Helvetica and Helvetica-Bold fonts in WinAnsiEncoding; characters
// outside that encoding are replaced with '?' and counted in [Stats].
//
//	doc, stats, err := textpdf.FromText("Hello\nWorld", textpdf.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	err = doc.WriteFile("hello.pdf", pdfdoc.SaveOptions{})
package textpdf
