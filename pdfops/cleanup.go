package pdfops

import (
	"os"

	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/pdfdoc"
)

// Compress removes empty streams and unreachable objects, renumbers, and
// writes out with object streams and maximum deflate. It returns the
// number of bytes saved, which is never negative.
func Compress(in, out string) (int64, error) {
	if err := distinct("compress", out, in); err != nil {
		return 0, err
	}
	before, err := os.Stat(in)
	if err != nil {
		return 0, errs.E(errs.CodeIO, "compress", in, err)
	}
	doc, err := open("compress", in)
	if err != nil {
		return 0, err
	}
	doc.Cleanup()
	if err := save("compress", doc, out, pdfdoc.SaveOptions{Compress: true}); err != nil {
		return 0, err
	}
	after, err := os.Stat(out)
	if err != nil {
		return 0, errs.E(errs.CodeIO, "compress", out, err)
	}
	return max(before.Size()-after.Size(), 0), nil
}

// RepairReport describes what Repair could not recover.
type RepairReport struct {
	// Skipped counts objects dropped because they did not parse.
	Skipped int
	// Damaged counts streams kept whose data does not decode, such as a
	// truncated fax image or a corrupt content stream.
	Damaged int
}

// Repair rewrites in through the tolerant loader: a damaged cross
// reference table is rebuilt from object headers, objects that fail to
// parse are dropped, and the result is cleaned up as by Compress. Every
// remaining stream is decoded to find damaged data, which is kept as is
// and counted in the report.
func Repair(in, out string) (RepairReport, error) {
	if err := distinct("repair", out, in); err != nil {
		return RepairReport{}, err
	}
	doc, err := open("repair", in)
	if err != nil {
		return RepairReport{}, err
	}
	doc.Cleanup()
	report := RepairReport{Skipped: doc.Skipped, Damaged: len(doc.DamagedStreams())}
	if err := doc.CompressStreams(); err != nil {
		return report, errs.WithPath(err, errs.CodeStructure, "repair", in)
	}
	return report, save("repair", doc, out, pdfdoc.SaveOptions{})
}
