package folio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/folio/errs"
	"github.com/tsawler/folio/internal/logging"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/pdfdoc"
	"github.com/tsawler/folio/textpdf"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writePDF(t *testing.T, dir, name, text string) string {
	t.Helper()
	doc, _, err := textpdf.FromText(text, textpdf.Options{LinesPerPage: 1})
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, doc.WriteFile(path, pdfdoc.SaveOptions{}))
	return path
}

func openPDF(t *testing.T, path string) []*pages.Page {
	t.Helper()
	doc, err := pdfdoc.Open(path, pdfdoc.LoadOptions{})
	require.NoError(t, err)
	list, err := pages.List(doc)
	require.NoError(t, err)
	return list
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files left behind")
}

func TestBridgeRotateMarkdown(t *testing.T) {
	scratch := t.TempDir()
	dir := t.TempDir()
	e := New(WithTempDir(scratch))
	in := writeFile(t, dir, "notes.md", "# Title\n\nBody text\n")

	out := filepath.Join(dir, "rotated.md")
	require.NoError(t, e.Rotate(context.Background(), in, out, 90, nil))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(got), "Body text")
	assertEmptyDir(t, scratch)

	pdf := filepath.Join(dir, "rotated.pdf")
	require.NoError(t, e.Rotate(context.Background(), in, pdf, 90, nil))
	list := openPDF(t, pdf)
	require.Len(t, list, 1)
	assert.Equal(t, 90, list[0].Rotate())
	assertEmptyDir(t, scratch)
}

func TestBridgePDFInputRunsDirectly(t *testing.T) {
	scratch := t.TempDir()
	dir := t.TempDir()
	e := New(WithTempDir(scratch))
	in := writePDF(t, dir, "in.pdf", "a\nb\nc")
	out := filepath.Join(dir, "out.pdf")

	require.NoError(t, e.Organize(context.Background(), in, out, []int{3, 1}))
	assert.Len(t, openPDF(t, out), 2)
	assertEmptyDir(t, scratch)
}

func TestBridgeFailureCleansUp(t *testing.T) {
	scratch := t.TempDir()
	dir := t.TempDir()
	e := New(WithTempDir(scratch))
	in := writeFile(t, dir, "notes.txt", "text")

	err := e.Rotate(context.Background(), in, filepath.Join(dir, "out.txt"), 45, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	assertEmptyDir(t, scratch)

	err = e.Organize(context.Background(), in, filepath.Join(dir, "out.txt"), []int{7})
	assert.ErrorIs(t, err, errs.ErrStructure)
	assertEmptyDir(t, scratch)
}

func TestBridgeSameStemConcurrently(t *testing.T) {
	scratch := t.TempDir()
	e := New(WithTempDir(scratch))
	dirs := []string{t.TempDir(), t.TempDir(), t.TempDir(), t.TempDir()}
	words := []string{"alpha", "bravo", "charlie", "delta"}

	var wg sync.WaitGroup
	errc := make(chan error, len(dirs))
	for i, dir := range dirs {
		in := writeFile(t, dir, "report.txt", words[i])
		wg.Add(1)
		go func(in, out string) {
			defer wg.Done()
			errc <- e.Rotate(context.Background(), in, out, 180, nil)
		}(in, filepath.Join(dir, "report-out.txt"))
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		require.NoError(t, err)
	}
	for i, dir := range dirs {
		got, err := os.ReadFile(filepath.Join(dir, "report-out.txt"))
		require.NoError(t, err)
		assert.Equal(t, words[i]+"\n", string(got))
	}
	assertEmptyDir(t, scratch)
}

func TestCancelledContext(t *testing.T) {
	scratch := t.TempDir()
	dir := t.TempDir()
	e := New(WithTempDir(scratch))
	in := writeFile(t, dir, "a.md", "text")
	out := filepath.Join(dir, "b.md")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Rotate(ctx, in, out, 90, nil)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.NoFileExists(t, out)
	assertEmptyDir(t, scratch)
}

func TestSplitNonPDF(t *testing.T) {
	scratch := t.TempDir()
	dir := t.TempDir()
	e := New(WithTempDir(scratch), WithLayout(textpdf.Options{LinesPerPage: 1}))
	in := writeFile(t, dir, "list.txt", "one\ntwo\nthree")

	paths, err := e.Split(context.Background(), in, filepath.Join(dir, "pages"))
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "pages", "list_page_0003.pdf"), paths[2])
	for _, p := range paths {
		assert.Len(t, openPDF(t, p), 1)
	}
	assertEmptyDir(t, scratch)
}

func TestMergeMixedInputs(t *testing.T) {
	scratch := t.TempDir()
	dir := t.TempDir()
	e := New(WithTempDir(scratch), WithLayout(textpdf.Options{LinesPerPage: 1}))
	pdf := writePDF(t, dir, "a.pdf", "one\ntwo")
	txt := writeFile(t, dir, "b.txt", "three\nfour\nfive")
	out := filepath.Join(dir, "all.pdf")

	require.NoError(t, e.Merge(context.Background(), []string{pdf, txt}, out))
	assert.Len(t, openPDF(t, out), 5)
	assertEmptyDir(t, scratch)

	assert.ErrorIs(t, e.Merge(context.Background(), nil, out), errs.ErrInvalidArgument)
}

func TestProtectKeepsPDF(t *testing.T) {
	dir := t.TempDir()
	e := New(WithTempDir(t.TempDir()))
	in := writeFile(t, dir, "secret.md", "# Secret\n")
	out := filepath.Join(dir, "secret.pdf")

	require.NoError(t, e.Protect(context.Background(), in, out, ProtectOptions{User: "u", Owner: "o"}))
	_, err := pdfdoc.Open(out, pdfdoc.LoadOptions{})
	assert.ErrorIs(t, err, errs.ErrCrypto)

	plain := filepath.Join(dir, "plain.pdf")
	require.NoError(t, e.Unlock(context.Background(), out, plain, "u"))
	assert.Len(t, openPDF(t, plain), 1)
}

func TestUnknownInput(t *testing.T) {
	scratch := t.TempDir()
	dir := t.TempDir()
	e := New(WithTempDir(scratch))
	in := writeFile(t, dir, "blob.bin", "\x00\x01\x02 binary")

	err := e.Rotate(context.Background(), in, filepath.Join(dir, "out.pdf"), 90, nil)
	assert.ErrorIs(t, err, errs.ErrUnsupportedConversion)
	assertEmptyDir(t, scratch)

	err = e.Rotate(context.Background(), filepath.Join(dir, "missing.md"), filepath.Join(dir, "out.pdf"), 90, nil)
	assert.ErrorIs(t, err, errs.ErrIO)
}

func TestPageCountAndCompress(t *testing.T) {
	dir := t.TempDir()
	e := New(WithTempDir(t.TempDir()))
	in := writePDF(t, dir, "in.pdf", "a\nb\nc\nd")

	n, err := e.PageCount(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	saved, err := e.Compress(context.Background(), in, filepath.Join(dir, "small.pdf"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, saved, int64(0))
}

func TestEngineLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: "info", Format: "json", Output: &buf})
	dir := t.TempDir()
	e := New(WithLogger(logger), WithTempDir(t.TempDir()))
	in := writePDF(t, dir, "in.pdf", "a")

	require.NoError(t, e.Number(context.Background(), in, filepath.Join(dir, "out.pdf"), NumberOptions{}))
	assert.Contains(t, buf.String(), `"op":"number"`)
	assert.Contains(t, buf.String(), `"done"`)
}

func TestOutputNamingInputIsRefused(t *testing.T) {
	scratch := t.TempDir()
	dir := t.TempDir()
	e := New(WithTempDir(scratch))
	ctx := context.Background()
	const notes = "# Title\n\nBody text\n"
	md := writeFile(t, dir, "notes.md", notes)
	pdf := writePDF(t, dir, "in.pdf", "a\nb")
	pdfBefore, err := os.ReadFile(pdf)
	require.NoError(t, err)

	err = e.Rotate(ctx, md, md, 90, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	err = e.Watermark(ctx, md, md, WatermarkOptions{Text: "X", Opacity: 1})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	err = e.Protect(ctx, pdf, pdf, ProtectOptions{User: "u"})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = e.Compress(ctx, pdf, pdf)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	err = e.Merge(ctx, []string{pdf, md}, md)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	got, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Equal(t, notes, string(got))
	pdfAfter, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.Equal(t, pdfBefore, pdfAfter)
	assertEmptyDir(t, scratch)
}

func TestWatermarkLogsSubstitutions(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: "info", Format: "json", Output: &buf})
	dir := t.TempDir()
	e := New(WithLogger(logger), WithTempDir(t.TempDir()))
	in := writePDF(t, dir, "in.pdf", "a")

	opts := WatermarkOptions{Text: "日 mark", Opacity: 0.5}
	require.NoError(t, e.Watermark(context.Background(), in, filepath.Join(dir, "out.pdf"), opts))
	assert.Contains(t, buf.String(), `"substituted":1`)
	assert.Contains(t, buf.String(), "WinAnsiEncoding")
}
