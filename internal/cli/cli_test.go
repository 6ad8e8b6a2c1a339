package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/pdfdoc"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), stderr.String(), err
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func pageList(t *testing.T, path string) []*pages.Page {
	t.Helper()
	doc, err := pdfdoc.Open(path, pdfdoc.LoadOptions{})
	require.NoError(t, err)
	list, err := pages.List(doc)
	require.NoError(t, err)
	return list
}

// lineConfig writes a config that puts one line on each generated page.
func lineConfig(t *testing.T, dir string) string {
	return write(t, dir, "folio.yaml", `
log:
  level: debug
  format: json
temp_dir: `+t.TempDir()+`
layout:
  lines_per_page: 1
watch:
  settle: 50ms
`)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "folio version")
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "notes.md", "# Hello\n\nWorld\n")
	out := filepath.Join(dir, "notes.html")

	_, _, err := run(t, "convert", in, out)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Hello</h1>")

	_, _, err = run(t, "convert", in)
	assert.Error(t, err, "convert needs two arguments")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := lineConfig(t, dir)
	in := write(t, dir, "list.txt", "a\nb\nc")
	pdf := filepath.Join(dir, "list.pdf")

	_, logs, err := run(t, "--config", cfg, "convert", in, pdf)
	require.NoError(t, err)
	assert.Len(t, pageList(t, pdf), 3)
	assert.Contains(t, logs, `"op":"convert"`)

	out, _, err := run(t, "--config", cfg, "pages", in)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	bad := write(t, dir, "bad.yaml", "log: [unclosed")
	_, _, err = run(t, "--config", bad, "version")
	assert.Error(t, err)

	_, _, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "version")
	assert.Error(t, err)
}

func TestPDFCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := lineConfig(t, dir)
	in := write(t, dir, "doc.txt", "one\ntwo\nthree\nfour")
	pdf := filepath.Join(dir, "doc.pdf")
	_, _, err := run(t, "--config", cfg, "convert", in, pdf)
	require.NoError(t, err)

	rotated := filepath.Join(dir, "rotated.pdf")
	_, _, err = run(t, "rotate", pdf, rotated, "--degrees", "180", "--pages", "2,4")
	require.NoError(t, err)
	var rot []int
	for _, p := range pageList(t, rotated) {
		rot = append(rot, p.Rotate())
	}
	assert.Equal(t, []int{0, 180, 0, 180}, rot)

	organized := filepath.Join(dir, "organized.pdf")
	_, _, err = run(t, "organize", pdf, organized, "--order", "4,3")
	require.NoError(t, err)
	assert.Len(t, pageList(t, organized), 2)

	deleted := filepath.Join(dir, "deleted.pdf")
	_, _, err = run(t, "delete", pdf, deleted, "--pages", "1")
	require.NoError(t, err)
	assert.Len(t, pageList(t, deleted), 3)

	merged := filepath.Join(dir, "merged.pdf")
	_, _, err = run(t, "merge", "-o", merged, pdf, deleted)
	require.NoError(t, err)
	assert.Len(t, pageList(t, merged), 7)

	out, _, err := run(t, "split", pdf, filepath.Join(dir, "parts"))
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 4)

	numbered := filepath.Join(dir, "numbered.pdf")
	_, _, err = run(t, "number", pdf, numbered, "--position", "top-right", "--start", "3")
	require.NoError(t, err)
	_, _, err = run(t, "number", pdf, numbered, "--position", "middle")
	assert.Error(t, err)

	marked := filepath.Join(dir, "marked.pdf")
	_, _, err = run(t, "watermark", pdf, marked, "--text", "DRAFT", "--opacity", "0.5")
	require.NoError(t, err)

	cropped := filepath.Join(dir, "cropped.pdf")
	_, _, err = run(t, "crop", pdf, cropped, "--x", "10", "--width", "80")
	require.NoError(t, err)
	_, ok := pageList(t, cropped)[0].Box("CropBox")
	assert.True(t, ok)

	locked := filepath.Join(dir, "locked.pdf")
	_, _, err = run(t, "protect", pdf, locked, "--user", "secret")
	require.NoError(t, err)
	_, _, err = run(t, "unlock", locked, filepath.Join(dir, "bad.pdf"), "--password", "nope")
	assert.Error(t, err)
	unlocked := filepath.Join(dir, "unlocked.pdf")
	_, _, err = run(t, "unlock", locked, unlocked, "-p", "secret")
	require.NoError(t, err)
	assert.Len(t, pageList(t, unlocked), 4)

	out, _, err = run(t, "compress", pdf, filepath.Join(dir, "small.pdf"))
	require.NoError(t, err)
	assert.Contains(t, out, "bytes saved")

	_, _, err = run(t, "repair", pdf, filepath.Join(dir, "fixed.pdf"))
	require.NoError(t, err)

	_, _, err = run(t, "rotate", pdf, pdf)
	assert.ErrorContains(t, err, "overwrite the input")
	assert.Len(t, pageList(t, pdf), 4)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	cfg := lineConfig(t, dir)
	inbox := filepath.Join(dir, "inbox")
	outbox := filepath.Join(dir, "outbox")
	require.NoError(t, os.MkdirAll(inbox, 0o755))

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.ExecuteWithArgs(ctx, []string{"--config", cfg, "watch", inbox, "--to", "html", "--out", outbox})
	}()

	want := filepath.Join(outbox, "note.html")
	// the watcher may not be registered yet, so keep touching the file
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(inbox, "note.md"), []byte("# Watched\n"), 0o644)
		data, err := os.ReadFile(want)
		return err == nil && strings.Contains(string(data), "<h1>Watched</h1>")
	}, 10*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Contains(t, stdout.String(), want)
}

func TestWatchRejectsUnknownFormat(t *testing.T) {
	_, _, err := run(t, "watch", t.TempDir(), "--to", "exe")
	assert.Error(t, err)
}

func TestWatchable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"in/a.md", true},
		{"in/a.pdf", false},
		{"in/.a.md", false},
		{"in/a.md~", false},
		{"in/a.exe", false},
		{"in/a.docx", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, watchable(tt.path, "pdf"), tt.path)
	}
}
