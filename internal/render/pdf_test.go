package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"propertyreport/internal/images"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{B: 200, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	if strings.HasSuffix(path, ".bmp") {
		require.NoError(t, bmp.Encode(f, img))
		return
	}
	require.NoError(t, png.Encode(f, img))
}

func TestPDFWriter_Write(t *testing.T) {
	dir := t.TempDir()
	front := filepath.Join(dir, "exterior_front.png")
	kitchen := filepath.Join(dir, "kitchen.bmp")
	logo := filepath.Join(dir, "logo.png")
	writeTestImage(t, front, 64, 48)
	writeTestImage(t, kitchen, 40, 30)
	writeTestImage(t, logo, 30, 10)

	slots := images.ResolveSections(map[images.SectionTag][]string{
		images.SectionCover:    {front},
		images.SectionProperty: {kitchen, filepath.Join(dir, "vanished.jpg")},
	})
	doc := sampleDocument(t, 20, slots)
	doc.Brand.LogoPath = logo

	var buf bytes.Buffer
	layout, err := NewPDFWriter(quietLogger()).Write(&buf, doc)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.GreaterOrEqual(t, len(layout.Pages), len(doc.Sections))
	assert.Zero(t, layout.SplitGroups())
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "report.pdf")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("%PDF-1.3"))
		return err
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	failed := filepath.Join(dir, "failed.pdf")
	boom := errors.New("disk full")
	err = WriteFileAtomic(failed, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(failed)
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}
