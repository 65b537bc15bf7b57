package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}

func TestSaveAndDelete(t *testing.T) {
	d := NewDisk(t.TempDir())
	rel, err := d.Save(fileHeader(t, "logo.PNG", pngHeader), DirLogos)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "logos/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))

	_, err = os.Stat(filepath.Join(d.Root, rel))
	require.NoError(t, err)

	require.NoError(t, d.Delete(rel))
	_, err = os.Stat(filepath.Join(d.Root, rel))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, d.Delete(rel), "missing files are ignored")
	assert.NoError(t, d.Delete(""))
}

func TestSaveRejectsWrongExtension(t *testing.T) {
	d := NewDisk(t.TempDir())
	_, err := d.Save(fileHeader(t, "logo.gif", pngHeader), DirLogos)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSaveRejectsContentMismatch(t *testing.T) {
	d := NewDisk(t.TempDir())
	_, err := d.Save(fileHeader(t, "room.jpg", []byte("plain text, not an image")), DirRooms)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSaveRejectsOversize(t *testing.T) {
	d := NewDisk(t.TempDir())
	fh := fileHeader(t, "big.png", pngHeader)
	fh.Size = MaxImageBytes + 1
	_, err := d.Save(fh, DirProducts)
	assert.ErrorIs(t, err, ErrTooLarge)
}
