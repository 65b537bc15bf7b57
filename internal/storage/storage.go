// Package storage keeps uploaded images on the local public disk.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 10 << 20

// Directories under the disk root.
const (
	DirLogos    = "logos"
	DirRooms    = "rooms"
	DirProducts = "products"
)

var (
	ErrTooLarge    = errors.New("image exceeds 10MB")
	ErrUnsupported = errors.New("image must be jpeg, jpg or png")
)

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Disk stores files below Root and hands out paths relative to it.
type Disk struct {
	Root string
}

func NewDisk(root string) *Disk { return &Disk{Root: root} }

// Save validates fh as a jpeg/png image and writes it to <Root>/<dir>/<uuid>.<ext>.
// The returned path is relative to Root, e.g. "rooms/<uuid>.png".
func (d *Disk) Save(fh *multipart.FileHeader, dir string) (string, error) {
	if fh.Size > MaxImageBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := allowedExt[ext]
	if !ok {
		return "", ErrUnsupported
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if http.DetectContentType(head[:n]) != want {
		return "", ErrUnsupported
	}

	if err := os.MkdirAll(filepath.Join(d.Root, dir), 0o755); err != nil {
		return "", err
	}
	rel := filepath.ToSlash(filepath.Join(dir, uuid.NewString()+ext))
	dst, err := os.Create(filepath.Join(d.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head[:n]), io.LimitReader(src, MaxImageBytes)))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > MaxImageBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("store %s: %w", fh.Filename, err)
	}
	return rel, nil
}

// Delete removes a stored file.  Empty paths and missing files are ignored.
func (d *Disk) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	clean := filepath.Clean("/" + filepath.FromSlash(rel))
	err := os.Remove(filepath.Join(d.Root, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
