package storage

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"marketplace-chat/config"

	"github.com/pkg/errors"
)

var ErrBadFilename = errors.New("invalid image filename")

var filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Root returns the confined upload directory for chat images.
func Root() string {
	root := config.Config("CHAT_UPLOAD_DIR")
	if root == "" {
		root = "uploads/chat"
	}
	return root
}

// ValidFilename accepts only the strict charset uploads are stored under.
// Anything else (separators, traversal sequences, empty names) is rejected
// before touching the filesystem.
func ValidFilename(name string) bool {
	return name != "" && name != "." && name != ".." && filenamePattern.MatchString(name)
}

// Resolve maps a stored filename to an absolute path under the upload root,
// rejecting any name whose resolution would escape it.
func Resolve(name string) (string, error) {
	if !ValidFilename(name) {
		return "", ErrBadFilename
	}

	root, err := filepath.Abs(Root())
	if err != nil {
		return "", errors.Wrap(err, "storage.Resolve.Abs")
	}

	path := filepath.Clean(filepath.Join(root, name))
	if !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", ErrBadFilename
	}
	return path, nil
}

// RandomName generates a high-entropy filename so concurrent uploads never
// collide and stored names stay unguessable.
func RandomName(ext string) (string, error) {
	buf := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", errors.Wrap(err, "storage.RandomName")
	}

	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" || !filenamePattern.MatchString(ext) {
		ext = "bin"
	}
	return hex.EncodeToString(buf) + "." + ext, nil
}

// Save writes an uploaded image under a fresh random name inside the root
// and returns the stored filename.
func Save(src io.Reader, ext string) (string, error) {
	name, err := RandomName(ext)
	if err != nil {
		return "", err
	}

	path, err := Resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", errors.Wrap(err, "storage.Save.MkdirAll")
	}

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", errors.Wrap(err, "storage.Save.Open")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", errors.Wrap(err, "storage.Save.Copy")
	}
	return name, nil
}
