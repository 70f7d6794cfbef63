package storage

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/uploads/"

// Writer persists accepted upload files under a single root directory
// and exposes each as a relative URL path.
type Writer struct {
	root   string
	logger *logrus.Logger
}

func NewWriter(root string, logger *logrus.Logger) *Writer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Writer{root: root, logger: logger}
}

// EnsureRoot creates the upload directory. Called once during startup
// so concurrent early requests never race directory creation.
func (w *Writer) EnsureRoot() error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory %s: %w", w.root, err)
	}
	return nil
}

// Root returns the upload directory path.
func (w *Writer) Root() string {
	return w.root
}

// Save writes the file contents under a generated unique name and
// returns its URL path. The name combines the field name, the current
// epoch millis and a random 9-digit suffix; collisions are treated as
// negligible and there is no retry loop. A write that fails mid-copy
// removes the partial file before returning.
func (w *Writer) Save(field, originalName string, src io.Reader) (string, error) {
	name := fmt.Sprintf("%s-%d-%09d%s",
		field, time.Now().UnixMilli(), rand.IntN(1_000_000_000), filepath.Ext(originalName))
	path := filepath.Join(w.root, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		if removeErr := os.Remove(path); removeErr != nil {
			w.logger.WithError(removeErr).WithField("path", path).Error("Failed to clean up partial file")
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return URLPrefix + name, nil
}

// Remove deletes a stored file by its URL path. Best-effort; callers
// log the returned error instead of escalating it.
func (w *Writer) Remove(url string) error {
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid upload URL: %s", url)
	}
	return os.Remove(filepath.Join(w.root, name))
}
