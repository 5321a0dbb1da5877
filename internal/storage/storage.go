// Package storage resolves an input location to a readable stream.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Stdin is the location that selects standard input.
const Stdin = "-"

// ErrUnsupportedScheme is returned for URIs that need a remote object store.
var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// Open returns a stream for uri: "-" for standard input, a file:// URI or a
// plain local path. Local paths ending in ".gz" are decompressed.
func Open(uri string) (io.ReadCloser, error) {
	if uri == Stdin {
		return io.NopCloser(os.Stdin), nil
	}

	path, err := localPath(uri)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", uri, err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

func localPath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid URI %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: file URI with remote host %q", ErrUnsupportedScheme, u.Host)
	}
	return u.Path, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.file.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
