// Package avroreader reads records from an Avro object container file.
package avroreader

import (
	"errors"
	"fmt"
	"io"

	"github.com/CAIDA/corsavro-ft2ascii/internal/storage"

	"github.com/linkedin/goavro/v2"
)

// ErrNotRecord is returned when the container holds datums that are not Avro
// records.
var ErrNotRecord = errors.New("datum is not a record")

// Reader yields the records of one container file in file order.
type Reader struct {
	ocf    *goavro.OCFReader
	closer io.Closer
	count  uint64
}

// Open resolves uri through the storage layer and reads its container header.
func Open(uri string) (*Reader, error) {
	rc, err := storage.Open(uri)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to read avro container %s: %w", uri, err)
	}
	r.closer = rc
	return r, nil
}

// NewReader reads a container from an already open stream. Close does not
// close r.
func NewReader(r io.Reader) (*Reader, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{ocf: ocf}, nil
}

// Next returns the next record, or io.EOF once the container is exhausted.
func (r *Reader) Next() (map[string]interface{}, error) {
	if !r.ocf.Scan() {
		if err := r.ocf.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan avro block: %w", err)
		}
		return nil, io.EOF
	}

	datum, err := r.ocf.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to decode avro datum %d: %w", r.count, err)
	}
	r.count++

	rec, ok := datum.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: datum %d is %T", ErrNotRecord, r.count-1, datum)
	}
	return rec, nil
}

// Schema returns the writer schema stored in the container header.
func (r *Reader) Schema() string {
	return r.ocf.Codec().Schema()
}

// Count returns the number of datums read so far.
func (r *Reader) Count() uint64 {
	return r.count
}

// Close releases the underlying stream when the Reader opened it.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
