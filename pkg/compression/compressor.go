// Package compression wraps the codecs the warehouse COPY command can read
// back: gzip and zstd.
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Gzip,
//	    Level:     compression.Default,
//	})
//
//	w, err := comp.NewWriter(dst)
//	// write rows to w, then
//	err = w.Close()
//
// Readers pick the codec from the object name with FromExtension.
package compression

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// ParseAlgorithm maps a configuration value to an Algorithm. The empty
// string means None.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", None:
		return None, nil
	case Gzip, "gz":
		return Gzip, nil
	case Zstd, "zst":
		return Zstd, nil
	default:
		return "", fmt.Errorf("unsupported compression algorithm: %s", s)
	}
}

// Extension returns the file suffix for the algorithm, including the dot.
func (a Algorithm) Extension() string {
	switch a {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	default:
		return ""
	}
}

// CopyOption returns the COPY keyword that makes the warehouse decompress
// files written with the algorithm.
func (a Algorithm) CopyOption() string {
	switch a {
	case Gzip:
		return "GZIP"
	case Zstd:
		return "ZSTD"
	default:
		return ""
	}
}

// FromExtension infers the algorithm from an object name.
func FromExtension(name string) Algorithm {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return Gzip
	case strings.HasSuffix(name, ".zst"):
		return Zstd
	default:
		return None
	}
}

// Compressor builds streaming codecs for one algorithm and level.
// All implementations are safe for concurrent use.
type Compressor interface {
	// NewWriter returns a writer compressing into dst. Close flushes the
	// stream but does not close dst.
	NewWriter(dst io.Writer) (io.WriteCloser, error)

	// NewReader returns a reader decompressing src.
	NewReader(src io.Reader) (io.ReadCloser, error)

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// NewCompressor creates a compressor for config. A nil config means no
// compression.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		return noneCompressor{}, nil
	}

	switch config.Algorithm {
	case None, "":
		return noneCompressor{}, nil
	case Gzip:
		return newGzipCompressor(config), nil
	case Zstd:
		return newZstdCompressor(config), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
}

// NewReader wraps src with the decompressor for algo.
func NewReader(algo Algorithm, src io.Reader) (io.ReadCloser, error) {
	comp, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
	if err != nil {
		return nil, err
	}
	return comp.NewReader(src)
}

type noneCompressor struct{}

func (noneCompressor) Algorithm() Algorithm { return None }

func (noneCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{dst}, nil
}

func (noneCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(src), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type gzipCompressor struct {
	level int
}

func newGzipCompressor(config *Config) *gzipCompressor {
	return &gzipCompressor{level: mapGzipLevel(config.Level)}
}

func (gc *gzipCompressor) Algorithm() Algorithm { return Gzip }

func (gc *gzipCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(dst, gc.level)
}

func (gc *gzipCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}

type zstdCompressor struct {
	level zstd.EncoderLevel
}

func newZstdCompressor(config *Config) *zstdCompressor {
	return &zstdCompressor{level: mapZstdLevel(config.Level)}
}

func (zc *zstdCompressor) Algorithm() Algorithm { return Zstd }

func (zc *zstdCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zc.level))
}

func (zc *zstdCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
