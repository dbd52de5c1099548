package artifact

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// PackedExt is the file extension of zstd-compressed artifacts.
const PackedExt = ".zst"

// IsPacked reports whether path names a compressed artifact.
func IsPacked(path string) bool {
	return strings.HasSuffix(path, PackedExt)
}

// Pack writes a zstd-compressed copy of the artifact at path next to it and
// returns the new file's path. The copy appears atomically; a partially
// written archive is never visible under the final name.
func Pack(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer src.Close()

	dst := path + PackedExt
	err = writeAtomic(dst, func(w io.Writer) error {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		if _, err := io.Copy(enc, src); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return "", fmt.Errorf("failed to pack artifact %s: %w", path, err)
	}
	return dst, nil
}

// Open opens an artifact for reading, decompressing it when it was packed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !IsPacked(path) {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read compressed artifact %s: %w", path, err)
	}
	return &packedReader{Decoder: dec, file: f}, nil
}

type packedReader struct {
	*zstd.Decoder
	file *os.File
}

func (r *packedReader) Close() error {
	r.Decoder.Close()
	return r.file.Close()
}
