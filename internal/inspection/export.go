package inspection

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

const (
	FormatGzip = "gzip"
	FormatZstd = "zstd"
)

// Export is a compressed JSON document of an inspection.
type Export struct {
	Format   string
	Filename string
	Data     []byte
}

// Export serializes an inspection, frame tree included, and compresses it.
func (s *Service) Export(id, format string) (*Export, error) {
	in, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatGzip
	}

	raw, err := sonic.Marshal(in.View(true))
	if err != nil {
		return nil, fmt.Errorf("failed to encode inspection: %w", err)
	}

	var buf bytes.Buffer
	switch format {
	case FormatGzip:
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	case FormatZstd:
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(raw); err != nil {
			zw.Close()
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	ext := map[string]string{FormatGzip: ".json.gz", FormatZstd: ".json.zst"}[format]
	return &Export{
		Format:   format,
		Filename: "inspection-" + in.ID + ext,
		Data:     buf.Bytes(),
	}, nil
}
