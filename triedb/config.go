package triedb

import (
	"github.com/mattsta/govarint/blockcompress"
	"github.com/mattsta/govarint/internal/options"
)

// Config holds Trie tunables applied through functional options.
type Config struct {
	maxSnapshotSize int
	compression     blockcompress.CompressionType
}

func defaultConfig() *Config {
	return &Config{maxSnapshotSize: maxSnapshotBytes, compression: blockcompress.CompressionNone}
}

// WithMaxSnapshotSize overrides the maximum accepted/produced snapshot size
// in bytes. The wire format's own limit (maxSnapshotBytes) is the default.
func WithMaxSnapshotSize(n int) options.Option[*Config] {
	return options.NoError(func(c *Config) {
		c.maxSnapshotSize = n
	})
}

// WithCompression selects the algorithm SaveSnapshot uses to compress the
// pattern/node/subscriber body before writing it. The default is
// blockcompress.CompressionNone; LoadSnapshot always honors whatever
// compression type the snapshot was written with, regardless of this
// setting.
func WithCompression(t blockcompress.CompressionType) options.Option[*Config] {
	return options.NoError(func(c *Config) {
		c.compression = t
	})
}
