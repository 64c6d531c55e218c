package pool

import (
	"fmt"

	"github.com/roach88/asyncpool/internal/model"
)

// Config bounds the pool and its encodings.
type Config struct {
	// ThreadCount is the number of threads per period; slot threads must be below it.
	ThreadCount uint8

	// MaxLength is the maximum number of stored messages after settlement.
	MaxLength uint64

	// MaxMessageData bounds the call parameter payload of a message.
	MaxMessageData uint64

	// MaxKeyLength bounds the trigger datastore key.
	MaxKeyLength uint32

	// BootstrapPartSize is the number of entries per bootstrap chunk.
	BootstrapPartSize uint64
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.ThreadCount == 0 {
		return fmt.Errorf("pool config: thread_count must be positive")
	}
	if c.BootstrapPartSize == 0 {
		return fmt.Errorf("pool config: bootstrap_part_size must be positive")
	}
	return nil
}

// Codec returns the decoder bounded by this configuration.
func (c Config) Codec() model.Codec {
	return model.Codec{
		ThreadCount:    c.ThreadCount,
		MaxMessageData: c.MaxMessageData,
		MaxKeyLength:   c.MaxKeyLength,
	}
}
