package bootstrap

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/metrics"
)

// SessionIDGenerator names bootstrap sessions in logs.
// Implemented by UUIDv7Generator (production) and testutil.FixedSessionGenerator (tests).
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// options are shared by Server and Client.
type options struct {
	logger   *zap.Logger
	metrics  *metrics.Metrics
	sessions SessionIDGenerator
	maxFrame uint64
	verify   bool
}

// Option configures a Server or Client.
type Option func(*options)

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the collectors counting streamed parts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSessionIDs sets the session id generator. Default: UUIDv7Generator.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.sessions = g
		}
	}
}

// WithMaxFrameSize bounds each frame. Default: DefaultMaxFrameSize.
func WithMaxFrameSize(n uint64) Option {
	return func(o *options) {
		o.maxFrame = n
	}
}

// WithHashVerification makes the client compare its final pool hash with the
// hash sent by the server. Ignored by Server.
func WithHashVerification(verify bool) Option {
	return func(o *options) {
		o.verify = verify
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		sessions: UUIDv7Generator{},
		maxFrame: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
