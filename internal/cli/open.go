package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/asyncpool/internal/config"
	"github.com/roach88/asyncpool/internal/metrics"
	"github.com/roach88/asyncpool/internal/pool"
	"github.com/roach88/asyncpool/internal/store"
)

// newFormatter builds the output formatter for cmd.
func (o *RootOptions) newFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openPool opens the configured store and wraps it in a pool. With mustExist,
// a missing database file is a command error instead of being created.
func (o *RootOptions) openPool(mustExist bool, m *metrics.Metrics) (*pool.Pool, *store.Store, error) {
	path := o.cfg.Store.Path
	if mustExist && path != ":memory:" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path), os.ErrNotExist)
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	p, err := pool.New(st, o.cfg.PoolConfig(), pool.WithLogger(o.logger), pool.WithMetrics(m))
	if err != nil {
		st.Close()
		return nil, nil, WrapExitError(ExitCommandError, "invalid pool configuration", err)
	}
	return p, st, nil
}

// errorCode maps pool failures to CLI error codes.
func errorCode(err error) string {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ErrCodeConfig
	}
	if errors.Is(err, os.ErrNotExist) {
		return ErrCodeNotFound
	}
	var perr *pool.Error
	if !errors.As(err, &perr) {
		return ErrCodeGeneric
	}
	switch perr.Code {
	case pool.ErrCodeHashMismatch:
		return ErrCodeHashMismatch
	case pool.ErrCodeCorruptedData, pool.ErrCodeCorruptedHash:
		return ErrCodeCorrupted
	default:
		return ErrCodeStore
	}
}

// fail reports err through f and returns it as an ExitError. Hash mismatches
// are verification failures; everything else is a command error.
func fail(f *OutputFormatter, message string, err error) error {
	code := ExitCommandError
	if pool.IsHashMismatch(err) {
		code = ExitFailure
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	f.Error(errorCode(err), fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(code, message, err)
}
