package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/asyncpool/internal/pool"
)

// SnapshotResult is the output of the dump and load commands.
type SnapshotResult struct {
	File    string `json:"file"`
	Entries int    `json:"entries"`
	Bytes   int    `json:"bytes"`
	Hash    string `json:"hash"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Write the whole pool to a snapshot file",
		Long: `Write every stored entry, in priority order, to a snapshot file using
the bundle encoding shared with bootstrap parts.

Examples:
  asyncpool dump pool.snap --db ./pool.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, args[0], cmd)
		},
	}
}

func runDump(opts *RootOptions, file string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return fail(opts.newFormatter(cmd), "setup failed", err)
	}
	f := opts.newFormatter(cmd)

	p, st, err := opts.openPool(true, nil)
	if err != nil {
		return fail(f, "open failed", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	h, err := p.Verify(ctx)
	if err != nil {
		return fail(f, "refusing to dump", err)
	}
	data, err := p.EncodeSnapshot(ctx)
	if err != nil {
		return fail(f, "encode failed", err)
	}
	n, err := p.Len(ctx)
	if err != nil {
		return fail(f, "count failed", err)
	}

	if err := os.WriteFile(file, data, 0o644); err != nil {
		f.Error(ErrCodeWriteFailed, fmt.Sprintf("failed to write %s: %v", file, err), nil)
		return WrapExitError(ExitCommandError, "write failed", err)
	}

	res := SnapshotResult{File: file, Entries: n, Bytes: len(data), Hash: h.String()}
	return f.Success(res, "dumped %d entries (%d bytes) to %s, hash %s", n, len(data), file, h)
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Replace the pool with the content of a snapshot file",
		Long: `Discard the local pool and rebuild it from a snapshot file written by
dump. The snapshot is fully decoded and bounded by max_length before the
store is touched.

Examples:
  asyncpool load pool.snap --db ./pool.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args[0], cmd)
		},
	}
}

func runLoad(opts *RootOptions, file string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return fail(opts.newFormatter(cmd), "setup failed", err)
	}
	f := opts.newFormatter(cmd)

	data, err := os.ReadFile(file)
	if err != nil {
		return fail(f, "read snapshot failed", err)
	}

	p, st, err := opts.openPool(false, nil)
	if err != nil {
		return fail(f, "open failed", err)
	}
	defer st.Close()

	entries, err := p.DecodeSnapshot(data)
	if err != nil {
		return fail(f, "decode snapshot failed", err)
	}

	ctx := cmd.Context()
	p, err = pool.FromSnapshot(ctx, st, opts.cfg.PoolConfig(), entries, pool.WithLogger(opts.logger))
	if err != nil {
		return fail(f, "load failed", err)
	}
	h, err := p.Hash(ctx)
	if err != nil {
		return fail(f, "read hash failed", err)
	}

	res := SnapshotResult{File: file, Entries: len(entries), Bytes: len(data), Hash: h.String()}
	return f.Success(res, "loaded %d entries from %s, hash %s", len(entries), file, h)
}
