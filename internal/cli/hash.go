package cli

import (
	"github.com/spf13/cobra"
)

// HashResult is the output of the hash and verify commands.
type HashResult struct {
	Hash    string `json:"hash"`
	Entries int    `json:"entries"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Print the persisted integrity hash",
		Long: `Print the integrity hash persisted with the pool and the number of
stored messages. The hash is read, not recomputed; use verify to check it.

Examples:
  asyncpool hash --db ./pool.db
  asyncpool hash --config node.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(rootOpts, cmd)
		},
	}
}

func runHash(opts *RootOptions, cmd *cobra.Command) error {
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
	h, err := p.Hash(ctx)
	if err != nil {
		return fail(f, "read hash failed", err)
	}
	n, err := p.Len(ctx)
	if err != nil {
		return fail(f, "count failed", err)
	}

	return f.Success(HashResult{Hash: h.String(), Entries: n}, "%s (%d entries)", h, n)
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Recompute the integrity hash and compare it with the persisted one",
		Long: `Recompute the XOR of every stored entry hash and compare it with the
persisted integrity hash.

Exit codes:
  0 - Hash verified
  1 - Hash mismatch
  2 - Command error (database not found, corrupted data, etc.)

Examples:
  asyncpool verify --db ./pool.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
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
		return fail(f, "verification failed", err)
	}
	n, err := p.Len(ctx)
	if err != nil {
		return fail(f, "count failed", err)
	}

	return f.Success(HashResult{Hash: h.String(), Entries: n}, "✓ hash verified: %s (%d entries)", h, n)
}
