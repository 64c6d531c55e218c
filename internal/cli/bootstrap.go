package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/asyncpool/internal/bootstrap"
)

// BootstrapResult is the output of the bootstrap command.
type BootstrapResult struct {
	Session    string `json:"session"`
	Parts      int    `json:"parts"`
	Entries    int    `json:"entries"`
	Hash       string `json:"hash"`
	RemoteHash string `json:"remote_hash,omitempty"`
}

// NewBootstrapCommand creates the bootstrap command.
func NewBootstrapCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap <peer-multiaddr>",
		Short: "Replace the local pool with a peer's pool",
		Long: `Discard the local pool and copy a peer's pool part by part over libp2p.
The address must include the peer id (/p2p/...). With bootstrap.verify_hash
set, the final local hash must equal the hash reported by the peer.

Exit codes:
  0 - Pool copied (and verified)
  1 - Hash mismatch
  2 - Command error (unreachable peer, protocol error, etc.)

Examples:
  asyncpool bootstrap /ip4/10.0.0.5/tcp/31245/p2p/12D3KooW... --db ./pool.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(rootOpts, args[0], cmd)
		},
	}
}

func runBootstrap(opts *RootOptions, addr string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return fail(opts.newFormatter(cmd), "setup failed", err)
	}
	f := opts.newFormatter(cmd)

	p, st, err := opts.openPool(false, nil)
	if err != nil {
		return fail(f, "open failed", err)
	}
	defer st.Close()

	h, err := bootstrap.NewHost(nil)
	if err != nil {
		return fail(f, "failed to start host", err)
	}
	defer h.Close()

	client := bootstrap.NewClient(p,
		bootstrap.WithLogger(opts.logger),
		bootstrap.WithMaxFrameSize(opts.cfg.Bootstrap.MaxFrameSize),
		bootstrap.WithHashVerification(opts.cfg.Bootstrap.VerifyHash),
	)
	res, err := client.SyncFrom(cmd.Context(), h, addr)
	if err != nil {
		return fail(f, "bootstrap failed", err)
	}

	out := BootstrapResult{Session: res.Session, Parts: res.Parts, Entries: res.Entries, Hash: res.Hash.String()}
	if res.RemoteHash != nil {
		out.RemoteHash = res.RemoteHash.String()
	}
	return f.Success(out, "bootstrapped %d entries in %d parts, hash %s", res.Entries, res.Parts, res.Hash)
}
