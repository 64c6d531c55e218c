package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncpool/internal/model"
)

func TestLoadScenario_Testdata(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "trigger_activation.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "trigger_activation", s.Name)
	require.Len(t, s.Messages, 3)
	require.Len(t, s.Steps, 4)

	gated := s.Messages["gated"]
	require.NotNil(t, gated.Trigger)
	assert.Equal(t, "token", gated.Trigger.Contract)
	require.NotNil(t, gated.Trigger.Key)
	assert.Equal(t, "balance", *gated.Trigger.Key)
	assert.Nil(t, s.Messages["any"].Trigger.Key)
	assert.Equal(t, model.Amount(500_000_000), gated.Fee)

	assert.Equal(t, model.NewSlot(1, 2), s.Steps[2].Settle.Slot)
	assert.Equal(t, []string{"gated", "any"}, s.Steps[2].Expect.Triggered)
	assert.Nil(t, s.Steps[2].Expect.Eliminated)
	assert.NotNil(t, s.Steps[0].Expect.Eliminated, "empty list is an expectation")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: minimal
description: "one step"
messages:
  a: {}
steps:
  - settle: { slot: "1:0", emit: [a] }
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestParseScenario_Invalid(t *testing.T) {
	const header = "name: n\ndescription: d\nmessages:\n  a: {}\n"
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "description: d\nsteps:\n  - settle: { slot: \"1:0\" }\n", "name is required"},
		{"missing description", "name: n\nsteps:\n  - settle: { slot: \"1:0\" }\n", "description is required"},
		{"no steps", header, "steps list is required"},
		{"unknown field", header + "step: []\n", "failed to parse YAML"},
		{"empty step", header + "steps:\n  - {}\n", "settle or execute is required"},
		{"both ops", header + "steps:\n  - settle: { slot: \"1:0\" }\n    execute: { slot: \"1:0\", gas: 1 }\n", "exclusive"},
		{"unknown emit label", header + "steps:\n  - settle: { slot: \"1:0\", emit: [b] }\n", "unknown message label"},
		{"emitted twice", header + "steps:\n  - settle: { slot: \"1:0\", emit: [a] }\n  - settle: { slot: \"1:1\", emit: [a] }\n", "already emitted"},
		{"bad ledger kind", header + "steps:\n  - settle:\n      slot: \"1:0\"\n      ledger_changes: [{ contract: c, kind: burn }]\n", "unknown kind"},
		{"update without keys", header + "steps:\n  - settle:\n      slot: \"1:0\"\n      ledger_changes: [{ contract: c, kind: update }]\n", "keys are required"},
		{"set with keys", header + "steps:\n  - settle:\n      slot: \"1:0\"\n      ledger_changes: [{ contract: c, kind: set, keys: [k] }]\n", "keys are only allowed"},
		{"taken on settle", header + "steps:\n  - settle: { slot: \"1:0\" }\n    expect: { taken: [a] }\n", "settle does not support taken"},
		{"eliminated on execute", header + "steps:\n  - execute: { slot: \"1:0\", gas: 1 }\n    expect: { eliminated: [a] }\n", "execute only supports taken"},
		{"unknown expect label", header + "steps:\n  - settle: { slot: \"1:0\" }\n    expect: { eliminated: [z] }\n", "unknown message label"},
		{"bad slot", header + "steps:\n  - settle: { slot: \"one\" }\n", "failed to parse YAML"},
		{"trigger without contract", "name: n\ndescription: d\nmessages:\n  a: { trigger: { key: k } }\nsteps:\n  - settle: { slot: \"1:0\" }\n", "contract is required"},
		{"unknown assertion", header + "steps:\n  - settle: { slot: \"1:0\" }\nassertions:\n  - type: magic\n", "unknown assertion type"},
		{"assertion without labels", header + "steps:\n  - settle: { slot: \"1:0\" }\nassertions:\n  - type: pool_order\n", "labels are required"},
		{"negative count", header + "steps:\n  - settle: { slot: \"1:0\" }\nassertions:\n  - type: pool_size\n    count: -1\n", "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMessageSpec_Defaults(t *testing.T) {
	e := MessageSpec{}.Entry()
	m := e.Message

	assert.Equal(t, model.NewSlot(1, 0), m.EmissionSlot)
	assert.Equal(t, model.NewSlot(1, 0), m.ValidityStart)
	assert.Equal(t, model.NewSlot(11, 0), m.ValidityEnd)
	assert.Equal(t, uint64(1), m.MaxGas)
	assert.True(t, m.CanBeExecuted)
	assert.Equal(t, e.ID, m.ID())
}

func TestMessageSpec_Trigger(t *testing.T) {
	key := "balance"
	e := MessageSpec{Trigger: &TriggerSpec{Contract: "token", Key: &key}}.Entry()

	require.NotNil(t, e.Message.Trigger)
	assert.False(t, e.Message.CanBeExecuted)
	assert.Equal(t, model.SCAddress([]byte("token")), e.Message.Trigger.Address)
	assert.Equal(t, []byte("balance"), e.Message.Trigger.DatastoreKey)
}

func TestScenario_PoolConfig(t *testing.T) {
	s := &Scenario{}
	assert.Equal(t, DefaultConfig(), s.PoolConfig())

	n := uint64(3)
	s.Config = &ConfigOverrides{MaxLength: &n}
	cfg := s.PoolConfig()
	assert.Equal(t, uint64(3), cfg.MaxLength)
	assert.Equal(t, DefaultConfig().ThreadCount, cfg.ThreadCount)
}
