package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/asyncpool/internal/model"
)

// Scenario is a sequence of settle and execute steps over labelled messages.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config overrides the default pool configuration.
	Config *ConfigOverrides `yaml:"config,omitempty"`

	// Messages maps labels to message definitions.
	Messages map[string]MessageSpec `yaml:"messages"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the final pool.
	Assertions []Assertion `yaml:"assertions"`
}

// ConfigOverrides replaces selected pool.Config fields.
type ConfigOverrides struct {
	ThreadCount       *uint8  `yaml:"thread_count,omitempty"`
	MaxLength         *uint64 `yaml:"max_length,omitempty"`
	BootstrapPartSize *uint64 `yaml:"bootstrap_part_size,omitempty"`
}

// MessageSpec describes a message. Unset fields take the testutil.Message defaults.
type MessageSpec struct {
	Emitted     *model.Slot  `yaml:"emitted,omitempty"`
	Index       uint64       `yaml:"index,omitempty"`
	Fee         model.Amount `yaml:"fee,omitempty"`
	Coins       model.Amount `yaml:"coins,omitempty"`
	Gas         *uint64      `yaml:"gas,omitempty"`
	ValidFrom   *model.Slot  `yaml:"valid_from,omitempty"`
	ValidUntil  *model.Slot  `yaml:"valid_until,omitempty"`
	Function    string       `yaml:"function,omitempty"`
	Destination string       `yaml:"destination,omitempty"`
	Trigger     *TriggerSpec `yaml:"trigger,omitempty"`
}

// TriggerSpec gates a message on a change of a contract, optionally of one
// datastore key.
type TriggerSpec struct {
	Contract string  `yaml:"contract"`
	Key      *string `yaml:"key,omitempty"`
}

// Step is exactly one of Settle or Execute, with optional expectations.
type Step struct {
	Settle  *SettleStep   `yaml:"settle,omitempty"`
	Execute *ExecuteStep  `yaml:"execute,omitempty"`
	Expect  *ExpectClause `yaml:"expect,omitempty"`
}

// SettleStep calls SettleSlot.
type SettleStep struct {
	Slot          model.Slot         `yaml:"slot"`
	Emit          []string           `yaml:"emit,omitempty"`
	LedgerChanges []LedgerChangeSpec `yaml:"ledger_changes,omitempty"`
}

// LedgerChangeSpec is one ledger mutation of a contract.
type LedgerChangeSpec struct {
	Contract string   `yaml:"contract"`
	Kind     string   `yaml:"kind"`
	Keys     []string `yaml:"keys,omitempty"`
}

// Ledger change kinds.
const (
	LedgerSet    = "set"
	LedgerDelete = "delete"
	LedgerTouch  = "touch"
	LedgerUpdate = "update"
)

// ExecuteStep calls TakeBatchToExecute.
type ExecuteStep struct {
	Slot model.Slot `yaml:"slot"`
	Gas  uint64     `yaml:"gas"`
}

// ExpectClause lists the labels a step must return, in order. A nil list is
// not checked; an empty list requires an empty result.
type ExpectClause struct {
	Eliminated []string `yaml:"eliminated,omitempty"`
	Triggered  []string `yaml:"triggered,omitempty"`
	Taken      []string `yaml:"taken,omitempty"`
}

// Assertion validates the final pool.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Labels are used by pool_contains, pool_excludes, pool_order and executable.
	Labels []string `yaml:"labels,omitempty"`

	// Count is used by pool_size.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertPoolSize       = "pool_size"
	AssertPoolContains   = "pool_contains"
	AssertPoolExcludes   = "pool_excludes"
	AssertPoolOrder      = "pool_order"
	AssertExecutable     = "executable"
	AssertHashConsistent = "hash_consistent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or references undeclared labels.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and labels resolve.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for label, m := range s.Messages {
		if m.Trigger != nil && m.Trigger.Contract == "" {
			return fmt.Errorf("messages.%s.trigger: contract is required", label)
		}
	}

	emitted := make(map[string]int)
	for i, step := range s.Steps {
		switch {
		case step.Settle != nil && step.Execute != nil:
			return fmt.Errorf("steps[%d]: settle and execute are exclusive", i)
		case step.Settle != nil:
			for _, label := range step.Settle.Emit {
				if err := s.checkLabel(label); err != nil {
					return fmt.Errorf("steps[%d].settle.emit: %w", i, err)
				}
				if prev, ok := emitted[label]; ok {
					return fmt.Errorf("steps[%d].settle.emit: %q already emitted at step %d", i, label, prev)
				}
				emitted[label] = i
			}
			for j, lc := range step.Settle.LedgerChanges {
				if err := validateLedgerChange(lc); err != nil {
					return fmt.Errorf("steps[%d].settle.ledger_changes[%d]: %w", i, j, err)
				}
			}
		case step.Execute != nil:
			if step.Expect != nil && (step.Expect.Eliminated != nil || step.Expect.Triggered != nil) {
				return fmt.Errorf("steps[%d].expect: execute only supports taken", i)
			}
		default:
			return fmt.Errorf("steps[%d]: settle or execute is required", i)
		}
		if step.Settle != nil && step.Expect != nil && step.Expect.Taken != nil {
			return fmt.Errorf("steps[%d].expect: settle does not support taken", i)
		}
		if step.Expect != nil {
			for _, labels := range [][]string{step.Expect.Eliminated, step.Expect.Triggered, step.Expect.Taken} {
				for _, label := range labels {
					if err := s.checkLabel(label); err != nil {
						return fmt.Errorf("steps[%d].expect: %w", i, err)
					}
				}
			}
		}
	}

	for i, a := range s.Assertions {
		if err := s.validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateLedgerChange(lc LedgerChangeSpec) error {
	if lc.Contract == "" {
		return fmt.Errorf("contract is required")
	}
	switch lc.Kind {
	case LedgerSet, LedgerDelete, LedgerTouch:
		if len(lc.Keys) != 0 {
			return fmt.Errorf("keys are only allowed for kind %q", LedgerUpdate)
		}
	case LedgerUpdate:
		if len(lc.Keys) == 0 {
			return fmt.Errorf("keys are required for kind %q", LedgerUpdate)
		}
	default:
		return fmt.Errorf("unknown kind %q", lc.Kind)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func (s *Scenario) validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertPoolSize:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pool_size", index)
		}
	case AssertPoolContains, AssertPoolExcludes, AssertPoolOrder, AssertExecutable:
		if len(a.Labels) == 0 {
			return fmt.Errorf("assertions[%d]: labels are required for %s", index, a.Type)
		}
		for _, label := range a.Labels {
			if err := s.checkLabel(label); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertHashConsistent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func (s *Scenario) checkLabel(label string) error {
	if _, ok := s.Messages[label]; !ok {
		return fmt.Errorf("unknown message label %q", label)
	}
	return nil
}
