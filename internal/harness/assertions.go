package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/asyncpool/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes the final pool to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Pool     []string // Final pool labels in priority order
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\nFinal pool:\n")
	for i, label := range e.Pool {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, label)
	}
	return buf.String()
}

// evaluateAssertions checks every scenario assertion against the final pool
// and returns the failure messages.
func (h *Harness) evaluateAssertions(ctx context.Context, final []model.Entry) []string {
	var failures []string
	labels := h.labelsOf(final)
	for _, a := range h.scenario.Assertions {
		if err := h.evaluateAssertion(ctx, a, final, labels); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func (h *Harness) evaluateAssertion(ctx context.Context, a Assertion, final []model.Entry, labels []string) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Pool: labels}
	}

	position := make(map[string]int, len(labels))
	for i, label := range labels {
		position[label] = i
	}

	switch a.Type {
	case AssertPoolSize:
		if len(final) != a.Count {
			return fail(fmt.Sprintf("%d entries", a.Count), fmt.Sprintf("%d entries", len(final)))
		}

	case AssertPoolContains:
		for _, label := range a.Labels {
			if _, ok := position[label]; !ok {
				return fail(fmt.Sprintf("%s stored", label), "not found in pool")
			}
		}

	case AssertPoolExcludes:
		for _, label := range a.Labels {
			if i, ok := position[label]; ok {
				return fail(fmt.Sprintf("%s absent", label), fmt.Sprintf("stored at position %d", i+1))
			}
		}

	case AssertPoolOrder:
		prev := -1
		for _, label := range a.Labels {
			i, ok := position[label]
			if !ok {
				return fail(fmt.Sprintf("priority order %v", a.Labels), fmt.Sprintf("missing %s", label))
			}
			if i <= prev {
				return fail(fmt.Sprintf("priority order %v", a.Labels),
					fmt.Sprintf("%s (pos %d) is not after %s", label, i+1, labels[prev]))
			}
			prev = i
		}

	case AssertExecutable:
		for _, label := range a.Labels {
			i, ok := position[label]
			if !ok {
				return fail(fmt.Sprintf("%s executable", label), "not found in pool")
			}
			if !final[i].Message.CanBeExecuted {
				return fail(fmt.Sprintf("%s executable", label), "trigger pending")
			}
		}

	case AssertHashConsistent:
		if _, err := h.pool.Verify(ctx); err != nil {
			return fail("persisted hash equals recomputed hash", err.Error())
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
