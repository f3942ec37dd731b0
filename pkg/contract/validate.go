// Copyright 2025 Certen Protocol

package contract

import "fmt"

// Validate checks the shape invariants from the data model and returns the
// first violation found, wrapped in ErrValidation. Grounded on
// perisynctechnologies-chaicode-archive's contract.Validate() family: a
// sequential run of guard clauses, first failure wins.
func (c *Contract) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	if len(c.Participants) < 2 {
		return fmt.Errorf("%w: at least 2 participants are required", ErrValidation)
	}
	seen := make(map[string]bool, len(c.Participants))
	for _, p := range c.Participants {
		if p == "" {
			return fmt.Errorf("%w: participant public keys must not be empty", ErrValidation)
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate participant %q", ErrValidation, p)
		}
		seen[p] = true
	}

	if len(c.Steps) < 1 {
		return fmt.Errorf("%w: at least 1 step is required", ErrValidation)
	}
	for _, s := range c.Steps {
		if s.Description == "" {
			return fmt.Errorf("%w: step %q must have a non-empty description", ErrValidation, s.StepID)
		}
	}

	return nil
}
