// Copyright 2025 Certen Protocol

package contract

import "encoding/json"

// legacyContract mirrors Contract but with the snake_case field aliases the
// protocol's older clients still send. UnmarshalJSON tries the current form
// first and falls back to the legacy alias only when the current field is
// empty, per the "accept both, emit current form" rule.
type legacyContract struct {
	Contract
	CreatedAtLegacy string `json:"created_at,omitempty"`
	UpdatedAtLegacy string `json:"updated_at,omitempty"`
	ProductIDLegacy string `json:"product_id,omitempty"`
}

// UnmarshalJSON accepts both the legacy snake_case field names and the
// current camelCase/pubKey form; it always emits the current form on output
// because Contract's own json tags have no legacy aliases.
func (c *Contract) UnmarshalJSON(data []byte) error {
	var lc legacyContract
	type alias Contract // avoid infinite recursion into this method
	if err := json.Unmarshal(data, (*alias)(&lc.Contract)); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &struct {
		CreatedAtLegacy *string `json:"created_at"`
		UpdatedAtLegacy *string `json:"updated_at"`
		ProductIDLegacy *string `json:"product_id"`
	}{&lc.CreatedAtLegacy, &lc.UpdatedAtLegacy, &lc.ProductIDLegacy}); err != nil {
		return err
	}

	*c = lc.Contract
	if c.CreatedAt == "" && lc.CreatedAtLegacy != "" {
		c.CreatedAt = lc.CreatedAtLegacy
	}
	if c.UpdatedAt == "" && lc.UpdatedAtLegacy != "" {
		c.UpdatedAt = lc.UpdatedAtLegacy
	}
	if c.ProductID == "" && lc.ProductIDLegacy != "" {
		c.ProductID = lc.ProductIDLegacy
	}
	return nil
}

// UnmarshalJSON accepts the legacy step_id/effect(magic_spell) aliases.
func (s *Step) UnmarshalJSON(data []byte) error {
	type alias Step
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var legacy struct {
		StepIDLegacy      *string `json:"step_id"`
		CompletedAtLegacy *string `json:"completed_at"`
		MagicSpellLegacy  *EffectDescriptor `json:"magic_spell"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	*s = Step(a)
	if s.StepID == "" && legacy.StepIDLegacy != nil {
		s.StepID = *legacy.StepIDLegacy
	}
	if s.CompletedAt == "" && legacy.CompletedAtLegacy != nil {
		s.CompletedAt = *legacy.CompletedAtLegacy
	}
	if s.Effect == nil && legacy.MagicSpellLegacy != nil {
		s.Effect = legacy.MagicSpellLegacy
	}
	return nil
}
