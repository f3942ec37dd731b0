// Copyright 2025 Certen Protocol
//
// Package contract holds the contract data model, its shape validation, and
// the sentinel errors shared across the service. The create/update/sign-step/
// delete operations that drive a contract through its lifecycle live in
// pkg/statemachine.
package contract

// Contract is a record coordinating an ordered workflow among two or more
// cryptographically identified participants.
type Contract struct {
	UUID         string   `json:"uuid"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Participants []string `json:"participants"`
	Steps        []Step   `json:"steps"`
	Creator      string   `json:"creator"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
	Status       string   `json:"status"`

	// ProductID/LocationID are opaque association identifiers carried
	// through unmodified; the core never inspects them.
	ProductID  string `json:"productId,omitempty"`
	LocationID string `json:"locationId,omitempty"`

	// PubKey is the contract's own secp256k1 public key (C2), fixed at
	// first persistence and never rotated.
	PubKey string `json:"pubKey"`

	// RemoteRecordID is the replica's record id in the remote object
	// store (C4), unset when the remote write has never succeeded.
	RemoteRecordID string `json:"remoteRecordId,omitempty"`
}

// Step is one unit of a contract, completed once every participant has
// signed it.
type Step struct {
	StepID      string                    `json:"stepId"`
	Description string                    `json:"description"`
	Order       int                       `json:"order"`
	Effect      *EffectDescriptor         `json:"effect,omitempty"`
	Completed   bool                      `json:"completed"`
	CompletedAt string                    `json:"completedAt,omitempty"`
	Signatures  map[string]*SignatureRecord `json:"signatures"`
}

// SignatureRecord is a single participant's signature over a step's
// canonical message.
type SignatureRecord struct {
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
	SignerKey string `json:"signerKey"`
	Message   string `json:"message"`
	SignedAt  string `json:"signedAt"`
}

// EffectDescriptor is an opaque payload attached to a step, copied and
// emitted on completion; the core never inspects its contents.
type EffectDescriptor struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Summary is the read-only list view returned by GET /contracts.
type Summary struct {
	UUID           string   `json:"uuid"`
	Title          string   `json:"title"`
	Participants    []string `json:"participants"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
	StepsTotal     int      `json:"stepsTotal"`
	StepsCompleted int      `json:"stepsCompleted"`
	RemoteRecordID string   `json:"remoteRecordId,omitempty"`
	PubKey         string   `json:"pubKey"`
}

// ToSummary produces the list view for a contract.
func (c *Contract) ToSummary() Summary {
	completed := 0
	for _, s := range c.Steps {
		if s.Completed {
			completed++
		}
	}
	return Summary{
		UUID:           c.UUID,
		Title:          c.Title,
		Participants:   c.Participants,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		StepsTotal:     len(c.Steps),
		StepsCompleted: completed,
		RemoteRecordID: c.RemoteRecordID,
		PubKey:         c.PubKey,
	}
}
