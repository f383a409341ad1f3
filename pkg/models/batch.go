package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// BatchSchemaVersion is the wire schema accepted by this build.
const BatchSchemaVersion = "v1"

// OperationBatch is an ordered sequence of operations applied atomically.
// Operations are applied left-to-right against the evolving working copy, so
// a batch may add a node and connect to it in the same transaction.
type OperationBatch struct {
	SchemaVersion string      `json:"version" validate:"required"`
	Ops           []Operation `json:"ops"     validate:"required,min=1"`
}

// Validate checks the schema version and the shape of every operation.
func (b *OperationBatch) Validate() error {
	if b.SchemaVersion != BatchSchemaVersion {
		return fmt.Errorf("%w: unsupported batch schema version %q", ErrMalformedOp, b.SchemaVersion)
	}

	if len(b.Ops) == 0 {
		return fmt.Errorf("%w: batch has no operations", ErrMalformedOp)
	}

	for i, op := range b.Ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}

	return nil
}

// CountKind returns how many operations of the given kind the batch holds.
func (b *OperationBatch) CountKind(kind OpKind) int {
	count := 0

	for _, op := range b.Ops {
		if op.Kind == kind {
			count++
		}
	}

	return count
}

// Kinds returns the sorted set of operation kinds present in the batch.
func (b *OperationBatch) Kinds() []string {
	seen := make(map[OpKind]struct{}, len(b.Ops))
	for _, op := range b.Ops {
		seen[op.Kind] = struct{}{}
	}

	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, string(kind))
	}

	sort.Strings(kinds)

	return kinds
}

// DiffHash returns the hex sha256 of the batch's canonical JSON encoding.
// Audit events carry it so a batch can be correlated without replaying its
// content through the audit channel.
func (b *OperationBatch) DiffHash() string {
	payload, err := json.Marshal(b)
	if err != nil {
		// Batches are plain data; marshalling only fails for values that
		// cannot appear after Validate.
		return ""
	}

	sum := sha256.Sum256(payload)

	return hex.EncodeToString(sum[:])
}
