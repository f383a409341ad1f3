package models

import "time"

// HistoryEntry records one successfully applied batch together with the
// inverse batch that restores the pre-apply snapshot.
type HistoryEntry struct {
	Batch       *OperationBatch `json:"batch"`
	Inverse     *OperationBatch `json:"inverse"`
	VersionFrom int64           `json:"version_from"`
	VersionTo   int64           `json:"version_to"`
	AppliedAt   time.Time       `json:"applied_at"`
}
