package api

import (
	"time"

	"github.com/samcharles93/cumscan/internal/harness"
)

// ScanRequest is the body of POST /v1/scans. Either Inputs or NumVal/MaxVal
// describe the local values; unset fields take the CLI defaults. Variant
// ("atomic" or "plain") may replace UseAtomic but not accompany it.
type ScanRequest struct {
	NumVal    *int     `json:"num_val,omitempty"`
	MaxVal    *int     `json:"max_val,omitempty"`
	UseAtomic *bool    `json:"use_atomic,omitempty"`
	Variant   string   `json:"variant,omitempty"`
	Seed      uint64   `json:"seed,omitempty"`
	Inputs    []uint32 `json:"inputs,omitempty"`
}

// ScanSummary is the list view of a stored report.
type ScanSummary struct {
	ID        string    `json:"id"`
	Variant   string    `json:"variant"`
	NumVal    int       `json:"num_val"`
	Pass      bool      `json:"pass"`
	StartedAt time.Time `json:"started_at"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func summarize(rep *harness.Report) ScanSummary {
	return ScanSummary{
		ID:        rep.ID.String(),
		Variant:   rep.Variant,
		NumVal:    rep.NumVal,
		Pass:      rep.Pass,
		StartedAt: rep.StartedAt,
	}
}
