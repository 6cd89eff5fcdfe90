package models

// AskRequest for POST /api/v1/ask. KlaviyoIDs is the tenant scope every
// generated query is bound to; the caller's auth layer is responsible for
// the ids being ones the user may see.
type AskRequest struct {
	Question   string   `json:"question"`
	KlaviyoIDs []string `json:"klaviyo_ids"`

	// DryRun stops after generation and validation without touching the
	// warehouse.
	DryRun bool `json:"dry_run"`

	// Analyze requests a model-written analysis of the result rows.
	Analyze bool `json:"analyze"`

	// Business context for analysis; all optional.
	StoreNames      []string `json:"store_names,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	Vertical        string   `json:"vertical,omitempty"`
	BusinessGoals   string   `json:"business_goals,omitempty"`
	CurrentStrategy string   `json:"current_strategy,omitempty"`
	Constraints     string   `json:"constraints,omitempty"`
	UserExpertise   string   `json:"user_expertise,omitempty"`

	TimeoutSec int `json:"timeout_sec"`
}

func (r *AskRequest) SetDefaults() {
	if r.TimeoutSec == 0 {
		r.TimeoutSec = 120
	}
	if r.TimeoutSec < 10 {
		r.TimeoutSec = 10
	}
	if r.TimeoutSec > 600 {
		r.TimeoutSec = 600
	}
}
