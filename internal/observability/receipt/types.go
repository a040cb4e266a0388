// Package receipt provides stable evidence artifacts for
// audit/compliance. A receipt summarizes one CLI invocation: what
// catalog ran against which container, under which flags, and what
// landed.
package receipt

// ReceiptSchemaVersion current
const ReceiptSchemaVersion = "1.0"

// Receipt structure
type Receipt struct {
	SchemaVersion string        `json:"schema_version"`
	OpID          string        `json:"op_id"`
	TsStart       string        `json:"ts_start"`
	TsEnd         string        `json:"ts_end"`
	Command       string        `json:"command"`
	Args          []string      `json:"args"`
	ArgsRedacted  bool          `json:"args_redacted,omitempty"` // true if any args were sanitized
	Result        Result        `json:"result"`
	Catalog       *CatalogRef   `json:"catalog,omitempty"`
	Apply         *ApplySummary `json:"apply,omitempty"`
}

// Result status
type Result struct {
	Status string `json:"status"` // "success" or "fail"
	Error  string `json:"error,omitempty"`
}

// CatalogRef detail
type CatalogRef struct {
	ID     string `json:"id"`
	Source string `json:"source"` // preset name, file path, or oci reference
	SHA256 string `json:"sha256,omitempty"`
}

// ApplySummary detail
type ApplySummary struct {
	ContainerID   string          `json:"container_id"`
	TargetScope   string          `json:"target_scope,omitempty"`
	BackupID      string          `json:"backup_id,omitempty"`
	BackupWarning string          `json:"backup_warning,omitempty"`
	DryRun        bool            `json:"dry_run,omitempty"`
	Flags         map[string]bool `json:"flags,omitempty"`
	Attempted     int             `json:"attempted"`
	Applied       int             `json:"applied"`
	Skipped       int             `json:"skipped"`
	Failed        int             `json:"failed"`
	FailedNames   []string        `json:"failed_names,omitempty"`
}
