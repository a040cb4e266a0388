// Package differ compares container snapshots: what a run actually
// changed, or how far a container has drifted since its last backup.
package differ

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hardenctl/hardenctl/internal/store"
	"github.com/wI2L/jsondiff"
)

// ChangeType indicates what kind of difference was detected
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeUpdated ChangeType = "updated"
)

// SettingChange is the difference for a single setting key
type SettingChange struct {
	Key      string         `json:"key"`
	Type     ChangeType     `json:"type"`
	Patches  jsondiff.Patch `json:"patches,omitempty"`
	Summary  string         `json:"summary"`
	OldValue string         `json:"oldValue,omitempty"`
	NewValue string         `json:"newValue,omitempty"`
}

// Result of a snapshot comparison
type Result struct {
	HasChanges bool            `json:"hasChanges"`
	Changes    []SettingChange `json:"changes"`
}

// Compare computes the per-key difference between two snapshots
// (typically a backup and the current container state). Changes are
// sorted by key for stable output.
func Compare(before, after store.Snapshot) (*Result, error) {
	result := &Result{Changes: []SettingChange{}}

	keys := map[string]bool{}
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, key := range sorted {
		old, hadOld := before[key]
		cur, hasCur := after[key]

		switch {
		case !hadOld:
			result.Changes = append(result.Changes, SettingChange{
				Key:      key,
				Type:     ChangeAdded,
				Summary:  fmt.Sprintf("added %s = %s", cur.Name, cur.Value),
				NewValue: cur.Value,
			})
		case !hasCur:
			result.Changes = append(result.Changes, SettingChange{
				Key:      key,
				Type:     ChangeRemoved,
				Summary:  fmt.Sprintf("removed %s (was %s)", old.Name, old.Value),
				OldValue: old.Value,
			})
		default:
			patch, err := jsondiff.Compare(old, cur)
			if err != nil {
				return nil, fmt.Errorf("failed to diff setting %q: %w", key, err)
			}
			if len(patch) == 0 {
				continue
			}
			result.Changes = append(result.Changes, SettingChange{
				Key:      key,
				Type:     ChangeUpdated,
				Patches:  patch,
				Summary:  translatePatch(old, cur, patch),
				OldValue: old.Value,
				NewValue: cur.Value,
			})
		}
	}

	result.HasChanges = len(result.Changes) > 0
	return result, nil
}

// translatePatch renders JSON patch operations for humans.
func translatePatch(old, cur store.SnapshotEntry, patch jsondiff.Patch) string {
	var parts []string
	for _, op := range patch {
		field := strings.TrimPrefix(op.Path, "/")
		newVal, _ := json.Marshal(op.Value)
		parts = append(parts, fmt.Sprintf("%s changed to %s", field, newVal))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s changed", cur.Name)
	}
	return fmt.Sprintf("%s: %s", cur.Name, strings.Join(parts, ", "))
}
