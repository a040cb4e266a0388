package store

// SnapshotEntry is one persisted setting inside a snapshot.
type SnapshotEntry struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Snapshot is a container's full setting state keyed by setting key.
// Backups persist snapshots; the differ compares them.
type Snapshot map[string]SnapshotEntry
