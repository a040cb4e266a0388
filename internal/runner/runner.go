// Package runner orchestrates one apply run: resolve the container,
// optionally back it up, apply the catalog's applicable settings in
// order, and assemble the report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hardenctl/hardenctl/internal/catalog"
	"github.com/hardenctl/hardenctl/internal/models"
	"github.com/hardenctl/hardenctl/internal/observability/logging"
	"github.com/hardenctl/hardenctl/internal/store"
)

// State of a run. Transitions are strictly forward:
// Init → ContainerReady → (BackedUp | BackupSkipped) → Applying →
// Reporting → Done, with Aborted terminal on fatal errors.
type State string

const (
	StateInit           State = "init"
	StateContainerReady State = "container_ready"
	StateBackedUp       State = "backed_up"
	StateBackupSkipped  State = "backup_skipped"
	StateApplying       State = "applying"
	StateReporting      State = "reporting"
	StateDone           State = "done"
	StateAborted        State = "aborted"
)

// ErrAborted wraps every fatal run error. A run that aborts produces no
// report and applies no settings.
var ErrAborted = errors.New("run aborted")

// Options for one run. The container id is required; everything else
// has usable zero values.
type Options struct {
	ContainerID string
	Description string // used only when the container is created
	TargetScope string // optional; linked idempotently when set

	Backup            bool
	BackupDestination string
	StrictBackup      bool // escalate a backup failure to fatal

	// DryRun records what would be applied without touching the store.
	DryRun bool
}

// Runner drives a Store through a catalog.
type Runner struct {
	store store.Store
}

// New runner over the given store.
func New(st store.Store) *Runner {
	return &Runner{store: st}
}

// Run executes the catalog against the container under the given
// context flags.
//
// Fatal errors (invalid input, store unreachable, permission denied,
// and backup failure under StrictBackup) return a nil report wrapped in
// ErrAborted; no setting has been applied when Run aborts. Individual
// setting rejections never abort: each is recorded in the report's
// Failed list and the run reaches Done.
func (r *Runner) Run(ctx context.Context, cat *catalog.Catalog, rc models.RunContext, opts Options) (*models.ApplyReport, error) {
	log := logging.From(ctx)

	state := StateInit
	if cat == nil {
		return nil, r.abort(log, state, fmt.Errorf("%w: %w", ErrAborted, catalog.ErrInvalidCatalog))
	}
	if opts.ContainerID == "" {
		return nil, r.abort(log, state, fmt.Errorf("%w: container id is required", ErrAborted))
	}

	report := &models.ApplyReport{
		ContainerID: opts.ContainerID,
		CatalogID:   cat.ID(),
		TargetScope: opts.TargetScope,
		DryRun:      opts.DryRun,
		Started:     time.Now().UTC(),
		Applied:     []models.AppliedSetting{},
		Skipped:     []models.SkippedSetting{},
		Failed:      []models.FailedSetting{},
	}

	// Container resolution and backup happen at most once per run, and
	// strictly before any setting is applied.
	if !opts.DryRun {
		if _, err := r.store.EnsureContainer(ctx, opts.ContainerID, opts.Description); err != nil {
			return nil, r.abort(log, state, fmt.Errorf("%w: %w", ErrAborted, err))
		}
		if opts.TargetScope != "" {
			if err := r.store.LinkContainer(ctx, opts.ContainerID, opts.TargetScope); err != nil {
				return nil, r.abort(log, state, fmt.Errorf("%w: %w", ErrAborted, err))
			}
		}
	}
	state = r.transition(log, state, StateContainerReady)

	switch {
	case !opts.Backup || opts.DryRun:
		state = r.transition(log, state, StateBackupSkipped)
	default:
		h, err := r.store.BackupContainer(ctx, opts.ContainerID, opts.BackupDestination)
		if err != nil {
			if opts.StrictBackup {
				return nil, r.abort(log, state, fmt.Errorf("%w: %w", ErrAborted, err))
			}
			// Recoverable: note the warning and keep going.
			report.BackupWarning = err.Error()
			log.Warn("runner", "backup failed, continuing", "container", opts.ContainerID, "error", err.Error())
			state = r.transition(log, state, StateBackupSkipped)
		} else {
			report.BackupID = h.ID
			state = r.transition(log, state, StateBackedUp)
		}
	}

	state = r.transition(log, state, StateApplying)

	toApply, skipped := cat.Partition(rc)
	report.Skipped = append(report.Skipped, skipped...)

	for _, setting := range toApply {
		if opts.DryRun {
			report.Applied = append(report.Applied, models.AppliedSetting{Setting: setting})
			continue
		}

		if err := r.store.ApplySetting(ctx, opts.ContainerID, setting); err != nil {
			// One setting's failure never aborts the loop; later
			// settings may still land.
			report.Failed = append(report.Failed, models.FailedSetting{
				Setting: setting,
				Error:   err.Error(),
			})
			log.Warn("runner", "setting rejected",
				"setting", setting.Name, "key", setting.Key, "error", err.Error())
			continue
		}
		report.Applied = append(report.Applied, models.AppliedSetting{Setting: setting})
	}

	state = r.transition(log, state, StateReporting)

	report.Attempted = len(report.Applied) + len(report.Skipped) + len(report.Failed)
	report.Finished = time.Now().UTC()

	r.transition(log, state, StateDone)
	log.Info("runner", "run complete",
		"container", opts.ContainerID,
		"catalog", cat.ID(),
		"applied", len(report.Applied),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed))

	return report, nil
}

// transition logs and returns the next state.
func (r *Runner) transition(log logging.Logger, from, to State) State {
	log.Debug("runner", "state transition", "from", string(from), "to", string(to))
	return to
}

// abort logs the fatal error and returns it.
func (r *Runner) abort(log logging.Logger, from State, err error) error {
	log.Error("runner", "run aborted", "state", string(from), "error", err.Error())
	return err
}
