package receipt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/hardenctl/hardenctl/internal/models"
	"github.com/hardenctl/hardenctl/internal/observability"
)

// MaxErrorLength is the maximum length for error strings in receipts.
const MaxErrorLength = 2048

// Session tracks command execution
type Session struct {
	ctx     context.Context
	start   time.Time
	command string
	args    []string
}

// Start session
func Start(ctx context.Context, cmd string, args []string) *Session {
	return &Session{
		ctx:     ctx,
		start:   time.Now(),
		command: cmd,
		args:    args,
	}
}

// Option configures receipt
type Option func(*Receipt)

// WithCatalog option. Source is a preset name, file path, or OCI
// reference; the SHA256 is computed when source is a readable file.
func WithCatalog(id, source string) Option {
	return func(r *Receipt) {
		if id == "" && source == "" {
			return
		}
		ref := &CatalogRef{ID: id, Source: source}
		if hash, err := computeSHA256(source); err == nil {
			ref.SHA256 = hash
		}
		r.Catalog = ref
	}
}

// WithApply option summarizing the run's report.
func WithApply(report *models.ApplyReport, flags map[string]bool) Option {
	return func(r *Receipt) {
		if report == nil {
			return
		}
		s := &ApplySummary{
			ContainerID:   report.ContainerID,
			TargetScope:   report.TargetScope,
			BackupID:      report.BackupID,
			BackupWarning: report.BackupWarning,
			DryRun:        report.DryRun,
			Flags:         flags,
			Attempted:     report.Attempted,
			Applied:       len(report.Applied),
			Skipped:       len(report.Skipped),
			Failed:        len(report.Failed),
		}
		for _, f := range report.Failed {
			s.FailedNames = append(s.FailedNames, f.Setting.Name)
		}
		r.Apply = s
	}
}

// Finish and write receipt
func (s *Session) Finish(err error, opts ...Option) error {
	w := From(s.ctx)
	if w == nil {
		// No writer configured, receipts disabled
		return nil
	}

	// Redact sensitive CLI arguments before storing
	redactedArgs, wasRedacted := RedactArgs(s.args)

	r := Receipt{
		SchemaVersion: ReceiptSchemaVersion,
		OpID:          observability.OpID(s.ctx),
		TsStart:       s.start.Format(time.RFC3339Nano),
		TsEnd:         time.Now().Format(time.RFC3339Nano),
		Command:       s.command,
		Args:          redactedArgs,
		ArgsRedacted:  wasRedacted,
	}

	if err != nil {
		r.Result = Result{
			Status: "fail",
			Error:  truncateError(err.Error()),
		}
	} else {
		r.Result = Result{
			Status: "success",
		}
	}

	for _, opt := range opts {
		opt(&r)
	}

	return w.Write(r)
}

// computeSHA256 helper
func computeSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// truncateError helper
func truncateError(s string) string {
	if len(s) <= MaxErrorLength {
		return s
	}
	return s[:MaxErrorLength] + "...(truncated)"
}
