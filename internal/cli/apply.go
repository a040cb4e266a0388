package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/hardenctl/hardenctl/internal/catalog"
	"github.com/hardenctl/hardenctl/internal/models"
	"github.com/hardenctl/hardenctl/internal/observability"
	"github.com/hardenctl/hardenctl/internal/observability/logging"
	otelobs "github.com/hardenctl/hardenctl/internal/observability/otel"
	"github.com/hardenctl/hardenctl/internal/observability/receipt"
	"github.com/hardenctl/hardenctl/internal/runner"
	"github.com/hardenctl/hardenctl/internal/store"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// applyCmd
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a catalog to a policy container",
	Long: `Apply a hardening catalog to a named policy container.

The catalog comes from a built-in preset (--preset), a YAML file
(--catalog path), or a registry artifact (--catalog oci://ref). Settings
whose predicate does not match the run's flags are skipped and reported.

Example:
  hardenctl apply --preset vdi-agent --container vdi-pool-7 \
    --target ou=workstations --flag ephemeral --backup`,
	SilenceUsage: true,
	RunE:         runApply,
}

var (
	applyCatalogRef  string
	applyPreset      string
	applyContainer   string
	applyDescription string
	applyTarget      string
	applyFlags       []string
	applyBackup      bool
	applyBackupDest  string
	applyStrict      bool
	applyDryRun      bool
	applyDBPath      string
	applyOutput      string
	applyFailOn      string
)

func init() {
	applyCmd.Flags().StringVarP(&applyCatalogRef, "catalog", "c", "", "Catalog YAML file or oci:// reference")
	applyCmd.Flags().StringVar(&applyPreset, "preset", "", "Built-in catalog preset (see 'hardenctl catalog presets')")
	applyCmd.Flags().StringVar(&applyContainer, "container", "", "Policy container id (required)")
	applyCmd.Flags().StringVar(&applyDescription, "description", "", "Container description, used when the container is created")
	applyCmd.Flags().StringVar(&applyTarget, "target", "", "Target scope to link the container to")
	applyCmd.Flags().StringArrayVar(&applyFlags, "flag", nil, "Context flag, 'name' or 'name=false' (repeatable)")
	applyCmd.Flags().BoolVar(&applyBackup, "backup", false, "Snapshot the container before applying")
	applyCmd.Flags().StringVar(&applyBackupDest, "backup-dest", "", "Label recorded with the backup snapshot")
	applyCmd.Flags().BoolVar(&applyStrict, "strict-backup", false, "Treat a backup failure as fatal")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Report what would be applied without touching the store")
	applyCmd.Flags().StringVar(&applyDBPath, "db", "hardenctl.db", "Policy store database path")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "text", "Output format: text or json")
	applyCmd.Flags().StringVar(&applyFailOn, "fail-on", "failed", "Exit non-zero on: failed or none")
}

// GetApplyCmd export
func GetApplyCmd() *cobra.Command {
	return applyCmd
}

func runApply(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "hardenctl apply", os.Args[1:])

	var report *models.ApplyReport
	var catalogID, catalogSource string
	var flags map[string]bool

	defer func() {
		_ = sess.Finish(err,
			receipt.WithCatalog(catalogID, catalogSource),
			receipt.WithApply(report, flags),
		)
	}()

	if applyContainer == "" {
		return fmt.Errorf("--container is required")
	}

	flags, err = parseContextFlags(applyFlags)
	if err != nil {
		return err
	}

	def, source, err := resolveCatalog(applyCatalogRef, applyPreset)
	if err != nil {
		return err
	}
	catalogID = def.ID
	catalogSource = source

	log := logging.From(ctx)

	if h := otelobs.From(ctx); h != nil {
		var span trace.Span
		ctx, span = h.Tracer.Start(ctx, "hardenctl.apply",
			trace.WithAttributes(
				attribute.String("hardenctl.op_id", observability.OpID(ctx)),
				attribute.String("hardenctl.catalog", def.ID),
				attribute.String("hardenctl.container", applyContainer),
				attribute.Bool("hardenctl.dry_run", applyDryRun),
			))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed")
			} else {
				span.SetStatus(codes.Ok, "success")
			}
			span.End()
		}()
	}

	log.Event(ctx, "apply.start", map[string]any{
		"catalog":   def.ID,
		"container": applyContainer,
		"dry_run":   applyDryRun,
	})

	engine, err := catalog.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create predicate engine: %w", err)
	}

	cat, err := catalog.Build(engine, def)
	if err != nil {
		return err
	}

	st, err := store.OpenSQLite(applyDBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err = runner.New(st).Run(ctx, cat, models.RunContext{Flags: flags}, runner.Options{
		ContainerID:       applyContainer,
		Description:       applyDescription,
		TargetScope:       applyTarget,
		Backup:            applyBackup,
		BackupDestination: applyBackupDest,
		StrictBackup:      applyStrict,
		DryRun:            applyDryRun,
	})
	if err != nil {
		return err
	}

	log.Event(ctx, "apply.complete", map[string]any{
		"catalog":   def.ID,
		"container": applyContainer,
		"applied":   len(report.Applied),
		"skipped":   len(report.Skipped),
		"failed":    len(report.Failed),
	})

	if err := renderReport(cmd.OutOrStdout(), report, applyOutput); err != nil {
		return err
	}

	if applyFailOn == "failed" && !report.Succeeded() {
		return fmt.Errorf("%d setting(s) failed", len(report.Failed))
	}
	return nil
}

// resolveCatalog loads a definition from a preset, file, or registry.
func resolveCatalog(ref, preset string) (models.Catalog, string, error) {
	switch {
	case preset != "" && ref != "":
		return models.Catalog{}, "", fmt.Errorf("--catalog and --preset are mutually exclusive")
	case preset != "":
		p := catalog.GetPreset(preset)
		if p == nil {
			return models.Catalog{}, "", fmt.Errorf("unknown preset %q (available: %s)",
				preset, strings.Join(catalog.ListPresetNames(), ", "))
		}
		return *p, preset, nil
	case catalog.IsOCIRef(ref):
		def, err := catalog.FetchOCI(ref)
		return def, ref, err
	case ref != "":
		def, err := catalog.Load(ref)
		return def, ref, err
	default:
		return models.Catalog{}, "", fmt.Errorf("either --catalog or --preset is required")
	}
}

// parseContextFlags turns repeated --flag values into the run's flag
// set. A bare name means true; name=false disables.
func parseContextFlags(raw []string) (map[string]bool, error) {
	flags := map[string]bool{}
	for _, entry := range raw {
		name, value, found := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid flag %q", entry)
		}
		if !found {
			flags[name] = true
			continue
		}
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true":
			flags[name] = true
		case "false":
			flags[name] = false
		default:
			return nil, fmt.Errorf("invalid flag %q: value must be true or false", entry)
		}
	}
	return flags, nil
}
