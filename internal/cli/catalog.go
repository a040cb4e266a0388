package cli

import (
	"fmt"

	"github.com/hardenctl/hardenctl/internal/catalog"
	"github.com/hardenctl/hardenctl/internal/models"
	"github.com/spf13/cobra"
)

// catalogCmd group
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog management commands",
	Long:  `Validate, inspect, and list hardening catalogs.`,
}

// catalogValidateCmd
var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file|oci://ref>",
	Short: "Validate a catalog definition",
	Long: `Parse a catalog, compile every predicate, and warn about keys that
are assigned more than once (only the last assignment survives).`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCatalogValidate,
}

// catalogExplainCmd
var catalogExplainCmd = &cobra.Command{
	Use:   "explain <file|oci://ref|preset>",
	Short: "Show which settings would apply under a flag set",
	Long: `Print a catalog's settings and, for the given --flag values, whether
each would apply or be skipped. Nothing is written anywhere.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCatalogExplain,
}

// catalogPresetsCmd
var catalogPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in catalogs",
	RunE:  runCatalogPresets,
}

var explainFlags []string

func init() {
	catalogExplainCmd.Flags().StringArrayVar(&explainFlags, "flag", nil, "Context flag, 'name' or 'name=false' (repeatable)")
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogExplainCmd)
	catalogCmd.AddCommand(catalogPresetsCmd)
}

// GetCatalogCmd export
func GetCatalogCmd() *cobra.Command {
	return catalogCmd
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	def, _, err := loadCatalogArg(args[0])
	if err != nil {
		return err
	}

	engine, err := catalog.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create predicate engine: %w", err)
	}

	cat, err := catalog.Build(engine, def)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s%s✓ valid%s %s (%d settings)\n",
		colorBold, colorGreen, colorReset, cat.ID(), len(cat.Settings()))

	for _, key := range cat.DuplicateKeys() {
		fmt.Fprintf(out, "%swarning:%s key %q is assigned more than once; the last assignment wins\n",
			colorYellow, colorReset, key)
	}
	return nil
}

func runCatalogExplain(cmd *cobra.Command, args []string) error {
	def, _, err := loadCatalogArg(args[0])
	if err != nil {
		return err
	}

	flags, err := parseContextFlags(explainFlags)
	if err != nil {
		return err
	}

	engine, err := catalog.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create predicate engine: %w", err)
	}

	cat, err := catalog.Build(engine, def)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%sCatalog:%s %s\n\n", colorBold, colorReset, cat.ID())

	apply, skipped := cat.Partition(models.RunContext{Flags: flags})
	skippedReasons := make(map[string]string, len(skipped))
	for _, s := range skipped {
		skippedReasons[s.Setting.Name] = s.Reason
	}

	for _, s := range cat.Settings() {
		if reason, ok := skippedReasons[s.Name]; ok {
			fmt.Fprintf(out, "  %s-%s %s (%s)\n", colorYellow, colorReset, s.Name, reason)
			continue
		}
		fmt.Fprintf(out, "  %s✓%s %s = %s\n", colorGreen, colorReset, s.Name, s.Value.String())
	}

	fmt.Fprintf(out, "\n  %d of %d settings would apply\n", len(apply), len(cat.Settings()))
	return nil
}

func runCatalogPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range catalog.ListPresetNames() {
		p := catalog.MustGetPreset(name)
		fmt.Fprintf(out, "  %-14s %s\n", name, p.Description)
	}
	return nil
}

// loadCatalogArg resolves a positional catalog reference: preset name,
// file path, or oci:// reference.
func loadCatalogArg(ref string) (models.Catalog, string, error) {
	if p := catalog.GetPreset(ref); p != nil {
		return *p, ref, nil
	}
	if catalog.IsOCIRef(ref) {
		def, err := catalog.FetchOCI(ref)
		return def, ref, err
	}
	def, err := catalog.Load(ref)
	return def, ref, err
}
