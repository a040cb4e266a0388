package catalog

import (
	"testing"

	"github.com/hardenctl/hardenctl/internal/models"
)

func TestAllPresetsBuild(t *testing.T) {
	engine := testEngine(t)

	names := ListPresetNames()
	if len(names) == 0 {
		t.Fatal("no presets embedded")
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			def := MustGetPreset(name)
			cat, err := Build(engine, *def)
			if err != nil {
				t.Fatalf("preset %q does not build: %v", name, err)
			}
			if cat.ID() != def.ID {
				t.Errorf("catalog id = %q, want %q", cat.ID(), def.ID)
			}
		})
	}
}

func TestGetPresetUnknown(t *testing.T) {
	if p := GetPreset("no-such-preset"); p != nil {
		t.Errorf("GetPreset returned %v for unknown name", p)
	}
}

func TestBitlockerSkippedOnEphemeralTargets(t *testing.T) {
	engine := testEngine(t)

	cat, err := Build(engine, *MustGetPreset("bitlocker"))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	persistent := cat.Filter(models.RunContext{})
	ephemeral := cat.Filter(models.RunContext{Flags: map[string]bool{"ephemeral": true}})

	if len(ephemeral) >= len(persistent) {
		t.Errorf("ephemeral target should skip encryption settings: %d vs %d applicable",
			len(ephemeral), len(persistent))
	}
}

func TestVDIAgentGatesOnEphemeral(t *testing.T) {
	engine := testEngine(t)

	cat, err := Build(engine, *MustGetPreset("vdi-agent"))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	ephemeral := cat.Filter(models.RunContext{Flags: map[string]bool{"ephemeral": true}})
	found := false
	for _, s := range ephemeral {
		if s.Name == "clipboard-redirection" {
			found = true
		}
		if s.Name == "persist-user-profile" {
			t.Error("persist-user-profile applied on an ephemeral target")
		}
	}
	if !found {
		t.Error("clipboard-redirection not applicable on an ephemeral target")
	}
}
