package instrument_test

import (
	"testing"

	"github.com/brnhx/govthread/pkg/instrument"
)

func TestDeterministicAliasGeneration(t *testing.T) {
	config1 := instrument.DefaultConfig()
	config2 := instrument.DefaultConfig()

	instrument.NewInstrumenter(config1)
	instrument.NewInstrumenter(config2)

	if config1.GovernAlias != config2.GovernAlias {
		t.Errorf("expected same alias for same import path, got %s and %s",
			config1.GovernAlias, config2.GovernAlias)
	}

	if len(config1.GovernAlias) < 12 || config1.GovernAlias[:12] != "__govthread_" {
		t.Errorf("expected alias to start with __govthread_, got %s", config1.GovernAlias)
	}

	// __govthread_ + 16 hex chars
	if len(config1.GovernAlias) != 12+16 {
		t.Errorf("expected alias length of %d, got %d (%s)", 12+16, len(config1.GovernAlias), config1.GovernAlias)
	}
}

func TestCustomGovernAlias(t *testing.T) {
	config := &instrument.Config{
		GovernImportPath: "custom/govern",
		GovernAlias:      "myCustomAlias",
		ControlPointFunc: "ControlPoint",
		SpawnFunc:        "Go",
	}

	instrument.NewInstrumenter(config)

	if config.GovernAlias != "myCustomAlias" {
		t.Errorf("expected custom alias to be preserved, got %s", config.GovernAlias)
	}
}
