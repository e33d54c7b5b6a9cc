package app

import (
	"strings"
	"testing"
)

func TestDupsCommand(t *testing.T) {
	// Test that dups command is properly configured
	if dupsCmd.Use != "dups [path]" {
		t.Errorf("expected Use to be 'dups [path]', got '%s'", dupsCmd.Use)
	}

	if dupsCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if dupsCmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	if dupsCmd.Example == "" {
		t.Error("expected Example to be set")
	}

	if dupsCmd.RunE == nil {
		t.Error("expected RunE to be set")
	}
}

func TestDupsCommandFlags(t *testing.T) {
	tests := []struct {
		name         string
		flagName     string
		shorthand    string
		defaultValue string
	}{
		{
			name:         "min-size flag",
			flagName:     "min-size",
			defaultValue: "1 MiB",
		},
		{
			name:         "top flag",
			flagName:     "top",
			shorthand:    "n",
			defaultValue: "0",
		},
		{
			name:         "no-cache flag",
			flagName:     "no-cache",
			defaultValue: "false",
		},
		{
			name:         "format flag",
			flagName:     "format",
			defaultValue: "table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := dupsCmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("expected flag '%s' to be registered", tt.flagName)
			}

			if flag.Usage == "" {
				t.Errorf("expected flag '%s' to have usage text", tt.flagName)
			}

			if flag.DefValue != tt.defaultValue {
				t.Errorf("expected flag '%s' default to be '%s', got '%s'", tt.flagName, tt.defaultValue, flag.DefValue)
			}

			if tt.shorthand != "" && flag.Shorthand != tt.shorthand {
				t.Errorf("expected flag '%s' shorthand to be '%s', got '%s'", tt.flagName, tt.shorthand, flag.Shorthand)
			}
		})
	}
}

func TestDupsCommandRejectsUnknownFormat(t *testing.T) {
	// Format validation happens before any database or filesystem work, so
	// calling the run function directly is safe here.
	oldFormat := dupsFormat
	dupsFormat = "yaml"
	defer func() { dupsFormat = oldFormat }()

	err := runDups(dupsCmd, nil)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("expected error to mention 'invalid format', got: %v", err)
	}
}

func TestDupsCommandRegistration(t *testing.T) {
	// Verify dups command is registered with root
	found := false
	for _, cmd := range RootCmd.Commands() {
		if cmd.Name() == "dups" {
			found = true
			break
		}
	}

	if !found {
		t.Error("dups command not registered with root command")
	}
}
