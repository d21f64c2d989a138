package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigStylesListsSpeakerAssignments(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "styles", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("config styles --json: %v", err)
	}
	var rows []styleRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode styles: %v\n%s", err, out)
	}
	if len(rows) != 3 || rows[0].ID != "Default" {
		t.Fatalf("unexpected styles %+v", rows)
	}
	if len(rows[1].Speakers) != 1 || rows[1].Speakers[0] != "SPEAKER_00" {
		t.Fatalf("expected Speaker1 to serve SPEAKER_00, got %+v", rows[1])
	}
	if len(rows[0].Speakers) != 0 {
		t.Fatalf("expected Default to have no mapped speakers, got %+v", rows[0])
	}

	out, _, err = runCLI(t, []string{"config", "styles"}, env.configPath)
	if err != nil {
		t.Fatalf("config styles: %v", err)
	}
	requireContains(t, out, "Speaker2")
	requireContains(t, out, "(unmapped)")
}
