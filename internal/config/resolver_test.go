package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveConfig_Precedence_ConfigEnvCLI(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `db_path: ~/.aide/from-config.db
llm:
  provider: openrouter/x-ai/grok-4.1-fast
analysis:
  section_concurrency: 8
  call_timeout: 45s
  thresholds:
    task_floor: 0.75
    min_document_length: 300
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("AIDE_DB", "~/from-env.db")
	t.Setenv("AIDE_LLM", "google/gemini-2.5-flash")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: cfgPath,
		CLILLM:     "openai/gpt-4o-mini",
		CLIDBPath:  "~/from-cli.db",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}

	if resolved.DBPath.Source != SourceCLI {
		t.Fatalf("expected DB path source cli, got %s", resolved.DBPath.Source)
	}
	if resolved.LLM.Source != SourceCLI || resolved.LLM.Value != "openai/gpt-4o-mini" {
		t.Fatalf("expected llm from cli, got %+v", resolved.LLM)
	}
	if resolved.SectionConcurrency != 8 {
		t.Fatalf("expected concurrency from config, got %d", resolved.SectionConcurrency)
	}
	if resolved.Thresholds.TaskFloor != 0.75 {
		t.Fatalf("expected task floor from config, got %v", resolved.Thresholds.TaskFloor)
	}
	if resolved.Thresholds.MinDocumentLength != 300 {
		t.Fatalf("expected min length from config, got %d", resolved.Thresholds.MinDocumentLength)
	}
	if resolved.CallTimeout != 45*time.Second {
		t.Fatalf("expected call timeout from config, got %v", resolved.CallTimeout)
	}
}

func TestResolveConfig_BadCallTimeout(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := "analysis:\n  call_timeout: soonish\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath}); err == nil {
		t.Fatal("expected an error for an unparseable call_timeout")
	}
}

func TestResolveConfig_EnvOverridesConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("db_path: /from/config.db\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AIDE_DB", "/from/env.db")

	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.DBPath.Value != "/from/env.db" || resolved.DBPath.Source != SourceEnv {
		t.Fatalf("expected env db path, got %+v", resolved.DBPath)
	}
}

func TestResolveConfig_MissingFileIsNotAnError(t *testing.T) {
	t.Setenv("AIDE_LLM", "")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.LLM.Value != "" {
		t.Fatalf("expected empty llm, got %+v", resolved.LLM)
	}
}

func TestResolveConfig_ExpandsDBPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("AIDE_DB", "~/aide.db")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.DBPath.Value != "/home/tester/aide.db" {
		t.Fatalf("expected expanded path, got %q", resolved.DBPath.Value)
	}
}

func TestEffectiveLLM_Fallback(t *testing.T) {
	m := ResolvedConfig{}.EffectiveLLM("google/gemini-2.5-flash")
	if m.Value != "google/gemini-2.5-flash" || m.Source != SourceDefault {
		t.Fatalf("unexpected effective llm: %+v", m)
	}

	r := ResolvedConfig{LLM: ResolvedValue{Value: "openai/gpt-4o-mini", Source: SourceConfig}}
	m = r.EffectiveLLM("google/gemini-2.5-flash")
	if m.Value != "openai/gpt-4o-mini" || m.Source != SourceConfig {
		t.Fatalf("configured llm must win: %+v", m)
	}
}

func TestAPIKeyForProvider_EnvOverridesConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `llm:
  provider: openrouter/x-ai/grok-4.1-fast
  api_key: config-key
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	k := resolved.APIKeyForProvider("openrouter/some-model")
	if k.Value != "env-key" {
		t.Fatalf("expected env key, got %q", k.Value)
	}
	if k.Source != SourceEnv {
		t.Fatalf("expected source env, got %s", k.Source)
	}
}
