package main

import (
	"encoding/json"
	"fmt"

	"github.com/aide-ai/aide/internal/config"
)

// runConfig prints the resolved configuration with value provenance.
// API keys are never printed, only their source.
func runConfig(args []string) error {
	var cfgPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			if i >= len(args) {
				return fmt.Errorf("--config requires a value")
			}
			cfgPath = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"config_path": resolved.ConfigPath,
		"db_path":     resolved.DBPath,
		"llm":         resolved.EffectiveLLM(defaultLLM),
		"thresholds":  resolved.Thresholds,
	}
	if resolved.SectionConcurrency > 0 {
		out["section_concurrency"] = resolved.SectionConcurrency
	}
	if resolved.CallTimeout > 0 {
		out["call_timeout"] = resolved.CallTimeout.String()
	}

	keys := map[string]string{}
	for provider, key := range resolved.LLMKeys {
		keys[provider] = string(key.Source) + ":" + key.From
	}
	if len(keys) > 0 {
		out["llm_keys"] = keys
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
