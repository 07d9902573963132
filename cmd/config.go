package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig is the optional on-disk default set for scan flags, loaded from
// .dfbscan.yaml at the project root when present. CLI flags always win: a
// flag explicitly set on the command line overrides its fileConfig value.
type fileConfig struct {
	Language           string  `yaml:"language"`
	BugType            string  `yaml:"bug_type"`
	CallDepth          int     `yaml:"call_depth"`
	MaxSymbolicWorkers int     `yaml:"max_symbolic_workers"`
	MaxNeuralWorkers   int     `yaml:"max_neural_workers"`
	Reachable          bool    `yaml:"reachable"`
	Model              string  `yaml:"model"`
	Temperature        float64 `yaml:"temperature"`
	Format             string  `yaml:"format"`
	LLMProvider        string  `yaml:"llm_provider"`
	LLMBaseURL         string  `yaml:"llm_base_url"`
}

// loadFileConfig reads .dfbscan.yaml from projectPath, if present. A missing
// file is not an error — every field is optional and flags supply the
// defaults already set by init().
func loadFileConfig(projectPath string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(projectPath + "/.dfbscan.yaml")
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFileConfig fills any scanFlags field still at its flag-registered
// default with fileConfig's value, so .dfbscan.yaml supplies defaults
// without overriding flags the caller actually passed.
func applyFileConfig(cmd *cobra.Command, cfg fileConfig) {
	set := cmd.Flags().Changed
	if cfg.Language != "" && !set("language") {
		scanFlags.language = cfg.Language
	}
	if cfg.BugType != "" && !set("bug-type") {
		scanFlags.bugType = cfg.BugType
	}
	if cfg.CallDepth != 0 && !set("call-depth") {
		scanFlags.callDepth = cfg.CallDepth
	}
	if cfg.MaxSymbolicWorkers != 0 && !set("max-symbolic-workers") {
		scanFlags.maxSymbolicWorkers = cfg.MaxSymbolicWorkers
	}
	if cfg.MaxNeuralWorkers != 0 && !set("max-neural-workers") {
		scanFlags.maxNeuralWorkers = cfg.MaxNeuralWorkers
	}
	if cfg.Reachable && !set("reachable") {
		scanFlags.reachable = true
	}
	if cfg.Model != "" && !set("model") {
		scanFlags.model = cfg.Model
	}
	if cfg.Temperature != 0 && !set("temperature") {
		scanFlags.temperature = cfg.Temperature
	}
	if cfg.Format != "" && !set("format") {
		scanFlags.format = cfg.Format
	}
	if cfg.LLMProvider != "" && !set("llm-provider") {
		scanFlags.llmProvider = cfg.LLMProvider
	}
	if cfg.LLMBaseURL != "" && !set("llm-base-url") {
		scanFlags.llmBaseURL = cfg.LLMBaseURL
	}
}
