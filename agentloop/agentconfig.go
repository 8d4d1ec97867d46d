package agentloop

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed configs/defaults/*.yaml
var embeddedAgentConfigs embed.FS

// Permissions narrows what an agent's tools may do, independent of the
// policy manager's own rule set — this is the coarse, config-declared mode;
// the policy manager still makes the final per-action decision.
type Permissions struct {
	FileAccessMode  string   `yaml:"file_access_mode,omitempty" json:"file_access_mode,omitempty"` // "read_only" | "read_write"
	CommandAllowlist []string `yaml:"command_allowlist,omitempty" json:"command_allowlist,omitempty"`
	NetworkAccess   bool     `yaml:"network_access,omitempty" json:"network_access,omitempty"`
}

// AgentConfig is the on-disk description of one agent identity: name,
// description, model colour, allowed tools, system prompt, and optional
// permissions/capabilities/iteration cap. Derived at startup from embedded
// defaults overlaid with filesystem overrides (same-name entries win).
type AgentConfig struct {
	Name         string       `yaml:"name" json:"name"`
	Description  string       `yaml:"description" json:"description"`
	Version      string       `yaml:"version,omitempty" json:"version,omitempty"`
	Model        Colour       `yaml:"model" json:"model"` // blu_model | grn_model | red_model in the file, normalised below
	Tools        []string     `yaml:"tools" json:"tools"`
	SystemPrompt string       `yaml:"system_prompt" json:"system_prompt"`
	Permissions  *Permissions `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Capabilities []string     `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	IterationCap int          `yaml:"iteration_cap,omitempty" json:"iteration_cap,omitempty"` // 0 = use session default
}

// rawAgentConfig matches the on-disk `model` spelling (blu_model |
// grn_model | red_model) before normalisation to a bare Colour.
type rawAgentConfig struct {
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description"`
	Version      string       `yaml:"version"`
	Model        string       `yaml:"model"`
	Tools        []string     `yaml:"tools"`
	SystemPrompt string       `yaml:"system_prompt"`
	Permissions  *Permissions `yaml:"permissions"`
	Capabilities []string     `yaml:"capabilities"`
	IterationCap int          `yaml:"iteration_cap"`
}

func normaliseModelField(raw string) (Colour, error) {
	switch strings.TrimSuffix(raw, "_model") {
	case "blu":
		return ColourBlu, nil
	case "grn":
		return ColourGrn, nil
	case "red":
		return ColourRed, nil
	default:
		return "", fmt.Errorf("unrecognised model field %q (want blu_model|grn_model|red_model)", raw)
	}
}

func parseAgentConfigYAML(data []byte) (*AgentConfig, error) {
	var raw rawAgentConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	colour, err := normaliseModelField(raw.Model)
	if err != nil {
		return nil, err
	}
	return &AgentConfig{
		Name:         raw.Name,
		Description:  raw.Description,
		Version:      raw.Version,
		Model:        colour,
		Tools:        raw.Tools,
		SystemPrompt: raw.SystemPrompt,
		Permissions:  raw.Permissions,
		Capabilities: raw.Capabilities,
		IterationCap: raw.IterationCap,
	}, nil
}

// LoadAgentConfigs loads the embedded default agent configs, then every
// .yaml/.yml file found directly under configsDir (non-recursive): a file
// whose name field matches an embedded config replaces it, any other adds
// a new config.
// A missing configsDir is not an error — it simply means no overrides.
func LoadAgentConfigs(configsDir string) (map[string]*AgentConfig, error) {
	configs := make(map[string]*AgentConfig)

	entries, err := embeddedAgentConfigs.ReadDir("configs/defaults")
	if err != nil {
		return nil, NewFatalError("reading embedded agent config defaults", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := embeddedAgentConfigs.ReadFile(filepath.Join("configs/defaults", entry.Name()))
		if err != nil {
			return nil, NewFatalError(fmt.Sprintf("reading embedded config %s", entry.Name()), err)
		}
		cfg, err := parseAgentConfigYAML(data)
		if err != nil {
			return nil, NewFatalError(fmt.Sprintf("parsing embedded config %s", entry.Name()), err)
		}
		configs[cfg.Name] = cfg
	}

	if configsDir == "" {
		return configs, nil
	}
	overrideEntries, err := os.ReadDir(configsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return configs, nil
		}
		return nil, NewFatalError(fmt.Sprintf("reading config overrides dir %s", configsDir), err)
	}
	for _, entry := range overrideEntries {
		if entry.IsDir() || (!strings.HasSuffix(entry.Name(), ".yaml") && !strings.HasSuffix(entry.Name(), ".yml")) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(configsDir, entry.Name()))
		if err != nil {
			return nil, NewFatalError(fmt.Sprintf("reading config override %s", entry.Name()), err)
		}
		cfg, err := parseAgentConfigYAML(data)
		if err != nil {
			return nil, NewFatalError(fmt.Sprintf("parsing config override %s", entry.Name()), err)
		}
		configs[cfg.Name] = cfg // same-name filesystem entries override embedded
	}

	return configs, nil
}

// DefaultAgentName is used when the planner's JSON plan names an unknown
// assigned_agent (§6: "falls back to a configured default with a warning").
const DefaultAgentName = "analyzer"
