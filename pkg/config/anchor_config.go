// Copyright 2025 Certen Protocol
//
// Domain configuration loader for the two fixed tables that are
// operator-tunable without a code release: the webhook partner
// registry bootstrap list and the gene->region table theory execution
// scores against. Loaded from YAML with ${VAR_NAME} environment
// variable substitution.

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PartnerRegistryConfig is the bootstrap list of webhook partners
// loaded at startup, before any partner is registered at runtime.
type PartnerRegistryConfig struct {
	Partners []PartnerEntry `yaml:"partners"`
}

// PartnerEntry is one partner's bootstrap settings.
type PartnerEntry struct {
	PartnerID       string   `yaml:"partner_id"`
	Secret          string   `yaml:"secret"`
	SupportedEvents []string `yaml:"supported_events"`
	MaxRetries      int      `yaml:"max_retries"`
}

// GeneRegionTableConfig is the gene->genomic-region table used by
// theory execution to count variant hits per gene.
type GeneRegionTableConfig struct {
	Regions []GeneRegionEntry `yaml:"regions"`
}

// GeneRegionEntry describes one gene's genomic coordinates.
type GeneRegionEntry struct {
	Gene       string `yaml:"gene"`
	Chromosome string `yaml:"chromosome"`
	Start      int    `yaml:"start"`
	End        int    `yaml:"end"`
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadPartnerRegistry loads the webhook partner bootstrap list from a
// YAML file at path, substituting ${VAR_NAME} references first so
// secrets can live in the environment rather than the file.
func LoadPartnerRegistry(path string) (*PartnerRegistryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read partner registry %s: %w", path, err)
	}
	expanded := substituteEnvVars(string(data))
	var cfg PartnerRegistryConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse partner registry %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadGeneRegionTable loads the gene->region table from a YAML file at path.
func LoadGeneRegionTable(path string) (*GeneRegionTableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gene region table %s: %w", path, err)
	}
	expanded := substituteEnvVars(string(data))
	var cfg GeneRegionTableConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse gene region table %s: %w", path, err)
	}
	return &cfg, nil
}
