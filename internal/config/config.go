// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Job configuration loaded from YAML. CLI flags override these values
type Config struct {
	Estimation struct {
		PatchSize       int `yaml:"patchSize"`
		SpatialStride   int `yaml:"spatialStride"`
		TemporalStride  int `yaml:"temporalStride"`
		MinValidSamples int `yaml:"minValidSamples"`
		MaxSamples      int `yaml:"maxSamples"`
	} `yaml:"estimation"`

	Transform struct {
		// Inverse method: algebraic, asymptotic_unbiased or exact_unbiased
		Method string  `yaml:"method"`
		Mu     float64 `yaml:"mu"`
	} `yaml:"transform"`

	Output struct {
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	MaxThreads int `yaml:"maxThreads"`
}

// Returns a configuration with default values
func DefaultConfig() *Config {
	cfg:=&Config{}
	cfg.Estimation.PatchSize=8
	cfg.Estimation.SpatialStride=8
	cfg.Estimation.TemporalStride=1
	cfg.Estimation.MinValidSamples=50
	cfg.Estimation.MaxSamples=0
	cfg.Transform.Method="exact_unbiased"
	cfg.Transform.Mu=0
	cfg.Output.Verbose=true
	cfg.MaxThreads=runtime.GOMAXPROCS(0)
	return cfg
}

// Loads configuration from a YAML file on top of the defaults.
// A missing file returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg:=DefaultConfig()
	if _, err:=os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}
	data, err:=os.ReadFile(configPath)
	if err!=nil { return nil, fmt.Errorf("reading config file: %w", err) }
	if err:=yaml.Unmarshal(data, cfg); err!=nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	data, err:=yaml.Marshal(cfg)
	if err!=nil { return fmt.Errorf("marshaling config: %w", err) }
	if err:=os.WriteFile(configPath, data, 0644); err!=nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
