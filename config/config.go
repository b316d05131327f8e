// Package config holds the simulator's run-time configuration: which
// pedagogical toggles are enabled and where memory regions are anchored.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config controls engine behavior that is meant to be toggled by a user
// exploring the simulator, not hardcoded.
type Config struct {
	// HazardDetection enables the pipeline's load-use stall. Default true.
	HazardDetection bool `json:"hazard_detection"`

	// Forwarding enables the pipeline's EX-stage operand forwarding.
	// Default true.
	Forwarding bool `json:"forwarding"`

	// Breakpoints is a set of addresses, loaded as a convenience so a
	// session can be reproduced from a saved config.
	Breakpoints []uint32 `json:"breakpoints"`

	// TextBase, DataBase, StackTop describe the memory layout. The CLI
	// passes StackTop to the engines as the initial stack pointer;
	// TextBase and DataBase are validated and saved but do not change
	// where the assembler or the engines place code and data.
	TextBase uint32 `json:"text_base"`
	DataBase uint32 `json:"data_base"`
	StackTop uint32 `json:"stack_top"`
}

// DefaultConfig returns a Config matching the simulator's built-in layout
// with both pedagogical toggles enabled.
func DefaultConfig() *Config {
	return &Config{
		HazardDetection: true,
		Forwarding:      true,
		Breakpoints:     nil,
		TextBase:        0x00000000,
		DataBase:        0x10000000,
		StackTop:        0x7FFFFFF0,
	}
}

// LoadConfig reads a Config from a JSON file, starting from the defaults so
// a partial file only overrides the fields it sets.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to serialize: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

// Validate rejects a layout where the three memory regions overlap.
func (c *Config) Validate() error {
	if c.DataBase <= c.TextBase {
		return fmt.Errorf("data_base must be above text_base")
	}
	if c.StackTop <= c.DataBase {
		return fmt.Errorf("stack_top must be above data_base")
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	bp := make([]uint32, len(c.Breakpoints))
	copy(bp, c.Breakpoints)
	return &Config{
		HazardDetection: c.HazardDetection,
		Forwarding:      c.Forwarding,
		Breakpoints:     bp,
		TextBase:        c.TextBase,
		DataBase:        c.DataBase,
		StackTop:        c.StackTop,
	}
}
