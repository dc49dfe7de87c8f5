// Package config implements the node's YAML configuration (spec.md 6):
// its DECnet identity, the circuits it runs, per-category logging
// levels, and the metrics listener address, with an fsnotify-driven
// Watcher that re-loads the file when it changes on disk.
package config

import (
	"errors"
	"fmt"
	"os"

	route20 "github.com/rjarratt/Route20-sub001"
	"gopkg.in/yaml.v3"
)

// CircuitConfig describes one configured circuit.
type CircuitConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "ethernet-pcap", "ethernet-socket", or "ddcmp"
	Cost int    `yaml:"cost"`

	Interface string `yaml:"interface,omitempty"`  // ethernet-pcap
	LocalMAC  string `yaml:"local_mac,omitempty"`  // ethernet-pcap, hex "aa:bb:cc:dd:ee:ff"
	Receive   int    `yaml:"receive_port,omitempty"`
	DestHost  string `yaml:"dest_host,omitempty"`
	DestPort  int    `yaml:"dest_port,omitempty"`
}

// NodeConfig is the local node's DECnet identity.
type NodeConfig struct {
	Area     uint8  `yaml:"area"`
	Node     uint16 `yaml:"node"`
	Level    int    `yaml:"level"` // 1 or 2
	Priority uint8  `yaml:"priority"`
	Name     string `yaml:"name"`
}

// Config is the full node configuration.
type Config struct {
	Node        NodeConfig        `yaml:"node"`
	Circuits    []CircuitConfig   `yaml:"circuits"`
	Logging     map[string]string `yaml:"logging"`
	MetricsAddr string            `yaml:"metrics_addr"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration describes a representable node:
// a valid DECnet address, a supported level, and circuits with the
// fields their kind requires.
func (c *Config) Validate() error {
	addr := route20.Address{Area: c.Node.Area, Node: c.Node.Node}
	if !addr.Valid() {
		return fmt.Errorf("node address %s is out of range", addr)
	}
	if c.Node.Level != 1 && c.Node.Level != 2 {
		return errors.New("node.level must be 1 or 2")
	}
	if len(c.Circuits) == 0 {
		return errors.New("at least one circuit must be configured")
	}
	seen := make(map[string]bool)
	for _, circ := range c.Circuits {
		if circ.Name == "" {
			return errors.New("circuit name must not be empty")
		}
		if seen[circ.Name] {
			return fmt.Errorf("duplicate circuit name %q", circ.Name)
		}
		seen[circ.Name] = true
		switch circ.Kind {
		case "ethernet-pcap":
			if circ.Interface == "" || circ.LocalMAC == "" {
				return fmt.Errorf("circuit %q: ethernet-pcap requires interface and local_mac", circ.Name)
			}
		case "ethernet-socket":
			if circ.Receive == 0 || circ.DestHost == "" || circ.DestPort == 0 {
				return fmt.Errorf("circuit %q: ethernet-socket requires receive_port, dest_host, dest_port", circ.Name)
			}
		case "ddcmp":
			if circ.DestHost == "" || circ.DestPort == 0 {
				return fmt.Errorf("circuit %q: ddcmp requires dest_host and dest_port", circ.Name)
			}
		default:
			return fmt.Errorf("circuit %q: unknown kind %q", circ.Name, circ.Kind)
		}
	}
	return nil
}
