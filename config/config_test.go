package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "route20.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const validYAML = `
node:
  area: 1
  node: 10
  level: 1
  priority: 64
  name: testnode
circuits:
  - name: eth0
    kind: ethernet-pcap
    cost: 1
    interface: eth0
    local_mac: "aa:00:04:00:0a:00"
logging:
  decision: debug
metrics_addr: ":9090"
`

func TestLoadValid(t *testing.T) {
	path := writeTemp(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), cfg.Node.Area)
	assert.Equal(t, uint16(10), cfg.Node.Node)
	assert.Len(t, cfg.Circuits, 1)
}

func TestLoadRejectsInvalidAddress(t *testing.T) {
	path := writeTemp(t, `
node:
  area: 0
  node: 10
  level: 1
circuits:
  - name: eth0
    kind: ethernet-pcap
    interface: eth0
    local_mac: "aa:00:04:00:0a:00"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownCircuitKind(t *testing.T) {
	path := writeTemp(t, `
node:
  area: 1
  node: 10
  level: 1
circuits:
  - name: eth0
    kind: token-ring
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateCircuitNames(t *testing.T) {
	path := writeTemp(t, `
node:
  area: 1
  node: 10
  level: 1
circuits:
  - name: eth0
    kind: ddcmp
    dest_host: "1.2.3.4"
    dest_port: 700
  - name: eth0
    kind: ddcmp
    dest_host: "1.2.3.5"
    dest_port: 700
`)
	_, err := Load(path)
	assert.Error(t, err)
}
