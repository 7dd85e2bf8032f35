package ampzip

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig decodes a YAML configuration over DefaultConfig. Unknown keys
// are rejected. An empty document yields the defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("ampzip: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML configuration file
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ampzip: read config %s: %w", path, err)
	}
	cfg, err := LoadConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FillByte is the filler byte of a Config
type FillByte byte

// UnmarshalYAML reads a one-character value as that character and anything
// longer as an unsigned number (decimal, 0x hex or 0o octal).
func (b *FillByte) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("ampzip: line %d: filler_byte must be a scalar", node.Line)
	}
	if len(node.Value) == 1 {
		*b = FillByte(node.Value[0])
		return nil
	}
	n, err := strconv.ParseUint(node.Value, 0, 8)
	if err != nil {
		return fmt.Errorf("ampzip: line %d: filler_byte %q is neither a character nor a byte value", node.Line, node.Value)
	}
	*b = FillByte(n)
	return nil
}
