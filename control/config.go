// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Pool configuration loaded from YAML or JSON.

package control

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/momentics/corepool/affinity"
	"github.com/momentics/corepool/api"
)

// Config describes how a pool is laid out. Zero counts are resolved from the
// host: Streams from the socket count, Threads from the usable core count.
type Config struct {
	Streams     int  `json:"streams"`
	Threads     int  `json:"threads"`
	UseAffinity bool `json:"use_affinity"`
	Verbose     bool `json:"verbose"`
}

// DefaultConfig returns auto-sized streams and threads with affinity enabled.
func DefaultConfig() Config {
	return Config{UseAffinity: true}
}

// ParseConfig decodes data over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("control: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("control: read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks ranges that can be checked without querying the host.
func (c Config) Validate() error {
	if c.Threads < 0 || c.Threads > affinity.MaxThreads {
		return api.NewError(api.ErrCodeInvalidArgument, "control: threads out of range").
			WithContext("threads", c.Threads)
	}
	if c.Streams < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "control: negative streams").
			WithContext("streams", c.Streams)
	}
	return nil
}

// Marshal encodes the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
