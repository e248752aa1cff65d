// Package dexkeepconfig loads dexkeep's YAML configuration file.
package dexkeepconfig

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultName is the configuration file looked for in the working
// directory when none is given explicitly.
const DefaultName = ".dexkeep.yaml"

type Config struct {
	// Package is the package prefix whose classes are kept.
	Package string `yaml:"package,omitempty"`
	// Proguard is the shrinker executable.
	Proguard string `yaml:"proguard,omitempty"`
	// Blob is a gocloud.dev bucket URL that containers are read out of.
	Blob string `yaml:"blob,omitempty"`
	// Args precede the keep rules on the shrinker's command line.
	Args []string `yaml:"args,omitempty"`
}

func Default() *Config {
	return &Config{
		Package:  "scala",
		Proguard: "proguard",
	}
}

// Load reads the configuration file at name over the defaults. A missing
// file at the default name is not an error, but a missing file that was
// asked for explicitly is.
func Load(name string) (*Config, error) {
	var (
		cfg      = Default()
		explicit = name != ""
	)

	if !explicit {
		name = DefaultName
	}

	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	} else if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
