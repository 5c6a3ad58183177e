// Package config loads a module's pallene.yaml manifest: the module's
// own declared version, its import search roots, and its default emit
// mode.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Manifest is the decoded contents of a pallene.yaml file.
type Manifest struct {
	Package string   `yaml:"Package"`
	Version string   `yaml:"Version"` // this module's own semver, checked against dependents' import constraints
	Roots   []string `yaml:"Roots"`   // directories searched when resolving `import` module paths
	Emit    string   `yaml:"Emit"`    // default output when no --emit-*/--compile-c flag is given: "lua" selects .lua output; "c" (or anything else) selects the .pln->.so chain
}

// Load reads and decodes the manifest at path. A missing file is not an
// error: it yields the default manifest (no declared version, no extra
// search roots, C emit by default).
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{Emit: "c"}, nil
		}
		return nil, errors.Wrap(err, "reading pallene.yaml")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing pallene.yaml")
	}
	if m.Emit == "" {
		m.Emit = "c"
	}
	return &m, nil
}
