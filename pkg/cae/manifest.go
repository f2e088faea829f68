package cae

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
)

// DatasetFilter narrows a directory src to matching relative paths.
type DatasetFilter struct {
	IncludePatterns []string `yaml:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// TransferSpec is one entry of a transfer manifest (spec.md 6). A
// transfer's dst doubles as the node identity depends_on references,
// since the manifest format gives entries no separate id field.
type TransferSpec struct {
	Src           string         `yaml:"src"`
	Dst           string         `yaml:"dst"`
	Format        string         `yaml:"format"`
	DependsOn     string         `yaml:"depends_on,omitempty"`
	RangeOff      uint64         `yaml:"range_off,omitempty"`
	RangeSize     uint64         `yaml:"range_size,omitempty"`
	SrcToken      string         `yaml:"src_token,omitempty"`
	DstToken      string         `yaml:"dst_token,omitempty"`
	DatasetFilter *DatasetFilter `yaml:"dataset_filter,omitempty"`
}

// Manifest is the top-level transfer manifest document.
type Manifest struct {
	Transfers []TransferSpec `yaml:"transfers"`
}

// ParseManifest decodes a transfer manifest, expanding ${VAR} in
// src_token/dst_token against the process environment, and validates
// every entry's required fields.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw struct {
		Transfers yaml.Node `yaml:"transfers"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	if raw.Transfers.Kind != 0 && raw.Transfers.Kind != yaml.SequenceNode {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, fmt.Errorf("transfers must be a sequence"))
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}

	for i := range m.Transfers {
		t := &m.Transfers[i]
		if t.Src == "" || t.Dst == "" || t.Format == "" {
			return nil, taxonomy.Wrap(taxonomy.ManifestInvalid,
				fmt.Errorf("transfer %d: src, dst and format are required", i))
		}
		if t.SrcToken != "" {
			t.SrcToken = os.Expand(t.SrcToken, os.Getenv)
		}
		if t.DstToken != "" {
			t.DstToken = os.Expand(t.DstToken, os.Getenv)
		}
	}
	return &m, nil
}
