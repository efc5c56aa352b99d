package diagnostics

import (
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SuppressionsVersion is the only suppression file version understood.
const SuppressionsVersion = 1

// AnyRule matches every rule ID in a suppression entry.
const AnyRule = "*"

// Suppression accepts one rule outcome for the units matching a pattern.
type Suppression struct {
	Rule   string `mapstructure:"rule" yaml:"rule"`
	Unit   string `mapstructure:"unit" yaml:"unit"` // doublestar pattern over "category/skill"
	Reason string `mapstructure:"reason" yaml:"reason"`
}

// Suppressions is the parsed suppression file.
type Suppressions struct {
	Version int           `mapstructure:"version" yaml:"version"`
	Entries []Suppression `mapstructure:"suppressions" yaml:"suppressions"`

	hits []int
}

// LoadSuppressions reads path. A missing file yields nil and no error, since
// the suppression file is optional.
func LoadSuppressions(path string) (*Suppressions, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read suppression file %s", path)
	}

	s, err := ParseSuppressions(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid suppression file %s", path)
	}
	return s, nil
}

// ParseSuppressions decodes and validates a suppression document.
func ParseSuppressions(data []byte) (*Suppressions, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}

	s := &Suppressions{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           s,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create suppression decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode suppressions")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.hits = make([]int, len(s.Entries))
	return s, nil
}

// Validate checks the version and every entry.
func (s *Suppressions) Validate() error {
	var result *multierror.Error

	if s.Version != SuppressionsVersion {
		result = multierror.Append(result, errors.Errorf("unsupported version %d, expected %d", s.Version, SuppressionsVersion))
	}
	for i, e := range s.Entries {
		if e.Rule == "" {
			result = multierror.Append(result, errors.Errorf("entry %d: rule is required", i+1))
		}
		if e.Unit == "" {
			result = multierror.Append(result, errors.Errorf("entry %d: unit is required", i+1))
		} else if !doublestar.ValidatePattern(e.Unit) {
			result = multierror.Append(result, errors.Errorf("entry %d: unit pattern %q is invalid", i+1, e.Unit))
		}
		if e.Reason == "" {
			result = multierror.Append(result, errors.Errorf("entry %d: reason is required", i+1))
		}
	}

	return result.ErrorOrNil()
}

// Match reports whether d is suppressed. Run-level diagnostics are never
// suppressed. Match is not safe for concurrent use; Run serialises calls.
func (s *Suppressions) Match(d Diagnostic) bool {
	if s == nil || d.Unit == "" {
		return false
	}
	for i, e := range s.Entries {
		if e.Rule != AnyRule && e.Rule != d.RuleID {
			continue
		}
		if ok, _ := doublestar.Match(e.Unit, d.Unit); ok {
			if i < len(s.hits) {
				s.hits[i]++
			}
			return true
		}
	}
	return false
}

// Unused returns the entries that never matched a diagnostic.
func (s *Suppressions) Unused() []Suppression {
	if s == nil {
		return nil
	}
	var unused []Suppression
	for i, e := range s.Entries {
		if i < len(s.hits) && s.hits[i] == 0 {
			unused = append(unused, e)
		}
	}
	return unused
}
