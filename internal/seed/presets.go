package seed

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Presets are the built-in seeding profiles.
var Presets = map[string]Options{
	"small": {
		Inspirers:            2,
		Users:                10,
		SubscriptionsPerUser: 1,
		DreamsPerUser:        2,
		AimsPerUser:          1,
		PostsPerInspirer:     3,
	},
	"demo": {
		Inspirers:            5,
		Users:                50,
		SubscriptionsPerUser: 3,
		DreamsPerUser:        3,
		AimsPerUser:          2,
		PostsPerInspirer:     10,
	},
	"populated": {
		Inspirers:            20,
		Users:                500,
		SubscriptionsPerUser: 8,
		DreamsPerUser:        5,
		AimsPerUser:          3,
		PostsPerInspirer:     25,
		SkipBcrypt:           true,
	},
}

type presetFile struct {
	Presets map[string]Options `yaml:"presets"`
}

// ParsePresets reads a YAML document of the form
//
//	presets:
//	  name:
//	    inspirers: 3
//	    users: 20
//
// and returns the presets it defines.
func ParsePresets(r io.Reader) (map[string]Options, error) {
	var f presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return map[string]Options{}, nil
		}
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for name, opts := range f.Presets {
		if err := opts.validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return f.Presets, nil
}

// LoadPresets merges the presets defined in path over the built-in ones.
func LoadPresets(path string) (map[string]Options, error) {
	out := make(map[string]Options, len(Presets))
	for k, v := range Presets {
		out[k] = v
	}
	if path == "" {
		return out, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	custom, err := ParsePresets(f)
	if err != nil {
		return nil, err
	}
	for k, v := range custom {
		out[k] = v
	}
	return out, nil
}

// PresetNames lists preset names in sorted order.
func PresetNames(presets map[string]Options) []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (o Options) validate() error {
	for name, v := range map[string]int{
		"inspirers":              o.Inspirers,
		"users":                  o.Users,
		"subscriptions_per_user": o.SubscriptionsPerUser,
		"dreams_per_user":        o.DreamsPerUser,
		"aims_per_user":          o.AimsPerUser,
		"posts_per_inspirer":     o.PostsPerInspirer,
		"max_days":               o.MaxDays,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
