package varmap

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hxia920/PSID/internal/rolepolicy"
)

// Maps bundles the two variable maps the pipeline needs: one for the
// cumulative individual-level file, one for the per-wave family files.
type Maps struct {
	Individual *Map
	Family     *Map
}

// fileSpec mirrors the mapping YAML layout.
type fileSpec struct {
	Individual []ConceptSpec `koanf:"individual"`
	Family     []ConceptSpec `koanf:"family"`
}

// Load reads a mapping file and builds both variable maps. Conflicting
// column claims fail here, before any wave data is touched.
func Load(path string) (*Maps, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading mapping file %s: %w", path, err)
	}

	var spec fileSpec
	if err := k.UnmarshalWithConf("", &spec, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:  &spec,
			TagName: "koanf",
			// Wave keys arrive as strings from YAML; weak typing turns them
			// into the map's int keys.
			WeaklyTypedInput: true,
			DecodeHook:       columnSpecHook(),
		},
	}); err != nil {
		return nil, fmt.Errorf("decoding mapping file %s: %w", path, err)
	}

	if len(spec.Individual) == 0 {
		return nil, fmt.Errorf("mapping file %s declares no individual concepts", path)
	}

	individual, err := New(spec.Individual)
	if err != nil {
		return nil, fmt.Errorf("individual mapping: %w", err)
	}
	family, err := New(spec.Family)
	if err != nil {
		return nil, fmt.Errorf("family mapping: %w", err)
	}

	return &Maps{Individual: individual, Family: family}, nil
}

// columnSpecHook lets a wave entry be either a bare raw column name or a
// {ref, partner} pair, so plain concepts stay one line each in the YAML.
func columnSpecHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(ColumnSpec{}) || from.Kind() != reflect.String {
			return data, nil
		}
		return ColumnSpec{Column: data.(string)}, nil
	}
}

// Normalized returns the mapping in its canonical configuration form,
// suitable for re-serialization. Waves are emitted in ascending order.
func (m *Map) Normalized() []ConceptSpec {
	specs := make([]ConceptSpec, 0, len(m.names))
	for _, name := range m.names {
		c := m.concepts[name]
		spec := ConceptSpec{
			Name:          c.Name,
			RoleQualified: c.RoleQualified,
			Waves:         make(map[int]ColumnSpec, len(c.byWave)),
		}
		waves := make([]int, 0, len(c.byWave))
		for w := range c.byWave {
			waves = append(waves, w)
		}
		sort.Ints(waves)
		for _, w := range waves {
			src := c.byWave[w]
			if c.RoleQualified {
				spec.Waves[w] = ColumnSpec{
					Ref:     src.ByRole[rolepolicy.Reference],
					Partner: src.ByRole[rolepolicy.Partner],
				}
			} else {
				spec.Waves[w] = ColumnSpec{Column: src.Column}
			}
		}
		specs = append(specs, spec)
	}
	return specs
}
