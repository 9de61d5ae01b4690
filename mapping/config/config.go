package config

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// Mapping is the YAML classification table.
//
//	boundary: boundary-administrative
//	coastline: natural-coastline
//	tags:
//	  include: [name]
//	types:
//	  - name: amenity-cafe
//	    tags: {amenity: cafe}
//	    geometry: [point, area]
type Mapping struct {
	Boundary  string  `yaml:"boundary"`
	Coastline string  `yaml:"coastline"`
	Tags      Tags    `yaml:"tags"`
	Types     []*Type `yaml:"types"`
}

type Type struct {
	Name     string    `yaml:"name"`
	Tags     KeyValues `yaml:"tags"`
	Geometry []string  `yaml:"geometry"`
}

type Tags struct {
	LoadAll bool  `yaml:"load_all"`
	Include []Key `yaml:"include"`
}

type Key string
type Value string

// KeyValues maps a tag key to the accepted values. A single value or a
// list of values is accepted per key.
type KeyValues map[Key][]Value

func (kv *KeyValues) UnmarshalYAML(unmarshal func(interface{}) error) error {
	if *kv == nil {
		*kv = make(map[Key][]Value)
	}
	slice := yaml.MapSlice{}
	err := unmarshal(&slice)
	if err != nil {
		return err
	}
	for _, item := range slice {
		k, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("mapping key '%v' not a string", item.Key)
		}
		switch values := item.Value.(type) {
		case string:
			(*kv)[Key(k)] = append((*kv)[Key(k)], Value(values))
		case int, float64, bool:
			// unquoted scalars like admin_level: 4
			(*kv)[Key(k)] = append((*kv)[Key(k)], Value(fmt.Sprint(values)))
		case []interface{}:
			for _, v := range values {
				if v, ok := v.(string); ok {
					(*kv)[Key(k)] = append((*kv)[Key(k)], Value(v))
				} else {
					return fmt.Errorf("mapping value '%v' not a string", v)
				}
			}
		default:
			return fmt.Errorf("mapping value for key '%s' not a string or list", k)
		}
	}
	return nil
}

// Parse decodes a YAML mapping.
func Parse(data []byte) (*Mapping, error) {
	m := &Mapping{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
