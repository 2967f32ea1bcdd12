package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// decodeLayer decodes one configuration layer over cfg. Keys the layer does
// not mention keep their current value; lists the layer sets replace the
// previous list. Every layer that declares a version must agree.
func decodeLayer(cfg *Config, data []byte) error {
	var header struct {
		Version int `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return err
	}

	base := cfg.Version
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return mergeVersion(base, header.Version, &cfg.Version)
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0 && overlay == 0:
		*out = 0 // neither declares; validation will catch this
	case base == 0:
		*out = overlay
	case overlay == 0:
		*out = base
	case base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d, all config layers must agree on version", base, overlay)
	}
	return nil
}
