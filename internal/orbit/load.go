package orbit

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// fileFormat is the on-disk JSON layout.
//
//	{"categories": [{"name": "Languages", "color": "#2dd4bf", "radius": 4,
//	  "tilt": 0.06, "items": [{"name": "Go", "icon": "file:icons/go.png"}]}]}
type fileFormat struct {
	Categories []struct {
		Name   string  `json:"name"`
		Color  string  `json:"color"`
		Radius float64 `json:"radius"`
		Tilt   float64 `json:"tilt"`
		Items  []struct {
			Name string `json:"name"`
			Icon string `json:"icon,omitempty"`
		} `json:"items"`
	} `json:"categories"`
}

// Load reads and validates an orbit table from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read orbit config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates an orbit table.
func Parse(data []byte) (*Config, error) {
	var raw fileFormat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("decode JSON: %v", err), Err: err}
	}

	specs := make([]CategorySpec, len(raw.Categories))
	for i, c := range raw.Categories {
		items := make([]ItemSpec, len(c.Items))
		for j, it := range c.Items {
			items[j] = ItemSpec{Name: it.Name, IconRef: it.Icon}
		}
		specs[i] = CategorySpec{
			Name:       c.Name,
			Color:      c.Color,
			RingRadius: c.Radius,
			OrbitTilt:  c.Tilt,
			Items:      items,
		}
	}
	return New(specs)
}
