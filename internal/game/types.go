// types.go
package game

// RawConfig is one YAML layer (default, game or pool) as written on disk.
type RawConfig struct {
	Version string        `yaml:"version"`
	Tokens  *TokenConfig  `yaml:"tokens,omitempty"`
	Catalog []EntryConfig `yaml:"catalog,omitempty"`
	Notes   string        `yaml:"notes,omitempty"`
}

type TokenConfig struct {
	Name       string `yaml:"name,omitempty"`
	PerDraw    *int   `yaml:"per_draw"`
	PerTenDraw *int   `yaml:"per_ten_draw"`
	PerNDraw   *int   `yaml:"per_n_draw,omitempty"`
	N          *int   `yaml:"n,omitempty"`
}

type EntryConfig struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Tier        string   `yaml:"tier"` // N | R | SR | SSR | UR
	Weight      *float64 `yaml:"weight"`
	Description string   `yaml:"description,omitempty"`
}
