package fleetfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/rental-broker/internal/domain/rental"
)

// Source says where a provider's fleet comes from.
type Source string

const (
	SourceFile     Source = "file"
	SourceInline   Source = "inline"
	SourcePostgres Source = "postgres"
	SourceRemote   Source = "remote"
)

// Manifest lists the providers the broker registers at startup.
type Manifest struct {
	Providers []ProviderSpec `yaml:"providers"`
}

// ProviderSpec describes one provider. Exactly one of Fleet, Cars, URL or
// Postgres must be set.
type ProviderSpec struct {
	Name     string    `yaml:"name"`
	Fleet    string    `yaml:"fleet,omitempty"`
	Cars     []CarSpec `yaml:"cars,omitempty"`
	Postgres bool      `yaml:"postgres,omitempty"`
	URL      string    `yaml:"url,omitempty"`
}

// CarSpec is an inline fleet record.
type CarSpec struct {
	rental.CarType `yaml:",inline"`
	Count          int `yaml:"count"`
}

func (p ProviderSpec) Source() Source {
	switch {
	case p.URL != "":
		return SourceRemote
	case p.Postgres:
		return SourcePostgres
	case len(p.Cars) > 0:
		return SourceInline
	default:
		return SourceFile
	}
}

// Entries returns the inline fleet as ingestion records.
func (p ProviderSpec) Entries() []rental.FleetEntry {
	out := make([]rental.FleetEntry, 0, len(p.Cars))
	for _, c := range p.Cars {
		out = append(out, rental.FleetEntry{Type: c.CarType, Count: c.Count})
	}
	return out
}

func (p ProviderSpec) validate() error {
	if p.Name == "" {
		return errors.New("provider without a name")
	}
	set := 0
	if p.Fleet != "" {
		set++
	}
	if len(p.Cars) > 0 {
		set++
	}
	if p.Postgres {
		set++
	}
	if p.URL != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("provider %q: exactly one of fleet, cars, postgres or url is required", p.Name)
	}
	for _, c := range p.Cars {
		if c.Count < 0 {
			return fmt.Errorf("provider %q: car type %q has negative count", p.Name, c.Name)
		}
	}
	return nil
}

// DecodeManifest parses a manifest. Relative fleet paths are resolved
// against baseDir.
func DecodeManifest(r io.Reader, baseDir string) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	seen := make(map[string]struct{}, len(m.Providers))
	for i, p := range m.Providers {
		if err := p.validate(); err != nil {
			return Manifest{}, err
		}
		if _, dup := seen[p.Name]; dup {
			return Manifest{}, fmt.Errorf("provider %q listed twice: %w", p.Name, rental.ErrDuplicateProvider)
		}
		seen[p.Name] = struct{}{}
		if p.Fleet != "" && !filepath.IsAbs(p.Fleet) {
			m.Providers[i].Fleet = filepath.Join(baseDir, p.Fleet)
		}
	}
	return m, nil
}

// LoadManifest reads and validates the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	m, err := DecodeManifest(bytes.NewReader(b), filepath.Dir(path))
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
