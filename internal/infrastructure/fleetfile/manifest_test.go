package fleetfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/rental-broker/internal/domain/rental"
)

const manifestYAML = `
providers:
  - name: Hertz
    fleet: data/hertz.csv
  - name: Dockx
    cars:
      - name: Van
        seats: 8
        trunkSpace: 6
        pricePerDay: 90
        smokingAllowed: false
        count: 2
  - name: Avis
    postgres: true
  - name: Europcar
    url: http://europcar:8080
`

func TestDecodeManifest(t *testing.T) {
	m, err := DecodeManifest(strings.NewReader(manifestYAML), "/etc/rentalbroker")
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	if len(m.Providers) != 4 {
		t.Fatalf("providers = %d, want 4", len(m.Providers))
	}

	wantSources := []Source{SourceFile, SourceInline, SourcePostgres, SourceRemote}
	for i, p := range m.Providers {
		if p.Source() != wantSources[i] {
			t.Errorf("%s: source = %s, want %s", p.Name, p.Source(), wantSources[i])
		}
	}
	if got := m.Providers[0].Fleet; got != filepath.Join("/etc/rentalbroker", "data/hertz.csv") {
		t.Errorf("fleet path = %q", got)
	}

	entries := m.Providers[1].Entries()
	want := rental.FleetEntry{Type: rental.CarType{Name: "Van", Seats: 8, TrunkSpace: 6, PricePerDay: 90}, Count: 2}
	if len(entries) != 1 || entries[0] != want {
		t.Errorf("inline entries = %+v, want [%+v]", entries, want)
	}
}

func TestDecodeManifestRejects(t *testing.T) {
	cases := map[string]string{
		"no name":       "providers:\n  - fleet: a.csv\n",
		"no source":     "providers:\n  - name: Hertz\n",
		"two sources":   "providers:\n  - name: Hertz\n    fleet: a.csv\n    url: http://x\n",
		"unknown field": "providers:\n  - name: Hertz\n    fleet: a.csv\n    colour: red\n",
	}
	for name, in := range cases {
		if _, err := DecodeManifest(strings.NewReader(in), "."); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	dup := "providers:\n  - name: Hertz\n    fleet: a.csv\n  - name: Hertz\n    fleet: b.csv\n"
	if _, err := DecodeManifest(strings.NewReader(dup), "."); !errors.Is(err, rental.ErrDuplicateProvider) {
		t.Errorf("duplicate: got %v", err)
	}
}

func TestLoadManifestResolvesRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleet.yaml")
	if err := os.WriteFile(path, []byte("providers:\n  - name: Hertz\n    fleet: hertz.csv\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if got := m.Providers[0].Fleet; got != filepath.Join(dir, "hertz.csv") {
		t.Fatalf("fleet = %q", got)
	}
}
