package content

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/veldtsim/fireline/internal/doctrine"
	"github.com/veldtsim/fireline/internal/sim"
)

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}

// Pack is everything loadable from one content directory.
type Pack struct {
	Weapons   map[string]sim.WeaponProfile
	Doctrines map[string]doctrine.Doctrine
	Scenarios map[string]*Scenario
}

// LoadPack reads weapons.yaml, doctrines.yaml, and scenarios/*.yaml from
// dir. Missing weapons or doctrines files fall back to built-in sets; a
// missing scenarios directory yields an empty scenario map.
func LoadPack(dir string) (*Pack, error) {
	p := &Pack{
		Weapons:   map[string]sim.WeaponProfile{"rifle": sim.DefaultRifle()},
		Doctrines: builtinDoctrines(),
		Scenarios: map[string]*Scenario{},
	}

	var wf WeaponsFile
	switch err := loadYAML(filepath.Join(dir, "weapons.yaml"), &wf); {
	case err == nil:
		for _, ws := range wf.Weapons {
			if err := ws.validate(); err != nil {
				return nil, fmt.Errorf("weapons.yaml: %w", err)
			}
			p.Weapons[ws.Name] = ws.Profile()
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("weapons.yaml: %w", err)
	}

	var df DoctrinesFile
	switch err := loadYAML(filepath.Join(dir, "doctrines.yaml"), &df); {
	case err == nil:
		for _, d := range df.Doctrines {
			if d.Name == "" {
				return nil, fmt.Errorf("doctrines.yaml: doctrine with empty name")
			}
			d.Validate()
			p.Doctrines[d.Name] = d
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("doctrines.yaml: %w", err)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "scenarios", "*.yaml"))
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		var sc Scenario
		if err := loadYAML(path, &sc); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if err := sc.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if _, dup := p.Scenarios[sc.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate scenario name %q", filepath.Base(path), sc.Name)
		}
		p.Scenarios[sc.Name] = &sc
	}
	return p, nil
}

// LoadScenario reads and validates a single scenario file.
func LoadScenario(path string) (*Scenario, error) {
	var sc Scenario
	if err := loadYAML(path, &sc); err != nil {
		return nil, err
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func builtinDoctrines() map[string]doctrine.Doctrine {
	out := map[string]doctrine.Doctrine{}
	for _, d := range []doctrine.Doctrine{
		doctrine.DefaultDoctrine(),
		doctrine.AssaultDoctrine(),
		doctrine.HoldDoctrine(),
	} {
		out[d.Name] = d
	}
	return out
}
