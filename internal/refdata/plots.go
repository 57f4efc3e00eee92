package refdata

import (
	"encoding/json"
	"fmt"
	"os"
)

// meshAxes is the on-disk form of one plot's mesh grid: the sets of
// valid x and y coordinates whose cross product spans the plot.
type meshAxes struct {
	X []int `json:"x"`
	Y []int `json:"y"`
}

// MeshTable holds the valid mesh-coordinate combinations per plot.
type MeshTable struct {
	combos map[string]map[[2]int]struct{}
}

// LoadMeshTable reads the per-plot mesh coordinates from a JSON file and
// expands each plot's axes into the set of valid (x, y) pairs.
func LoadMeshTable(path string) (*MeshTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var axes map[string]meshAxes
	if err := json.Unmarshal(raw, &axes); err != nil {
		return nil, fmt.Errorf("mesh table %s: %w", path, err)
	}

	t := &MeshTable{combos: map[string]map[[2]int]struct{}{}}
	for plot, a := range axes {
		set := make(map[[2]int]struct{}, len(a.X)*len(a.Y))
		for _, x := range a.X {
			for _, y := range a.Y {
				set[[2]int{x, y}] = struct{}{}
			}
		}
		t.combos[plot] = set
	}
	return t, nil
}

// HasPlot reports whether mesh coordinates are defined for a plot.
func (t *MeshTable) HasPlot(plot string) bool {
	if t == nil {
		return false
	}
	_, ok := t.combos[plot]
	return ok
}

// Contains reports whether (x, y) is a valid mesh coordinate of a plot.
func (t *MeshTable) Contains(plot string, x, y int) bool {
	if t == nil {
		return false
	}
	_, ok := t.combos[plot][[2]int{x, y}]
	return ok
}

// trapAxes is the on-disk form of one plot's trap inventory.
type trapAxes struct {
	TrapID []string `json:"trap_id"`
}

// TrapTable holds the litter/seed trap inventory per plot.
type TrapTable struct {
	traps map[string][]string
	sets  map[string]map[string]struct{}
}

// LoadTrapTable reads the per-plot trap lists from a JSON file.
func LoadTrapTable(path string) (*TrapTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var axes map[string]trapAxes
	if err := json.Unmarshal(raw, &axes); err != nil {
		return nil, fmt.Errorf("trap table %s: %w", path, err)
	}

	t := &TrapTable{
		traps: map[string][]string{},
		sets:  map[string]map[string]struct{}{},
	}
	for plot, a := range axes {
		t.traps[plot] = a.TrapID
		set := make(map[string]struct{}, len(a.TrapID))
		for _, id := range a.TrapID {
			set[id] = struct{}{}
		}
		t.sets[plot] = set
	}
	return t, nil
}

// Traps returns the trap inventory of a plot in file order.
func (t *TrapTable) Traps(plot string) []string {
	if t == nil {
		return nil
	}
	return t.traps[plot]
}

// Contains reports whether a trap id belongs to a plot's inventory.
func (t *TrapTable) Contains(plot, trap string) bool {
	if t == nil {
		return false
	}
	_, ok := t.sets[plot][trap]
	return ok
}
