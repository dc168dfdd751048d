package kernel

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/utils"
)

// ErrInvalidSeed is returned for a seed entry that cannot become a process
var ErrInvalidSeed = errors.New("invalid seed process")

// Seed describes a process created at boot
type Seed struct {
	Name     string         `yaml:"name"`
	Priority types.Priority `yaml:"priority"`
	Status   types.Status   `yaml:"status,omitempty"`
}

type seedFile struct {
	Processes []Seed `yaml:"processes"`
}

// DefaultSeeds returns the standard mission process set
func DefaultSeeds() []Seed {
	return []Seed{
		{Name: "flight_control", Priority: types.PriorityP1},
		{Name: "nav_ai", Priority: types.PriorityP2},
		{Name: "driver_camera", Priority: types.PriorityP3},
		{Name: "driver_npu", Priority: types.PriorityP3},
		{Name: "dsn_comms", Priority: types.PriorityP2},
		{Name: "memory_server", Priority: types.PriorityP3},
		{Name: "file_server", Priority: types.PriorityP3},
		{Name: "device_server", Priority: types.PriorityP3},
		{Name: "recovery_agent", Priority: types.PriorityP3},
		{Name: "composition_analyzer", Priority: types.PriorityP4, Status: types.StatusWaiting},
	}
}

// LoadSeeds reads a seed list from a YAML file
func LoadSeeds(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeeds(data)
}

// ParseSeeds decodes and validates a YAML seed document
func ParseSeeds(data []byte) ([]Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := validateSeeds(f.Processes); err != nil {
		return nil, err
	}
	return f.Processes, nil
}

func validateSeeds(seeds []Seed) error {
	seen := make(map[string]bool, len(seeds))
	for i, s := range seeds {
		if err := utils.ValidateName(s.Name); err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrInvalidSeed, i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate name %s", ErrInvalidSeed, s.Name)
		}
		seen[s.Name] = true
		if !s.Priority.Valid() {
			return fmt.Errorf("%w: %s has priority %q", ErrInvalidSeed, s.Name, s.Priority)
		}
		if s.Status != "" && !s.Status.Valid() {
			return fmt.Errorf("%w: %s has status %q", ErrInvalidSeed, s.Name, s.Status)
		}
	}
	return nil
}
