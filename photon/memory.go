package photon

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

var (
	ErrInsufficientMemory = errors.New("photon: insufficient host memory")
)

// Check that a map with the given dimensions fits in the available host
// memory.
func CheckHostMemory(gridSize, capacity uint32) error {
	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Errorf("photon: querying host memory: %w", err)
	}

	need := Footprint(gridSize, capacity)
	if need > memInfo.Available {
		return fmt.Errorf("%w: map needs %d bytes; %d of %d bytes available", ErrInsufficientMemory, need, memInfo.Available, memInfo.Total)
	}
	return nil
}
