package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/achilleasa/accel/asset"
	"github.com/achilleasa/accel/bvh"
	"github.com/achilleasa/accel/log"
)

var (
	ErrInvalidOption = errors.New("config: invalid option")
)

// BVH builder options.
type BVH struct {
	MaxLeafSize   int     `json:"maxLeafSize,omitempty"`
	Bins          int     `json:"bins,omitempty"`
	SpatialSplits bool    `json:"spatialSplits"`
	Alpha         float32 `json:"alpha,omitempty"`
	Budget        float32 `json:"budget,omitempty"`
}

// Photon map sizing. GridSize is the number of cells per axis and Capacity
// the number of photons stored per pass.
type PhotonMap struct {
	GridSize uint32  `json:"gridSize,omitempty"`
	Capacity uint32  `json:"capacity,omitempty"`
	Radius   float32 `json:"radius,omitempty"`
	Workers  int     `json:"workers,omitempty"`
}

// OpenCL device selection. Devices whose name contains any blacklist entry
// are skipped; if Prefer is set, matching devices are listed first.
type Devices struct {
	Blacklist []string `json:"blacklist,omitempty"`
	Prefer    string   `json:"prefer,omitempty"`
}

type Options struct {
	BVH       BVH       `json:"bvh"`
	PhotonMap PhotonMap `json:"photonMap"`
	Devices   Devices   `json:"devices"`
	LogLevel  string    `json:"logLevel,omitempty"`
}

// Default options.
func Default() *Options {
	def := bvh.DefaultOptions()
	return &Options{
		BVH: BVH{
			MaxLeafSize:   def.MaxLeafSize,
			Bins:          def.Bins,
			SpatialSplits: def.SpatialSplits,
			Alpha:         def.SpatialSplitAlpha,
			Budget:        def.SpatialSplitBudget,
		},
		PhotonMap: PhotonMap{
			GridSize: 64,
			Capacity: 1 << 20,
			Radius:   0.1,
			Workers:  8,
		},
		LogLevel: log.Notice.String(),
	}
}

// Load options from a JSON resource. Values missing from the resource keep
// their defaults.
func Load(res *asset.Resource) (*Options, error) {
	data, err := res.ReadAll()
	if err != nil {
		return nil, err
	}

	opts := Default()
	if err = json.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", res.Path(), err)
	}
	if err = opts.Validate(); err != nil {
		return nil, err
	}

	log.New("config").Infof("loaded options from %s", res.Path())
	return opts, nil
}

// Load options from a file path or URL.
func LoadFile(pathToOptions string) (*Options, error) {
	res, err := asset.NewResource(pathToOptions, nil)
	if err != nil {
		return nil, err
	}
	return Load(res)
}

// Validate option values.
func (o *Options) Validate() error {
	switch {
	case o.BVH.MaxLeafSize < 1:
		return fmt.Errorf("%w: bvh.maxLeafSize must be >= 1; got %d", ErrInvalidOption, o.BVH.MaxLeafSize)
	case o.BVH.Bins < 2:
		return fmt.Errorf("%w: bvh.bins must be >= 2; got %d", ErrInvalidOption, o.BVH.Bins)
	case o.BVH.Budget < 0:
		return fmt.Errorf("%w: bvh.budget must be >= 0; got %v", ErrInvalidOption, o.BVH.Budget)
	case o.PhotonMap.GridSize == 0 || o.PhotonMap.GridSize > 1024:
		return fmt.Errorf("%w: photonMap.gridSize must be in [1, 1024]; got %d", ErrInvalidOption, o.PhotonMap.GridSize)
	case o.PhotonMap.Capacity == 0:
		return fmt.Errorf("%w: photonMap.capacity must be > 0", ErrInvalidOption)
	case o.PhotonMap.Workers < 1:
		return fmt.Errorf("%w: photonMap.workers must be >= 1; got %d", ErrInvalidOption, o.PhotonMap.Workers)
	}

	if _, err := log.ParseLevel(o.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	return nil
}

// Builder options for the bvh package.
func (o *Options) BuilderOptions() bvh.Options {
	opts := bvh.DefaultOptions()
	opts.MaxLeafSize = o.BVH.MaxLeafSize
	opts.Bins = o.BVH.Bins
	opts.SpatialSplits = o.BVH.SpatialSplits
	opts.SpatialSplitAlpha = o.BVH.Alpha
	opts.SpatialSplitBudget = o.BVH.Budget
	return opts
}

// Parsed log level.
func (o *Options) Level() log.Level {
	level, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		return log.Notice
	}
	return level
}
