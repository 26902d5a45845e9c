package config

// Overrides are option values set on the command line. Zero values leave
// the loaded options untouched.
type Overrides struct {
	MaxLeafSize     int
	NoSpatialSplits bool
	GridSize        uint32
	Capacity        uint32
	Radius          float32
	Workers         int
	Blacklist       []string
	LogLevel        string
}

// Apply overrides and re-validate the result.
func (o *Options) Apply(ov Overrides) error {
	if ov.MaxLeafSize != 0 {
		o.BVH.MaxLeafSize = ov.MaxLeafSize
	}
	if ov.NoSpatialSplits {
		o.BVH.SpatialSplits = false
	}
	if ov.GridSize != 0 {
		o.PhotonMap.GridSize = ov.GridSize
	}
	if ov.Capacity != 0 {
		o.PhotonMap.Capacity = ov.Capacity
	}
	if ov.Radius != 0 {
		o.PhotonMap.Radius = ov.Radius
	}
	if ov.Workers != 0 {
		o.PhotonMap.Workers = ov.Workers
	}
	if len(ov.Blacklist) != 0 {
		o.Devices.Blacklist = append(o.Devices.Blacklist, ov.Blacklist...)
	}
	if ov.LogLevel != "" {
		o.LogLevel = ov.LogLevel
	}
	return o.Validate()
}
