// Package community partitions a symbol graph into candidate modules by
// Louvain modularity optimisation.
package community

// Detector defaults.
const (
	// DefaultResolution weights the null model. Values above 1 bias toward
	// smaller communities, values below 1 toward larger ones.
	DefaultResolution = 1.0

	// DefaultMinGain is the net modularity gain a move must exceed.
	DefaultMinGain = 0.0001

	// DefaultMaxIterations caps local-move passes per level.
	DefaultMaxIterations = 100

	// DefaultMinCommunitySize is the smallest community emitted as a module.
	DefaultMinCommunitySize = 3

	// DefaultMaxLevels keeps detection to a single local-move level.
	DefaultMaxLevels = 1
)

// Options configures community detection.
type Options struct {
	// Resolution multiplies the null-model term. Default: 1.0
	Resolution float64 `json:"resolution" mapstructure:"resolution"`

	// MinGain is the threshold a move's net gain has to exceed. Default: 0.0001
	MinGain float64 `json:"minGain" mapstructure:"minGain"`

	// MaxIterations caps full passes over the nodes of one level. Default: 100
	MaxIterations int `json:"maxIterations" mapstructure:"maxIterations"`

	// MinCommunitySize filters communities out of the module list. Default: 3
	MinCommunitySize int `json:"minCommunitySize" mapstructure:"minCommunitySize"`

	// MaxLevels is the number of local-move levels. Each level after the
	// first runs on the graph of communities found by the previous one.
	// Default: 1
	MaxLevels int `json:"maxLevels" mapstructure:"maxLevels"`
}

// DefaultOptions returns the detector defaults.
func DefaultOptions() Options {
	return Options{
		Resolution:       DefaultResolution,
		MinGain:          DefaultMinGain,
		MaxIterations:    DefaultMaxIterations,
		MinCommunitySize: DefaultMinCommunitySize,
		MaxLevels:        DefaultMaxLevels,
	}
}

// Validate replaces out-of-range values. A MinCommunitySize below 1 disables
// filtering.
func (o *Options) Validate() {
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
	if o.MinGain < 0 {
		o.MinGain = DefaultMinGain
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MinCommunitySize < 1 {
		o.MinCommunitySize = 1
	}
	if o.MaxLevels <= 0 {
		o.MaxLevels = DefaultMaxLevels
	}
}
