package architecture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
)

// ModuleLayer is the architectural role of a module.
type ModuleLayer int

const (
	LayerUnknown ModuleLayer = iota
	LayerController
	LayerService
	LayerRepository
	LayerAdapter
	LayerUtility
)

var layerNames = [...]string{
	LayerUnknown:    "unknown",
	LayerController: "controller",
	LayerService:    "service",
	LayerRepository: "repository",
	LayerAdapter:    "adapter",
	LayerUtility:    "utility",
}

// layerLookup maps role and domain words to layers. Canonical names map to
// themselves.
var layerLookup = map[string]ModuleLayer{
	"controller":  LayerController,
	"controllers": LayerController,
	"handler":     LayerController,
	"handlers":    LayerController,
	"route":       LayerController,
	"routes":      LayerController,
	"router":      LayerController,
	"endpoint":    LayerController,
	"api":         LayerController,
	"cmd":         LayerController,
	"cli":         LayerController,
	"command":     LayerController,
	"view":        LayerController,

	"service":  LayerService,
	"services": LayerService,
	"usecase":  LayerService,
	"domain":   LayerService,
	"logic":    LayerService,
	"engine":   LayerService,
	"manager":  LayerService,
	"workflow": LayerService,

	"repository":   LayerRepository,
	"repositories": LayerRepository,
	"repo":         LayerRepository,
	"store":        LayerRepository,
	"storage":      LayerRepository,
	"dao":          LayerRepository,
	"db":           LayerRepository,
	"database":     LayerRepository,
	"persistence":  LayerRepository,
	"model":        LayerRepository,
	"models":       LayerRepository,
	"schema":       LayerRepository,

	"adapter":     LayerAdapter,
	"adapters":    LayerAdapter,
	"client":      LayerAdapter,
	"gateway":     LayerAdapter,
	"integration": LayerAdapter,
	"provider":    LayerAdapter,
	"transport":   LayerAdapter,
	"backend":     LayerAdapter,
	"backends":    LayerAdapter,

	"utility": LayerUtility,
	"util":    LayerUtility,
	"utils":   LayerUtility,
	"helper":  LayerUtility,
	"helpers": LayerUtility,
	"common":  LayerUtility,
	"shared":  LayerUtility,
	"lib":     LayerUtility,
	"pkg":     LayerUtility,

	"unknown": LayerUnknown,
}

// String returns the lowercase layer name.
func (l ModuleLayer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return layerNames[LayerUnknown]
	}
	return layerNames[l]
}

// ParseLayer looks a role word up in the layer table. Unknown words map to
// LayerUnknown with ok false.
func ParseLayer(s string) (layer ModuleLayer, ok bool) {
	layer, ok = layerLookup[strings.ToLower(strings.TrimSpace(s))]
	return layer, ok
}

// MarshalText implements encoding.TextMarshaler.
func (l ModuleLayer) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only canonical names
// and lookup words are accepted.
func (l *ModuleLayer) UnmarshalText(text []byte) error {
	layer, ok := ParseLayer(string(text))
	if !ok {
		return fmt.Errorf("unknown module layer %q", text)
	}
	*l = layer
	return nil
}

// InferLayer votes over the words found in hints (module names, directory
// paths, symbol names). The layer with most votes wins; ties go to the
// lower enum value. No votes means LayerUnknown.
func InferLayer(hints ...string) ModuleLayer {
	var votes [len(layerNames)]int
	for _, h := range hints {
		for _, w := range splitWords(h) {
			if layer, ok := layerLookup[w]; ok && layer != LayerUnknown {
				votes[layer]++
			}
		}
	}

	best := LayerUnknown
	for l := LayerController; int(l) < len(votes); l++ {
		if votes[l] > votes[best] {
			best = l
		}
	}
	return best
}

// splitWords lowercases s and splits it on separators and camelCase humps.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

// LayerOverrides are manual layer assignments read from LAYERS.toml:
//
//	[modules]
//	"project.storage" = "repository"
//
//	[[paths]]
//	prefix = "internal/api/"
//	layer = "controller"
//
// Module entries win over path rules; among path rules the longest matching
// prefix wins.
type LayerOverrides struct {
	Modules map[string]ModuleLayer `toml:"modules"`
	Paths   []PathRule             `toml:"paths"`
}

// PathRule assigns a layer to modules whose files mostly live under Prefix.
type PathRule struct {
	Prefix string      `toml:"prefix"`
	Layer  ModuleLayer `toml:"layer"`
}

// LoadLayerOverrides reads a LAYERS.toml file. A missing file yields empty
// overrides.
func LoadLayerOverrides(path string) (*LayerOverrides, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &LayerOverrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read layer overrides: %w", err)
	}
	return ParseLayerOverrides(data)
}

// ParseLayerOverrides decodes LAYERS.toml content.
func ParseLayerOverrides(data []byte) (*LayerOverrides, error) {
	var o LayerOverrides
	if err := toml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse layer overrides: %w", err)
	}
	sort.SliceStable(o.Paths, func(i, j int) bool {
		return len(o.Paths[i].Prefix) > len(o.Paths[j].Prefix)
	})
	return &o, nil
}

// Lookup returns the override for a module given its full path and its
// dominant directory.
func (o *LayerOverrides) Lookup(fullPath, dir string) (ModuleLayer, bool) {
	if o == nil {
		return LayerUnknown, false
	}
	if layer, ok := o.Modules[fullPath]; ok {
		return layer, true
	}
	probe := strings.TrimSuffix(dir, "/") + "/"
	for _, rule := range o.Paths {
		if strings.HasPrefix(probe, strings.TrimSuffix(rule.Prefix, "/")+"/") {
			return rule.Layer, true
		}
	}
	return LayerUnknown, false
}
