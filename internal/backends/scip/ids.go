package scip

import (
	"fmt"
	"strings"
	"unicode"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
)

// IsLocalSymbol reports whether id is a document-local symbol such as
// "local 12". Local symbols never leave their document.
func IsLocalSymbol(id string) bool {
	return strings.HasPrefix(id, "local ")
}

// parseGlobalSymbol parses a global symbol into its descriptor chain, e.g.
// "scip-go gomod squint v1 `squint/internal/graph`/Graph#AddEdge()." has a
// namespace, a type and a method descriptor.
func parseGlobalSymbol(symbol string) (*scippb.Symbol, error) {
	if symbol == "" || IsLocalSymbol(symbol) {
		return nil, fmt.Errorf("not a global symbol: %q", symbol)
	}
	parsed, err := scippb.ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if len(parsed.Descriptors) == 0 {
		return nil, fmt.Errorf("symbol has no descriptors: %q", symbol)
	}
	return parsed, nil
}

// simpleName is the name of the innermost descriptor.
func simpleName(parsed *scippb.Symbol) string {
	return parsed.Descriptors[len(parsed.Descriptors)-1].Name
}

// descriptorKind infers a kind from the descriptor chain for indexers that
// leave SymbolInformation.Kind unset. A term inside a type is a field, and
// an all-caps top-level term is a constant.
func descriptorKind(parsed *scippb.Symbol) SymbolKind {
	descs := parsed.Descriptors
	last := descs[len(descs)-1]
	inType := false
	for _, d := range descs[:len(descs)-1] {
		if d.Suffix == scippb.Descriptor_Type {
			inType = true
		}
	}

	switch last.Suffix {
	case scippb.Descriptor_Namespace:
		return KindPackage
	case scippb.Descriptor_Parameter, scippb.Descriptor_TypeParameter:
		return KindParameter
	case scippb.Descriptor_Type:
		return KindClass
	case scippb.Descriptor_Method:
		if inType {
			return KindMethod
		}
		return KindFunction
	case scippb.Descriptor_Macro:
		return KindFunction
	case scippb.Descriptor_Term:
		if inType {
			return KindField
		}
		if isConstantName(last.Name) {
			return KindConstant
		}
		return KindVariable
	}
	return KindUnknown
}

func isConstantName(name string) bool {
	letters := 0
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters > 1
}
