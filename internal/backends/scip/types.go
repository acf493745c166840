package scip

import (
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
)

// SymbolKind represents the kind of a symbol
type SymbolKind string

const (
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindType      SymbolKind = "type"
	KindPackage   SymbolKind = "package"
	KindField     SymbolKind = "field"
	KindParameter SymbolKind = "parameter"
	KindEnum      SymbolKind = "enum"
	KindUnknown   SymbolKind = "unknown"
)

// IsType reports whether references to the kind only need the type at
// compile time.
func (k SymbolKind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindType, KindEnum:
		return true
	}
	return false
}

// IsCallable reports whether the kind has a body that can make calls.
func (k SymbolKind) IsCallable() bool {
	return k == KindFunction || k == KindMethod
}

// SymbolRole constants (from SCIP protocol)
const (
	SymbolRoleDefinition = int32(scippb.SymbolRole_Definition)
	SymbolRoleImport     = int32(scippb.SymbolRole_Import)
)

// mapSCIPKind converts the SCIP kind enum. Indexers that leave the kind
// unset yield KindUnknown and the descriptor decides instead.
func mapSCIPKind(kind scippb.SymbolInformation_Kind) SymbolKind {
	switch kind {
	case scippb.SymbolInformation_Class, scippb.SymbolInformation_Struct:
		return KindClass
	case scippb.SymbolInformation_Interface, scippb.SymbolInformation_Trait:
		return KindInterface
	case scippb.SymbolInformation_Enum:
		return KindEnum
	case scippb.SymbolInformation_Type, scippb.SymbolInformation_TypeAlias:
		return KindType
	case scippb.SymbolInformation_Function:
		return KindFunction
	case scippb.SymbolInformation_Method, scippb.SymbolInformation_Constructor:
		return KindMethod
	case scippb.SymbolInformation_Constant:
		return KindConstant
	case scippb.SymbolInformation_Variable:
		return KindVariable
	case scippb.SymbolInformation_Field:
		return KindField
	case scippb.SymbolInformation_Property:
		return KindProperty
	case scippb.SymbolInformation_Parameter, scippb.SymbolInformation_TypeParameter:
		return KindParameter
	case scippb.SymbolInformation_Package, scippb.SymbolInformation_Namespace, scippb.SymbolInformation_Module:
		return KindPackage
	}
	return KindUnknown
}
