package extract

// Wire types for the subset of the Language Server Protocol the extraction
// pipeline and query engine need. Positions are 0-based line/character
// pairs per the LSP base protocol — converting to the 1-based
// symbol.Position convention happens at the translation boundary in
// primary.go/workspace.go/relations.go, never here.

type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

type lspLocation struct {
	URI   string   `json:"uri"`
	Range lspRange `json:"range"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type textDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

type textDocumentPositionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     lspPosition            `json:"position"`
}

type referenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

type referenceParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     lspPosition            `json:"position"`
	Context      referenceContext       `json:"context"`
}

type documentSymbolParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

// documentSymbolNode mirrors LSP's hierarchical DocumentSymbol shape (as
// opposed to the flat SymbolInformation shape some servers report instead;
// the extraction strategy below accepts either).
type documentSymbolNode struct {
	Name           string                `json:"name"`
	Detail         string                `json:"detail"`
	Kind           int                   `json:"kind"`
	Range          lspRange              `json:"range"`
	SelectionRange lspRange              `json:"selectionRange"`
	Children       []documentSymbolNode  `json:"children"`
}

// symbolInformation is the flat shape returned by workspace/symbol (and by
// textDocument/documentSymbol on servers that don't support hierarchy).
type symbolInformation struct {
	Name          string      `json:"name"`
	Kind          int         `json:"kind"`
	ContainerName string      `json:"containerName"`
	Location      lspLocation `json:"location"`
}

type workspaceSymbolParams struct {
	Query string `json:"query"`
}

type callHierarchyItem struct {
	Name           string      `json:"name"`
	Kind           int         `json:"kind"`
	URI            string      `json:"uri"`
	Range          lspRange    `json:"range"`
	SelectionRange lspRange    `json:"selectionRange"`
}

type callHierarchyPrepareParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     lspPosition            `json:"position"`
}

type callHierarchyIncomingCall struct {
	From       callHierarchyItem `json:"from"`
	FromRanges []lspRange        `json:"fromRanges"`
}

type callHierarchyOutgoingCall struct {
	To         callHierarchyItem `json:"to"`
	FromRanges []lspRange        `json:"fromRanges"`
}

type callHierarchyIncomingCallsParams struct {
	Item callHierarchyItem `json:"item"`
}

type callHierarchyOutgoingCallsParams struct {
	Item callHierarchyItem `json:"item"`
}

// lspKindToSymbolKindFor maps LSP's numeric SymbolKind to our Kind. Kinds the
// protocol distinguishes but the data model does not (e.g. Namespace vs.
// Package vs. Module) collapse onto the nearest match.
func lspKindToSymbolKindFor(k int) string {
	switch k {
	case 12: // Function
		return "function"
	case 6: // Method
		return "method"
	case 5, 23: // Class, Struct
		return "struct"
	case 11: // Interface
		return "interface"
	case 10: // Enum
		return "enum"
	case 22: // EnumMember
		return "enum_member"
	case 8: // Field
		return "field"
	case 13: // Variable
		return "variable"
	case 14: // Constant
		return "constant"
	case 2, 3, 4: // Module, Namespace, Package
		return "module"
	case 26: // TypeParameter
		return "type_alias"
	default:
		return "other"
	}
}
