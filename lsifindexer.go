// Package lsifindexer builds and queries a symbol graph over a source
// tree: differential indexing driven by Git history and content hashing,
// extraction through pooled language-server clients (falling back to
// regex-based definitions), and a query engine over the resulting graph
// for definitions, references, call hierarchies, workspace search, dead
// code, and type hierarchies.
package lsifindexer
