// Package tsanalyzer implements the tree-sitter-backed structural analyzer
// (component B): parsing every source file, extracting functions/globals,
// and building the two-tier (function→function, function→API) call graph
// the worklist in package dfbscan queries by (name, arity).
package tsanalyzer
