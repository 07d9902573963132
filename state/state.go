// Package state implements the single shared, concurrent accumulator that
// every DFBScan worker writes into (component F of the design): four maps
// guarded by one coarse lock, append-only for the life of a scan, and read
// back in a single consistent pass when reports are emitted.
package state

import (
	"sort"
	"sync"

	"github.com/dfbscan/dfbscan/callctx"
	"github.com/dfbscan/dfbscan/model"
)

// PathNode is a (value, calling-context) pair — the unit the worklist and
// the state store both key on. Two PathNodes describing the same value at
// the same context compare equal regardless of which goroutine built them,
// because both Value and CallContext define equality over their string form.
type PathNode struct {
	Value   model.Value
	Context callctx.CallContext
}

// Key returns the string this PathNode is deduplicated and looked up by.
func (p PathNode) Key() string {
	return p.Value.String() + "\x00" + p.Context.String()
}

// Frontier is the set of PathNodes reached on one distinct intra-procedural
// execution path, keyed by PathNode.Key for set semantics.
type Frontier map[string]PathNode

// NewFrontier builds a Frontier from a slice of nodes, deduplicating.
func NewFrontier(nodes ...PathNode) Frontier {
	f := make(Frontier, len(nodes))
	for _, n := range nodes {
		f[n.Key()] = n
	}
	return f
}

// Values returns the frontier's members in a stable (key-sorted) order, so
// callers that need deterministic iteration (report emission, tests) don't
// depend on Go's randomized map order.
func (f Frontier) Values() []PathNode {
	out := make([]PathNode, 0, len(f))
	for _, v := range f {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

type startEntry struct {
	start     PathNode
	frontiers []Frontier
}

type externalEntry struct {
	start PathNode
	ends  Frontier
}

// BugReport is an immutable record of one confirmed propagation, matching
// the persisted detect_info.json record shape.
type BugReport struct {
	BugType             string
	BuggyValue          model.Value
	RelevantFunctions   []*model.Function
	Explanation         string
	IsHumanConfirmedTrue string // "True" | "False" | "unknown"
}

// DFBScanState is the shared accumulator guarding scan progress. All mutators
// take the single lock; map value types are append-only (sets grow, lists
// append) so a reader taking the lock once sees a consistent snapshot.
type DFBScanState struct {
	mu sync.Mutex

	reachablePerStart map[string]*startEntry
	externalMatch     map[string]*externalEntry
	buggyPaths        map[string]map[string][]model.Value // src value key -> path string -> path

	bugReports    map[int]BugReport
	nextReportID  int
}

// New returns an empty DFBScanState ready for concurrent use.
func New() *DFBScanState {
	return &DFBScanState{
		reachablePerStart: make(map[string]*startEntry),
		externalMatch:     make(map[string]*externalEntry),
		buggyPaths:        make(map[string]map[string][]model.Value),
		bugReports:        make(map[int]BugReport),
	}
}

// UpdateReachableValuesPerPath appends one more frontier to the list
// recorded against (start value, start context).
func (s *DFBScanState) UpdateReachableValuesPerPath(start PathNode, ends Frontier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := start.Key()
	entry, ok := s.reachablePerStart[key]
	if !ok {
		entry = &startEntry{start: start}
		s.reachablePerStart[key] = entry
	}
	entry.frontiers = append(entry.frontiers, ends)
}

// ReachableValuesPerPath returns the recorded frontiers for a given start
// node, or nil if none have been recorded.
func (s *DFBScanState) ReachableValuesPerPath(start PathNode) []Frontier {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.reachablePerStart[start.Key()]
	if !ok {
		return nil
	}
	return entry.frontiers
}

// UpdateExternalValueMatch merges ends into the external-match set recorded
// for externalStart — the ARG→PARA, RET→OUT, PARA→ARG link produced when a
// propagation crosses a call site.
func (s *DFBScanState) UpdateExternalValueMatch(externalStart PathNode, ends Frontier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := externalStart.Key()
	entry, ok := s.externalMatch[key]
	if !ok {
		entry = &externalEntry{start: externalStart, ends: make(Frontier)}
		s.externalMatch[key] = entry
	}
	for k, v := range ends {
		entry.ends[k] = v
	}
}

// ExternalValueMatch returns the recorded external matches for a node, or
// nil (and false) if none exist.
func (s *DFBScanState) ExternalValueMatch(node PathNode) (Frontier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.externalMatch[node.Key()]
	if !ok {
		return nil, false
	}
	return entry.ends, true
}

// HasPropagationInfo reports whether node appears in either accumulator —
// the base case the recursive path collector uses to stop recursion.
func (s *DFBScanState) HasPropagationInfo(node PathNode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, inReachable := s.reachablePerStart[node.Key()]
	_, inExternal := s.externalMatch[node.Key()]
	return inReachable || inExternal
}

// pathString renders a candidate path the same way it is deduplicated by:
// a literal, order-significant string of its member Values.
func pathString(path []model.Value) string {
	s := "["
	for i, v := range path {
		if i > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s + "]"
}

// UpdatePotentialBuggyPaths records a candidate propagation chain for a
// source seed, deduplicated by its string form.
func (s *DFBScanState) UpdatePotentialBuggyPaths(src model.Value, path []model.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := src.String()
	paths, ok := s.buggyPaths[key]
	if !ok {
		paths = make(map[string][]model.Value)
		s.buggyPaths[key] = paths
	}
	paths[pathString(path)] = path
}

// PotentialBuggyPaths returns the deduplicated candidate paths recorded for
// a source seed.
func (s *DFBScanState) PotentialBuggyPaths(src model.Value) [][]model.Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, ok := s.buggyPaths[src.String()]
	if !ok {
		return nil
	}
	out := make([][]model.Value, 0, len(paths))
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, paths[k])
	}
	return out
}

// UpdateBugReport appends an immutable report under the next monotonic id.
// Numbering is monotonic but not semantically meaningful.
func (s *DFBScanState) UpdateBugReport(report BugReport) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextReportID
	s.bugReports[id] = report
	s.nextReportID++
	return id
}

// BugReports returns a single consistent snapshot of every report recorded
// so far, keyed by report id.
func (s *DFBScanState) BugReports() map[int]BugReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]BugReport, len(s.bugReports))
	for k, v := range s.bugReports {
		out[k] = v
	}
	return out
}
