package tsanalyzer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dfbscan/dfbscan/model"
)

// Source is one file handed to the analyzer: its path and raw bytes.
type Source struct {
	Path string
	Code []byte
}

// Options configures the two bounded worker pools construction uses.
type Options struct {
	ParseWorkers     int
	CallGraphWorkers int
}

// DefaultOptions mirrors the reference worker-pool size (5) used for the
// file-parsing stage; the call-graph stage defaults to the same width since
// per-function call resolution is comparably cheap, embarrassingly parallel
// work.
func DefaultOptions() Options {
	return Options{ParseWorkers: 5, CallGraphWorkers: 5}
}

// ParseFailure records a file that could not be parsed; failure
// semantics this never aborts the batch, only skips the file.
type ParseFailure struct {
	Path string
	Err  error
}

// callSite is one resolved or unresolved call-like node inside a function.
type callSite struct {
	caller     *model.Function
	node       *sitter.Node
	calleeName string
	arity      int
	calleeFunc *model.Function // nil if unresolved to a user function
	calleeAPI  *model.API      // non-nil iff calleeFunc is nil
}

// Analyzer is the immutable, constructed two-tier call graph plus the query
// surface exposed to the worklist. Everything is read-only after Build
// returns, so concurrent readers need no synchronization (the worklist
// queries it from many goroutines at once).
type Analyzer struct {
	lang    Language
	adapter adapter

	trees map[string]*sitter.Node // arena of parse-tree roots, keyed by file path
	src   map[string][]byte

	functions       map[int]*model.Function
	functionsByName map[string][]*model.Function
	functionsByFile map[string][]*model.Function

	apis     map[model.APIKey]*model.API
	callSites []callSite

	funcCallees map[int][]*model.Function
	funcCallers map[int][]*model.Function
	funcAPIs    map[int][]*model.API

	callSitesOf map[int][]*callSite // keyed by caller function id, in extraction order

	Failures []ParseFailure
}

// Build runs both construction stages over sources for the given language.
func Build(ctx context.Context, sources []Source, lang Language, opts Options) (*Analyzer, error) {
	ad, err := adapterFor(lang)
	if err != nil {
		return nil, err
	}
	if opts.ParseWorkers <= 0 {
		opts.ParseWorkers = 1
	}
	if opts.CallGraphWorkers <= 0 {
		opts.CallGraphWorkers = 1
	}

	a := &Analyzer{
		lang:            lang,
		adapter:         ad,
		trees:           make(map[string]*sitter.Node, len(sources)),
		src:             make(map[string][]byte, len(sources)),
		functions:       make(map[int]*model.Function),
		functionsByName: make(map[string][]*model.Function),
		functionsByFile: make(map[string][]*model.Function),
		apis:            make(map[model.APIKey]*model.API),
		funcCallees:     make(map[int][]*model.Function),
		funcCallers:     make(map[int][]*model.Function),
		funcAPIs:        make(map[int][]*model.API),
		callSitesOf:     make(map[int][]*callSite),
	}

	a.stageOneParse(ctx, sources, opts.ParseWorkers)
	a.stageTwoCallGraph(ctx, opts.CallGraphWorkers)
	return a, nil
}

type parseResult struct {
	path      string
	tree      *sitter.Node
	closer    *sitter.Tree
	functions []funcSpec
	globals   []globalSpec
	err       error
}

// stageOneParse parses every file, caches its tree, and extracts functions
// and globals — all per-file work, fanned out over a bounded worker pool,
// grounded on the file-worker-pool shape used elsewhere in this codebase for
// batch tree-sitter parsing (fileChan/resultChan over N workers, each owning
// its own *sitter.Parser).
func (a *Analyzer) stageOneParse(ctx context.Context, sources []Source, workers int) {
	fileChan := make(chan Source, len(sources))
	resultChan := make(chan parseResult, len(sources))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parser := sitter.NewParser()
			defer parser.Close()
			parser.SetLanguage(a.adapter.Grammar())

			for src := range fileChan {
				tree, err := parser.ParseCtx(ctx, nil, src.Code)
				if err != nil {
					resultChan <- parseResult{path: src.Path, err: err}
					continue
				}
				root := tree.RootNode()
				resultChan <- parseResult{
					path:      src.Path,
					tree:      root,
					closer:    tree,
					functions: a.adapter.ExtractFunctions(root, src.Code),
					globals:   a.adapter.ExtractGlobals(root, src.Code),
				}
			}
		}()
	}

	for _, src := range sources {
		fileChan <- src
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	nextID := 1
	for res := range resultChan {
		if res.err != nil {
			a.Failures = append(a.Failures, ParseFailure{Path: res.path, Err: res.err})
			continue
		}
		a.trees[res.path] = res.tree
		src := findSource(sources, res.path)
		a.src[res.path] = src

		for _, fs := range res.functions {
			fn := model.NewFunction(nextID, fs.Name, fs.Node.Content(src), fs.StartLine, fs.EndLine, fs.Node, res.path)
			nextID++
			fn.IfStatements = toModelIfStatements(a.adapter.IfStatements(fs.Node))
			fn.LoopStatements = toModelLoopStatements(a.adapter.LoopStatements(fs.Node))

			// Parameter/return/call-site Values are keyed by absolute file
			// line throughout the analyzer and the worklist that consumes
			// it, so that any Value can be resolved back to its enclosing
			// function via FunctionFor without first knowing which function
			// it came from. Conversion to function-relative numbering is a
			// prompt-rendering concern handled at the oracle boundary.
			var paras []model.Value
			for idx, p := range a.adapter.Parameters(fs.Node, src) {
				paras = append(paras, model.NewIndexedValue(p.Name, p.Line, model.PARA, res.path, idx))
			}
			fn.SetParameters(paras)

			var retvals []model.Value
			for _, r := range a.adapter.Returns(fs.Node, src) {
				retvals = append(retvals, model.NewValue(r.Text, r.Line, model.RET, res.path))
			}
			fn.SetReturns(retvals)

			a.functions[fn.ID] = fn
			a.functionsByName[fn.Name] = append(a.functionsByName[fn.Name], fn)
			a.functionsByFile[res.path] = append(a.functionsByFile[res.path], fn)
		}
	}

	for _, fns := range a.functionsByName {
		sort.Slice(fns, func(i, j int) bool { return fns[i].ID < fns[j].ID })
	}
}

func findSource(sources []Source, path string) []byte {
	for _, s := range sources {
		if s.Path == path {
			return s.Code
		}
	}
	return nil
}

func toModelIfStatements(specs []ifSpec) []model.IfStatement {
	out := make([]model.IfStatement, 0, len(specs))
	for _, s := range specs {
		out = append(out, model.IfStatement{StartLine: s.StartLine, EndLine: s.EndLine, ConsequentEnd: s.ConsequentEnd, AlternateStart: s.AlternateStart})
	}
	return out
}

func toModelLoopStatements(specs []loopSpec) []model.LoopStatement {
	out := make([]model.LoopStatement, 0, len(specs))
	for _, s := range specs {
		out = append(out, model.LoopStatement{StartLine: s.StartLine, EndLine: s.EndLine})
	}
	return out
}

type callGraphResult struct {
	funcID int
	sites  []callSite
}

// stageTwoCallGraph resolves every call-like node inside every function to
// either a (name, arity)-matching user function or an interned external API,
// storing both directions of each edge.
func (a *Analyzer) stageTwoCallGraph(ctx context.Context, workers int) {
	fnList := make([]*model.Function, 0, len(a.functions))
	for _, fn := range a.functions {
		fnList = append(fnList, fn)
	}
	sort.Slice(fnList, func(i, j int) bool { return fnList[i].ID < fnList[j].ID })

	fnChan := make(chan *model.Function, len(fnList))
	resultChan := make(chan callGraphResult, len(fnList))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fn := range fnChan {
				src := a.src[fn.FilePath]
				var sites []callSite
				for _, call := range a.adapter.CallNodes(fn.Node) {
					name := a.adapter.ResolveCalleeName(call, src)
					if name == "" {
						continue
					}
					arity := len(a.adapter.Arguments(call))
					sites = append(sites, callSite{caller: fn, node: call, calleeName: name, arity: arity})
				}
				resultChan <- callGraphResult{funcID: fn.ID, sites: sites}
			}
		}()
	}

	for _, fn := range fnList {
		fnChan <- fn
	}
	close(fnChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make(map[int][]callSite, len(fnList))
	for res := range resultChan {
		results[res.funcID] = res.sites
	}

	nextAPIID := 1
	for _, fn := range fnList {
		sites := results[fn.ID]
		var funcSites, apiSites []*sitter.Node
		for i := range sites {
			site := &sites[i]
			target := a.resolveCallTarget(site.calleeName, site.arity)
			if target != nil {
				site.calleeFunc = target
				funcSites = append(funcSites, site.node)
				a.funcCallees[fn.ID] = appendFuncOnce(a.funcCallees[fn.ID], target)
				a.funcCallers[target.ID] = appendFuncOnce(a.funcCallers[target.ID], fn)
			} else {
				key := model.APIKey{Name: site.calleeName, Arity: site.arity}
				api, ok := a.apis[key]
				if !ok {
					api = &model.API{}
					*api = model.NewAPI(nextAPIID, site.calleeName, site.arity)
					nextAPIID++
					a.apis[key] = api
				}
				site.calleeAPI = api
				apiSites = append(apiSites, site.node)
				a.funcAPIs[fn.ID] = appendAPIOnce(a.funcAPIs[fn.ID], api)
			}
			a.callSitesOf[fn.ID] = append(a.callSitesOf[fn.ID], site)
			a.callSites = append(a.callSites, *site)
		}
		fn.SetCallSites(funcSites, apiSites)
	}
}

func (a *Analyzer) resolveCallTarget(name string, arity int) *model.Function {
	for _, fn := range a.functionsByName[name] {
		if len(fn.Parameters()) == arity {
			return fn
		}
	}
	return nil
}

func appendFuncOnce(list []*model.Function, fn *model.Function) []*model.Function {
	for _, existing := range list {
		if existing.ID == fn.ID {
			return list
		}
	}
	return append(list, fn)
}

func appendAPIOnce(list []*model.API, api *model.API) []*model.API {
	for _, existing := range list {
		if existing.Name == api.Name && existing.Arity == api.Arity {
			return list
		}
	}
	return append(list, api)
}

// --- Query surface ---

// CallsitesByCalleeName returns call nodes inside fn whose resolved callee
// name equals name.
func (a *Analyzer) CallsitesByCalleeName(fn *model.Function, name string) []*sitter.Node {
	var out []*sitter.Node
	for _, site := range a.callSitesOf[fn.ID] {
		if site.calleeName == name {
			out = append(out, site.node)
		}
	}
	return out
}

// ArgumentsAt returns the ordered ARG values at a call site.
func (a *Analyzer) ArgumentsAt(fn *model.Function, callsite *sitter.Node) []model.Value {
	src := a.src[fn.FilePath]
	args := a.adapter.Arguments(callsite)
	out := make([]model.Value, 0, len(args))
	line := line1(callsite)
	for idx, arg := range args {
		out = append(out, model.NewIndexedValue(arg.Content(src), line, model.ARG, fn.FilePath, idx))
	}
	return out
}

// CallStatementInfo is one call site's text and absolute file line, the same
// absolute-line convention every other Value-producing query on Analyzer
// follows; callers that render these into an oracle prompt are responsible
// for converting to function-relative numbering (Function.FileLineToFunctionLine).
type CallStatementInfo struct {
	Text string
	Line int
}

// CallStatements returns every call site inside fn, in extraction order.
func (a *Analyzer) CallStatements(fn *model.Function) []CallStatementInfo {
	src := a.src[fn.FilePath]
	sites := a.callSitesOf[fn.ID]
	out := make([]CallStatementInfo, 0, len(sites))
	for _, site := range sites {
		out = append(out, CallStatementInfo{
			Text: site.node.Content(src),
			Line: line1(site.node),
		})
	}
	return out
}

// Parameters returns fn's memoized PARA set.
func (a *Analyzer) Parameters(fn *model.Function) []model.Value { return fn.Parameters() }

// Returns returns fn's memoized RET set.
func (a *Analyzer) Returns(fn *model.Function) []model.Value { return fn.Returns() }

// OutputValueAt returns the OUT value denoting a call expression's result.
func (a *Analyzer) OutputValueAt(fn *model.Function, callsite *sitter.Node) model.Value {
	src := a.src[fn.FilePath]
	return model.NewValue(callsite.Content(src), line1(callsite), model.OUT, fn.FilePath)
}

// FunctionFor returns the function enclosing a Value by (file, line range).
func (a *Analyzer) FunctionFor(v model.Value) *model.Function {
	for _, fn := range a.functionsByFile[v.File] {
		if fn.Contains(v.LineNumber) {
			return fn
		}
	}
	return nil
}

// Callers returns fn's direct callers.
func (a *Analyzer) Callers(fn *model.Function) []*model.Function { return a.funcCallers[fn.ID] }

// Callees returns fn's direct callees.
func (a *Analyzer) Callees(fn *model.Function) []*model.Function { return a.funcCallees[fn.ID] }

// TransitiveCallers returns every function reachable by following caller
// edges from fn, up to maxDepth hops, via a visited-set-bounded BFS (
// "no cyclic owning references... traversal uses a visited set bounded by
// max_depth").
func (a *Analyzer) TransitiveCallers(fn *model.Function, maxDepth int) []*model.Function {
	return a.transitive(fn, maxDepth, a.Callers)
}

// TransitiveCallees is the callee-direction counterpart of TransitiveCallers.
func (a *Analyzer) TransitiveCallees(fn *model.Function, maxDepth int) []*model.Function {
	return a.transitive(fn, maxDepth, a.Callees)
}

func (a *Analyzer) transitive(fn *model.Function, maxDepth int, step func(*model.Function) []*model.Function) []*model.Function {
	visited := map[int]bool{fn.ID: true}
	frontier := []*model.Function{fn}
	var out []*model.Function
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []*model.Function
		for _, f := range frontier {
			for _, neighbor := range step(f) {
				if visited[neighbor.ID] {
					continue
				}
				visited[neighbor.ID] = true
				out = append(out, neighbor)
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return out
}

// CallEdge is one resolved call site together with its caller, returned by
// CallSitesInto for inter-procedural expansion (the PARA/RET handling,
// which must examine every caller of a function and the exact call site it
// used to reach it).
type CallEdge struct {
	Caller *model.Function
	Node   *sitter.Node
}

// CallSitesInto returns every call site, across every caller, that resolved
// to callee.
func (a *Analyzer) CallSitesInto(callee *model.Function) []CallEdge {
	var out []CallEdge
	for _, caller := range a.funcCallers[callee.ID] {
		for _, site := range a.callSitesOf[caller.ID] {
			if site.calleeFunc != nil && site.calleeFunc.ID == callee.ID {
				out = append(out, CallEdge{Caller: caller, Node: site.node})
			}
		}
	}
	return out
}

// CallSitesTo returns the call sites inside caller that resolved to callee.
func (a *Analyzer) CallSitesTo(caller, callee *model.Function) []*sitter.Node {
	var out []*sitter.Node
	for _, site := range a.callSitesOf[caller.ID] {
		if site.calleeFunc != nil && site.calleeFunc.ID == callee.ID {
			out = append(out, site.node)
		}
	}
	return out
}

// IfStatements returns fn's indexed if/branch ranges.
func (a *Analyzer) IfStatements(fn *model.Function) []model.IfStatement { return fn.IfStatements }

// LoopStatements returns fn's indexed loop ranges.
func (a *Analyzer) LoopStatements(fn *model.Function) []model.LoopStatement { return fn.LoopStatements }

// CheckControlOrder implements the source/sink textual-order heuristic: a
// source line may textually precede the sink unless both reside in opposite
// branches of the same if (neither can reach the other), or the source
// strictly follows the sink without both being enclosed in a common loop
// body (a later iteration could still reach the sink first).
func (a *Analyzer) CheckControlOrder(fn *model.Function, srcLine, sinkLine int) bool {
	for _, ifs := range fn.IfStatements {
		srcInConsequent := srcLine > ifs.StartLine && srcLine <= ifs.ConsequentEnd
		srcInAlternate := ifs.AlternateStart != 0 && srcLine >= ifs.AlternateStart && srcLine <= ifs.EndLine
		sinkInConsequent := sinkLine > ifs.StartLine && sinkLine <= ifs.ConsequentEnd
		sinkInAlternate := ifs.AlternateStart != 0 && sinkLine >= ifs.AlternateStart && sinkLine <= ifs.EndLine
		if (srcInConsequent && sinkInAlternate) || (srcInAlternate && sinkInConsequent) {
			return false
		}
	}

	if srcLine <= sinkLine {
		return true
	}
	for _, loop := range fn.LoopStatements {
		if srcLine >= loop.StartLine && srcLine <= loop.EndLine && sinkLine >= loop.StartLine && sinkLine <= loop.EndLine {
			return true
		}
	}
	return false
}

// Functions returns every extracted function, sorted by id, for callers that
// need to seed extraction over the whole analyzer (e.g. the source/sink
// extractors in package extractor).
func (a *Analyzer) Functions() []*model.Function {
	out := make([]*model.Function, 0, len(a.functions))
	for _, fn := range a.functions {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Source returns the raw bytes for a parsed file path.
func (a *Analyzer) Source(path string) []byte { return a.src[path] }

// String summarizes an Analyzer for logging.
func (a *Analyzer) String() string {
	return fmt.Sprintf("tsanalyzer.Analyzer{lang=%s functions=%d apis=%d failures=%d}", a.lang, len(a.functions), len(a.apis), len(a.Failures))
}
