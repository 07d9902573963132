// Package oracle defines the two LLM-invoked contracts DFBScan's worklist
// depends on (component D): IntraDataFlowAnalyzer and PathValidator. Both are
// modeled as pure, cacheable, retry-bounded functions from a structured input
// to a structured output — the concrete LLM transport and prompt templates
// are external collaborators injected through the Caller interface, grounded
// on the request/response shape of the reference implementation's LLM client
// (model name, temperature, a hard wall-clock timeout per call) but kept
// opaque here, per the contract's own terms.
package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dfbscan/dfbscan/model"
)

// ErrNoResult signals that an oracle invocation produced no usable output
// after exhausting its retry budget — a timeout or a malformed response.
// Callers treat it exactly like a valid "no further propagation" answer;
// it is never surfaced as a fatal error.
var ErrNoResult = errors.New("oracle: no result after retries")

// Caller is the opaque LLM transport both oracles drive. A call that exceeds
// its deadline must return ctx.Err(); Invoke is retried by the oracle up to
// MaxQueryNum times on any error.
type Caller interface {
	// Invoke sends prompt to the model and returns its raw text response.
	Invoke(ctx context.Context, prompt string) (string, error)
}

// CallerFunc adapts a function to a Caller.
type CallerFunc func(ctx context.Context, prompt string) (string, error)

func (f CallerFunc) Invoke(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// Config bounds every oracle invocation: a per-call wall-clock timeout and a
// retry cap, grounded on DFBScanAgent.MAX_QUERY_NUM (default 5) and the
// "hard wall-clock timeout (e.g. 50 seconds)" requirement.
type Config struct {
	MaxQueryNum int
	Timeout     time.Duration
	CacheSize   int
}

// DefaultConfig returns the reference defaults.
func DefaultConfig() Config {
	return Config{MaxQueryNum: 5, Timeout: 50 * time.Second, CacheSize: 4096}
}

// memo is a small generic retry+cache harness shared by both oracles: it
// hashes the input, consults a bounded LRU, and on a miss retries the
// supplied call up to cfg.MaxQueryNum times before giving up.
type memo[In, Out any] struct {
	cache *lru.Cache[string, Out]
	cfg   Config
}

func newMemo[In, Out any](cfg Config) memo[In, Out] {
	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, Out](size)
	if err != nil {
		// Only possible for a non-positive size, guarded above.
		panic(err)
	}
	return memo[In, Out]{cache: cache, cfg: cfg}
}

func hashOf(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Fall back to a type-stable string; hashing must never fail an
		// otherwise-successful analysis.
		b = []byte(fmt.Sprintf("%#v", v))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// run executes call, retrying up to cfg.MaxQueryNum times, and memoizes the
// first success under key. A parse/validation error is treated like a
// timeout: retried, then surfaced as ErrNoResult.
func (m memo[In, Out]) run(ctx context.Context, key string, call func(context.Context) (Out, error)) (Out, error) {
	if cached, ok := m.cache.Get(key); ok {
		return cached, nil
	}

	maxAttempts := m.cfg.MaxQueryNum
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var zero Out
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		out, err := call(callCtx)
		cancel()
		if err == nil {
			m.cache.Add(key, out)
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			// Caller-level cancellation; stop retrying immediately.
			break
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrNoResult, lastErr)
}

// IntraDataFlowAnalyzerInput is the structured request:
// the function under analysis, the value propagation starts from, and the
// sinks/calls/returns visible inside that function, all pre-normalized to
// line numbers relative to the function's first line.
type IntraDataFlowAnalyzerInput struct {
	Function      *model.Function
	StartValue    model.Value
	SinkValues    []LineTagged
	CallStatements []LineTagged
	ReturnValues  []LineTagged
}

// LineTagged pairs a textual token with a function-relative line number.
type LineTagged struct {
	Text string
	Line int
}

// IntraDataFlowAnalyzerOutput is a sequence of path frontiers: each element
// is the set of Values the analyzer believes StartValue propagates to along
// one distinct intra-procedural execution path. A nil/empty output is valid
// and means "no further propagation discovered".
type IntraDataFlowAnalyzerOutput struct {
	ReachableValues [][]model.Value
}

func (i IntraDataFlowAnalyzerInput) cacheKey() string {
	return hashOf(struct {
		FuncKey model.Key
		Start   string
		Sinks   []LineTagged
		Calls   []LineTagged
		Rets    []LineTagged
	}{i.Function.KeyOf(), i.StartValue.String(), i.SinkValues, i.CallStatements, i.ReturnValues})
}

// IntraDataFlowAnalyzer is the per-function intra-procedural oracle.
type IntraDataFlowAnalyzer struct {
	caller   Caller
	prompt   func(IntraDataFlowAnalyzerInput) string
	parse    func(raw string, in IntraDataFlowAnalyzerInput) (IntraDataFlowAnalyzerOutput, error)
	memoized memo[IntraDataFlowAnalyzerInput, IntraDataFlowAnalyzerOutput]
}

// NewIntraDataFlowAnalyzer builds the oracle around caller. prompt and parse
// are injected so the wire format (prompt templates, response schema) stays
// an external concern; DefaultIntraDataFlowPrompt/DefaultIntraDataFlowParse
// in prompt.go provide the default, reference-shaped implementations.
func NewIntraDataFlowAnalyzer(
	caller Caller,
	cfg Config,
	prompt func(IntraDataFlowAnalyzerInput) string,
	parse func(string, IntraDataFlowAnalyzerInput) (IntraDataFlowAnalyzerOutput, error),
) *IntraDataFlowAnalyzer {
	return &IntraDataFlowAnalyzer{
		caller:   caller,
		prompt:   prompt,
		parse:    parse,
		memoized: newMemo[IntraDataFlowAnalyzerInput, IntraDataFlowAnalyzerOutput](cfg),
	}
}

// Invoke runs the oracle. A nil output with a non-nil error distinguishes
// "gave up after retries" from "the model said there is nothing here"
// (IntraDataFlowAnalyzerOutput{} with a nil error and an empty slice).
func (a *IntraDataFlowAnalyzer) Invoke(ctx context.Context, in IntraDataFlowAnalyzerInput) (IntraDataFlowAnalyzerOutput, error) {
	return a.memoized.run(ctx, in.cacheKey(), func(callCtx context.Context) (IntraDataFlowAnalyzerOutput, error) {
		raw, err := a.caller.Invoke(callCtx, a.prompt(in))
		if err != nil {
			return IntraDataFlowAnalyzerOutput{}, err
		}
		return a.parse(raw, in)
	})
}

// PathValidatorInput is the structured request for end-to-end path
// feasibility validation: a bug kind, an ordered candidate path, and
// the function each Value on that path resides in.
type PathValidatorInput struct {
	BugType           string
	Values            []model.Value
	ValuesToFunctions map[string]*model.Function // keyed by model.Value.String()
}

// PathValidatorOutput is the oracle's verdict: whether the path is
// end-to-end feasible, plus a human-readable explanation used verbatim in
// the emitted BugReport.
type PathValidatorOutput struct {
	IsReachable bool
	Explanation string
}

func (i PathValidatorInput) cacheKey() string {
	strs := make([]string, len(i.Values))
	for idx, v := range i.Values {
		strs[idx] = v.String()
	}
	return hashOf(struct {
		BugType string
		Values  []string
	}{i.BugType, strs})
}

// PathValidator is the end-to-end path feasibility oracle. It is advisory:
// a failed/timed-out invocation is discarded silently by the caller, never
// treated as a positive or negative verdict.
type PathValidator struct {
	caller   Caller
	prompt   func(PathValidatorInput) string
	parse    func(raw string, in PathValidatorInput) (PathValidatorOutput, error)
	memoized memo[PathValidatorInput, PathValidatorOutput]
}

// NewPathValidator builds the oracle around caller.
func NewPathValidator(
	caller Caller,
	cfg Config,
	prompt func(PathValidatorInput) string,
	parse func(string, PathValidatorInput) (PathValidatorOutput, error),
) *PathValidator {
	return &PathValidator{
		caller:   caller,
		prompt:   prompt,
		parse:    parse,
		memoized: newMemo[PathValidatorInput, PathValidatorOutput](cfg),
	}
}

// Invoke runs the oracle, returning ErrNoResult (never a fatal error) when
// the retry budget is exhausted.
func (v *PathValidator) Invoke(ctx context.Context, in PathValidatorInput) (PathValidatorOutput, error) {
	return v.memoized.run(ctx, in.cacheKey(), func(callCtx context.Context) (PathValidatorOutput, error) {
		raw, err := v.caller.Invoke(callCtx, v.prompt(in))
		if err != nil {
			return PathValidatorOutput{}, err
		}
		return v.parse(raw, in)
	})
}
