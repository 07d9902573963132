package extractor

import (
	"context"
	"testing"

	"github.com/dfbscan/dfbscan/model"
	"github.com/dfbscan/dfbscan/tsanalyzer"
)

func buildAndFunction(t *testing.T, lang tsanalyzer.Language, path, src, funcName string) (*model.Function, []byte) {
	t.Helper()
	a, err := tsanalyzer.Build(context.Background(), []tsanalyzer.Source{{Path: path, Code: []byte(src)}}, lang, tsanalyzer.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	for _, fn := range a.Functions() {
		if fn.Name == funcName {
			return fn, a.Source(path)
		}
	}
	t.Fatalf("function %q not found", funcName)
	return nil, nil
}

func TestExcludeFile(t *testing.T) {
	cases := map[string]bool{
		"src/main.c":        false,
		"src/main_test.go":  true,
		"examples/demo.py":  true,
		"pkg/handler.java":  false,
	}
	for path, want := range cases {
		if got := ExcludeFile(path); got != want {
			t.Errorf("ExcludeFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestForLanguageAndBugType_UnsupportedCombinationErrors(t *testing.T) {
	if _, err := ForLanguageAndBugType(tsanalyzer.LanguageJava, MLK); err == nil {
		t.Fatal("expected an error for Java MLK, which this extractor set does not define")
	}
}

func TestCollectSeeds_FlattensAcrossFunctionsAndSkipsExcludedFiles(t *testing.T) {
	src := `
void check(int *p) {
	int *q = NULL;
	*p = 1;
}

void other(int *p) {
	int *r = NULL;
	*p = 2;
}
`
	a, err := tsanalyzer.Build(context.Background(), []tsanalyzer.Source{
		{Path: "npd.c", Code: []byte(src)},
		{Path: "npd_test.c", Code: []byte(src)},
	}, tsanalyzer.LanguageC, tsanalyzer.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	ex, err := ForLanguageAndBugType(tsanalyzer.LanguageC, NPD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seeds := CollectSeeds(a, ex)
	if len(seeds) != 2 {
		t.Fatalf("expected one seed from each of the two functions in npd.c, got %d: %+v", len(seeds), seeds)
	}
	for _, s := range seeds {
		if s.File == "npd_test.c" {
			t.Errorf("seed from excluded file leaked through: %+v", s)
		}
	}
}

func TestCFamilyNPD_FindsNullSourceAndDereferenceSink(t *testing.T) {
	src := `
void check(int *p) {
	int *q = NULL;
	*p = 1;
}
`
	fn, code := buildAndFunction(t, tsanalyzer.LanguageC, "npd.c", src, "check")
	ex, err := ForLanguageAndBugType(tsanalyzer.LanguageC, NPD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sources := ex.ExtractSources(fn, code)
	if len(sources) == 0 {
		t.Fatal("expected at least one NULL-initialized source")
	}
	sinks := ex.ExtractSinks(fn, code)
	if len(sinks) == 0 {
		t.Fatal("expected at least one pointer-dereference sink")
	}
}

func TestCFamilyMLK_FindsMallocSourceAndFreeSink(t *testing.T) {
	src := `
void leak() {
	char *buf = malloc(16);
	free(buf);
}
`
	fn, code := buildAndFunction(t, tsanalyzer.LanguageC, "mlk.c", src, "leak")
	ex, err := ForLanguageAndBugType(tsanalyzer.LanguageC, MLK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.ExtractSources(fn, code)) == 0 {
		t.Fatal("expected a malloc source")
	}
	if len(ex.ExtractSinks(fn, code)) == 0 {
		t.Fatal("expected a free sink")
	}
}

func TestJavaNPD_FindsNullLiteralSourceAndInvocationSink(t *testing.T) {
	src := `
class C {
	void run() {
		String s = null;
		s.length();
	}
}
`
	fn, code := buildAndFunction(t, tsanalyzer.LanguageJava, "C.java", src, "run")
	ex, err := ForLanguageAndBugType(tsanalyzer.LanguageJava, NPD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.ExtractSources(fn, code)) == 0 {
		t.Fatal("expected a null_literal source")
	}
	if len(ex.ExtractSinks(fn, code)) == 0 {
		t.Fatal("expected a method_invocation object sink")
	}
}

func TestGoNPD_FindsNilSourceAndDereferenceSink(t *testing.T) {
	src := `package p

func run(p *int) {
	var q *int
	_ = q
	x := *p
	_ = x
}
`
	fn, code := buildAndFunction(t, tsanalyzer.LanguageGo, "p.go", src, "run")
	ex, err := ForLanguageAndBugType(tsanalyzer.LanguageGo, NPD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.ExtractSources(fn, code)) == 0 {
		t.Fatal("expected an uninitialized var_declaration source")
	}
	if len(ex.ExtractSinks(fn, code)) == 0 {
		t.Fatal("expected a unary * dereference sink")
	}
}
