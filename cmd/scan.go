package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dfbscan/dfbscan/analytics"
	"github.com/dfbscan/dfbscan/dfbscan"
	"github.com/dfbscan/dfbscan/extractor"
	"github.com/dfbscan/dfbscan/llmclient"
	"github.com/dfbscan/dfbscan/model"
	"github.com/dfbscan/dfbscan/oracle"
	"github.com/dfbscan/dfbscan/output"
	"github.com/dfbscan/dfbscan/scanexec"
	"github.com/dfbscan/dfbscan/state"
	"github.com/dfbscan/dfbscan/tsanalyzer"
)

var scanFlags struct {
	project            string
	language           string
	bugType            string
	callDepth          int
	maxSymbolicWorkers int
	maxNeuralWorkers   int
	reachable          bool
	model              string
	temperature        float64
	format             string
	llmProvider        string
	llmBaseURL         string
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a project for a bug type across its call graph",
	RunE:  runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanFlags.project, "project", "", "Path to the project root (required)")
	f.StringVar(&scanFlags.language, "language", "", "Language: C, Cpp, Java, Python, or Go (required)")
	f.StringVar(&scanFlags.bugType, "bug-type", "", "Bug type: NPD, MLK, or UAF (required)")
	f.IntVar(&scanFlags.callDepth, "call-depth", 5, "Maximum inter-procedural call depth")
	f.IntVar(&scanFlags.maxSymbolicWorkers, "max-symbolic-workers", 30, "Worker pool size for call graph construction")
	f.IntVar(&scanFlags.maxNeuralWorkers, "max-neural-workers", 30, "Worker pool size for LLM-driven seed propagation")
	f.BoolVar(&scanFlags.reachable, "reachable", false, "Treat the bug type as reachability-style (reaching a sink is the bug)")
	f.StringVar(&scanFlags.model, "model", "llama3", "Model name passed to the LLM endpoint")
	f.Float64Var(&scanFlags.temperature, "temperature", 0, "Sampling temperature for LLM calls")
	f.StringVar(&scanFlags.format, "format", "text", "Output format: text, json, or sarif")
	f.StringVar(&scanFlags.llmProvider, "llm-provider", "ollama", "LLM transport: ollama or openai")
	f.StringVar(&scanFlags.llmBaseURL, "llm-base-url", "http://localhost:11434", "Base URL of the LLM endpoint")
	_ = scanCmd.MarkFlagRequired("project")
	_ = scanCmd.MarkFlagRequired("language")
	_ = scanCmd.MarkFlagRequired("bug-type")
	rootCmd.AddCommand(scanCmd)
}

// skipDirs mirrors the reference extractor's directory denylist: build
// artifacts and dependency trees that are never worth parsing.
var skipDirs = []string{".git", "node_modules", "vendor", "__pycache__", ".venv", "venv", "build", "dist", ".eggs"}

func shouldSkipDir(path string) bool {
	for _, d := range skipDirs {
		if strings.Contains(path, string(filepath.Separator)+d+string(filepath.Separator)) || strings.HasSuffix(path, string(filepath.Separator)+d) {
			return true
		}
	}
	return false
}

// extensionsFor maps a CLI --language value to the file extensions discovery
// walks for. C and Cpp share tsanalyzer's cpp grammar but are kept distinct
// here since each only ever wants its own file suffixes.
func extensionsFor(lang tsanalyzer.Language) []string {
	switch lang {
	case tsanalyzer.LanguageC:
		return []string{".c", ".h"}
	case tsanalyzer.LanguageCPP:
		return []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"}
	case tsanalyzer.LanguageJava:
		return []string{".java"}
	case tsanalyzer.LanguagePython:
		return []string{".py"}
	case tsanalyzer.LanguageGo:
		return []string{".go"}
	default:
		return nil
	}
}

func parseLanguage(s string) (tsanalyzer.Language, error) {
	switch strings.ToLower(s) {
	case "c":
		return tsanalyzer.LanguageC, nil
	case "cpp", "c++":
		return tsanalyzer.LanguageCPP, nil
	case "java":
		return tsanalyzer.LanguageJava, nil
	case "python", "py":
		return tsanalyzer.LanguagePython, nil
	case "go", "golang":
		return tsanalyzer.LanguageGo, nil
	default:
		return "", fmt.Errorf("%w: unsupported language %q", dfbscan.ErrConfiguration, s)
	}
}

// discoverSources walks root collecting every file whose extension matches
// exts, skipping the standard dependency/build directories.
func discoverSources(root string, exts []string) ([]tsanalyzer.Source, []error) {
	var sources []tsanalyzer.Source
	var warnings []error

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			warnings = append(warnings, err)
			return nil
		}
		if info.IsDir() {
			if shouldSkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		matched := false
		for _, ext := range exts {
			if strings.HasSuffix(path, ext) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
		code, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("reading %s: %w", path, err))
			return nil
		}
		sources = append(sources, tsanalyzer.Source{Path: path, Code: code})
		return nil
	})
	if err != nil {
		warnings = append(warnings, err)
	}
	return sources, warnings
}

func runScan(cmd *cobra.Command, _ []string) error {
	logger := output.NewLogger(verbosityFromFlag())
	ctx := context.Background()

	fileCfg, err := loadFileConfig(scanFlags.project)
	if err != nil {
		logger.Warning("reading .dfbscan.yaml: %v", err)
	} else {
		applyFileConfig(cmd, fileCfg)
	}

	lang, err := parseLanguage(scanFlags.language)
	if err != nil {
		return err
	}
	bugType := extractor.BugType(strings.ToUpper(scanFlags.bugType))
	ex, err := extractor.ForLanguageAndBugType(lang, bugType)
	if err != nil {
		return fmt.Errorf("%w: %v", dfbscan.ErrConfiguration, err)
	}

	info, err := os.Stat(scanFlags.project)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: project path %q is not a directory", dfbscan.ErrConfiguration, scanFlags.project)
	}

	analytics.ReportEvent(analytics.ScanStarted)

	logger.Progress("Discovering %s sources under %s...", lang, scanFlags.project)
	sources, warnings := discoverSources(scanFlags.project, extensionsFor(lang))
	for _, w := range warnings {
		logger.Warning("%v", w)
	}
	logger.Statistic("Found %d source files", len(sources))

	analyzer, err := tsanalyzer.Build(ctx, sources, lang, tsanalyzer.Options{
		ParseWorkers:     scanFlags.maxSymbolicWorkers,
		CallGraphWorkers: scanFlags.maxSymbolicWorkers,
	})
	if err != nil {
		analytics.ReportEvent(analytics.ScanFailed)
		return err
	}
	for _, f := range analyzer.Failures {
		logger.Warning("parse failed for %s: %v", f.Path, f.Err)
	}
	logger.Statistic("Call graph built: %d functions", len(analyzer.Functions()))

	seeds := extractor.CollectSeeds(analyzer, ex)
	logger.Statistic("Collected %d seed value(s) of bug type %s", len(seeds), bugType)

	httpClient := &http.Client{Timeout: 60 * time.Second}
	caller := llmclient.New(llmclient.Provider(scanFlags.llmProvider), scanFlags.llmBaseURL, scanFlags.model, os.Getenv("DFBSCAN_LLM_API_KEY"), scanFlags.temperature, httpClient)

	oracleCfg := oracle.DefaultConfig()
	intraDFA := oracle.NewIntraDataFlowAnalyzer(caller, oracleCfg, oracle.DefaultIntraDataFlowPrompt, oracle.DefaultIntraDataFlowParse)
	pathValidator := oracle.NewPathValidator(caller, oracleCfg, oracle.DefaultPathValidatorPrompt, oracle.DefaultPathValidatorParse)

	scanState := state.New()
	deps := dfbscan.Deps{
		Analyzer: analyzer,
		SinksOf: func(fn *model.Function) []model.Value {
			return ex.ExtractSinks(fn, analyzer.Source(fn.FilePath))
		},
		IntraDFA:      intraDFA,
		PathValidator: pathValidator,
		State:         scanState,
		CallDepth:     scanFlags.callDepth,
		BugType:       string(bugType),
		IsReachable:   scanFlags.reachable,
	}

	logger.Progress("Scanning %d seed(s) across %d worker(s)...", len(seeds), scanFlags.maxNeuralWorkers)
	failures := scanexec.Run(ctx, seeds, deps, scanexec.Options{Workers: scanFlags.maxNeuralWorkers})
	for _, f := range failures {
		logger.Warning("seed %s: %v", f.Seed.String(), f.Err)
	}

	reports := scanState.BugReports()
	logger.Statistic("%d bug report(s) found", len(reports))

	if err := writeReports(cmd, reports); err != nil {
		analytics.ReportEvent(analytics.ScanFailed)
		return err
	}

	analytics.ReportEventWithProperties(analytics.ScanCompleted, map[string]interface{}{
		"bug_type":     string(bugType),
		"report_count": len(reports),
	})

	cmd.SilenceUsage = true
	os.Exit(int(output.DetermineExitCode(len(reports), false)))
	return nil
}

func writeReports(cmd *cobra.Command, reports map[int]state.BugReport) error {
	switch scanFlags.format {
	case "text":
		return output.WriteText(cmd.OutOrStdout(), reports)
	case "json":
		return output.WriteDetectInfoJSON(filepath.Join(scanFlags.project, "detect_info.json"), reports)
	case "sarif":
		return output.WriteSARIF(cmd.OutOrStdout(), reports)
	default:
		return fmt.Errorf("%w: unsupported format %q", dfbscan.ErrConfiguration, scanFlags.format)
	}
}

func verbosityFromFlag() output.VerbosityLevel {
	if verboseFlag {
		return output.VerbosityVerbose
	}
	return output.VerbosityDefault
}
