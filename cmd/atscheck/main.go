// Command atscheck scores a resume against a job description from the
// command line and prints the ATS comparison.
//
// Usage:
//
//	go run ./cmd/atscheck -resume resume.pdf -jd job.txt [-tailored tailored.docx] [-format text|json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis"
	"github.com/lou463/Underscore-Resume-BETA01/internal/ats"
	"github.com/lou463/Underscore-Resume-BETA01/internal/document"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/overlap"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/config"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("atscheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	resumePath := fs.String("resume", "", "resume file (.txt, .pdf or .docx)")
	jdPath := fs.String("jd", "", "job description file")
	tailoredPath := fs.String("tailored", "", "optional tailored resume file")
	configPath := fs.String("config", "", "optional config file")
	format := fs.String("format", "text", "output format: text or json")
	logLevel := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *resumePath == "" || *jdPath == "" {
		fmt.Fprintln(stderr, "atscheck: -resume and -jd are required")
		fs.Usage()
		return 2
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(stderr, "atscheck: unknown format %q\n", *format)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "atscheck: %v\n", err)
		return 1
	}
	logger.SetupWriter(stderr, *logLevel, "text")

	result, err := analyze(ctx, cfg, *resumePath, *jdPath, *tailoredPath)
	if err != nil {
		fmt.Fprintf(stderr, "atscheck: %v\n", err)
		return 1
	}

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(result)
	} else {
		err = writeText(stdout, result)
	}
	if err != nil {
		fmt.Fprintf(stderr, "atscheck: %v\n", err)
		return 1
	}
	return 0
}

func analyze(ctx context.Context, cfg *config.Config, resumePath, jdPath, tailoredPath string) (*analysis.Analysis, error) {
	extractor := document.NewExtractor(cfg.Documents, nil)
	resume, err := readDocument(ctx, extractor, resumePath)
	if err != nil {
		return nil, err
	}
	jd, err := readDocument(ctx, extractor, jdPath)
	if err != nil {
		return nil, err
	}
	var tailored string
	if tailoredPath != "" {
		if tailored, err = readDocument(ctx, extractor, tailoredPath); err != nil {
			return nil, err
		}
	}

	static, err := ats.StaticAxesFromConfig(cfg.ATS)
	if err != nil {
		return nil, err
	}
	svc, err := scoring.NewService(cfg.Keywords, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	analyzer := analysis.NewAnalyzer(svc, static, cfg.ATS.IndustryAverage)
	return analyzer.Analyze(ctx, analysis.Request{
		ResumeName:     filepath.Base(resumePath),
		ResumeText:     resume,
		JobDescription: jd,
		TailoredText:   tailored,
	})
}

func readDocument(ctx context.Context, extractor *document.Extractor, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := extractor.Extract(ctx, document.DetectType(path, data), data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

func writeText(w io.Writer, a *analysis.Analysis) error {
	writeResult(w, "Original", a.Original)
	if a.Tailored != nil {
		writeResult(w, "Tailored", *a.Tailored)
	}
	fmt.Fprintln(w)
	return ats.WriteReport(w, a.Comparison)
}

func writeResult(w io.Writer, label string, r overlap.Result) {
	fmt.Fprintf(w, "%s keyword match: %.1f (%d of %d job keywords)\n",
		label, r.Score, len(r.Matched), r.ReferenceKeywords)
	if r.Degenerate {
		fmt.Fprintln(w, "  job description has no keywords")
		return
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "  missing: %s\n", strings.Join(r.Missing, ", "))
	}
}
