// Command docrank ranks the sections of a directory of PDFs by their
// relevance to a persona and a job to be done, writing the result as
// JSON and optionally as an XLSX report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/brunobiangulo/docrank"
	"github.com/brunobiangulo/docrank/report"
)

func main() {
	if err := run(); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		inputDir    = flag.String("input", envOr("DOCRANK_INPUT", ""), "directory of PDF files to process")
		persona     = flag.String("persona", envOr("DOCRANK_PERSONA", ""), "persona the ranking is for")
		job         = flag.String("job", envOr("DOCRANK_JOB", ""), "job to be done")
		outputPath  = flag.String("output", envOr("DOCRANK_OUTPUT", "-"), "result JSON path, - for stdout")
		configPath  = flag.String("config", "", "optional JSON config file")
		requestPath = flag.String("request", "", "optional request JSON with persona and job")
		reportPath  = flag.String("report", "", "optional XLSX report path")
		topK        = flag.Int("top", 0, "entries kept per result list (0 uses the config value)")
		logLevel    = flag.String("log-level", envOr("DOCRANK_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	)
	flag.Parse()

	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg := docrank.DefaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			return err
		}
	}
	if *topK > 0 {
		cfg.TopK = *topK
	}

	q := docrank.Query{Persona: *persona, Job: *job}
	if *requestPath != "" {
		if err := loadRequest(*requestPath, &q); err != nil {
			return err
		}
	}

	if *inputDir == "" {
		return fmt.Errorf("%w: -input is required", docrank.ErrInvalidConfig)
	}

	engine, err := docrank.New(cfg, docrank.WithLogger(logger))
	if err != nil {
		return err
	}

	// Open the output before processing so an unwritable path aborts
	// the run up front, not after minutes of decoding.
	out, err := openOutput(*outputPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := engine.Run(ctx, *inputDir, q)
	if err != nil {
		out.discard()
		return err
	}
	for _, warn := range res.Warnings {
		logger.Warn("document skipped", "detail", warn)
	}

	if err := out.write(res); err != nil {
		return err
	}
	if *reportPath != "" {
		if err := report.WriteXLSX(*reportPath, res); err != nil {
			return err
		}
		logger.Info("report written", "path", *reportPath)
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("%w: unknown log level %q", docrank.ErrInvalidConfig, level)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func loadConfig(path string, cfg *docrank.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// request mirrors the JSON shape produced by collection planners:
// persona and job live in nested objects, documents are advisory.
type request struct {
	Persona struct {
		Role string `json:"role"`
	} `json:"persona"`
	JobToBeDone struct {
		Task string `json:"task"`
	} `json:"job_to_be_done"`
}

// loadRequest fills the query from a request file. Values given on the
// command line win over the file.
func loadRequest(path string, q *docrank.Query) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse request %s: %w", path, err)
	}
	if q.Persona == "" {
		q.Persona = req.Persona.Role
	}
	if q.Job == "" {
		q.Job = req.JobToBeDone.Task
	}
	return nil
}

// output is the preflighted result destination. File destinations are
// created before the run starts.
type output struct {
	f    *os.File
	path string // empty for stdout
}

func openOutput(path string) (*output, error) {
	if path == "" || path == "-" {
		return &output{f: os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", docrank.ErrInvalidConfig, err)
	}
	return &output{f: f, path: path}, nil
}

func (o *output) write(res *docrank.Result) error {
	if err := res.WriteJSON(o.f); err != nil {
		o.discard()
		return fmt.Errorf("write result: %w", err)
	}
	if o.path == "" {
		return nil
	}
	return o.f.Close()
}

// discard removes the preflighted file when the run fails, leaving no
// empty artifact behind.
func (o *output) discard() {
	if o.path == "" {
		return
	}
	o.f.Close()
	os.Remove(o.path)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
