package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/articleflow/internal/config"
	"github.com/dgallion1/articleflow/internal/parser"
	"github.com/dgallion1/articleflow/internal/pipeline"
	"github.com/dgallion1/articleflow/internal/reflow"
	"github.com/joho/godotenv"
)

func main() {
	slots := flag.Int("slots", 0, "Number of slots (default SLOT_COUNT)")
	policy := flag.String("policy", "", "Image policy: first, secondIfPresent or none (default IMAGE_POLICY)")
	asJSON := flag.Bool("json", false, "Print the render as JSON instead of page HTML")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: reflow [-slots N] [-policy first|secondIfPresent|none] [-json] file")
		os.Exit(2)
	}
	path := flag.Arg(0)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *slots > 0 {
		cfg.SlotCount = *slots
	}
	if *policy != "" {
		cfg.ImagePolicy = *policy
	}
	if _, err := reflow.ParseImagePolicy(cfg.ImagePolicy); err != nil {
		log.Error("invalid image policy", "error", err)
		os.Exit(2)
	}

	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		log.Error("unsupported file", "path", path, "error", err)
		os.Exit(1)
	}
	f, err := os.Open(path)
	if err != nil {
		log.Error("failed to open file", "path", path, "error", err)
		os.Exit(1)
	}
	doc, err := p.Parse(f, path)
	f.Close()
	if err != nil {
		log.Error("parse failed", "path", path, "error", err)
		os.Exit(1)
	}

	render, err := pipeline.RenderDocument(doc, cfg.SlotCount, cfg.Reflow())
	if err != nil {
		log.Error("render failed", "error", err)
		os.Exit(1)
	}
	log.Info("segmented article",
		"title", render.Title,
		"chunks", len(render.Chunks),
		"used", render.Used,
		"total", render.Total,
		"overflow_blocks", len(render.Overflow),
	)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(render); err != nil {
			log.Error("failed to write output", "error", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(render.Page)
}
