package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/navflat/internal/config"
	"github.com/dgallion1/navflat/internal/flatten"
	"github.com/dgallion1/navflat/internal/menutree"
	"github.com/dgallion1/navflat/internal/parser"
	"github.com/dgallion1/navflat/internal/query"
	"github.com/dgallion1/navflat/internal/stats"
	"github.com/dgallion1/navflat/internal/store"
)

// Source is one menu document awaiting parsing.
type Source struct {
	Filename string
	Data     []byte
}

// Result is a flattened and indexed menu.
type Result struct {
	Name     string
	Hash     string
	Settings config.FlattenSettings
	Index    *query.Index
	Skipped  []*menutree.CyclicStructureError
	Strategy flatten.Strategy
	Elapsed  time.Duration
}

// Records returns the flat sequence.
func (r *Result) Records() []menutree.FlatRecord {
	return r.Index.Records()
}

// Menu converts r into a store entry.
func (r *Result) Menu() *store.Menu {
	var skipped []string
	for _, c := range r.Skipped {
		skipped = append(skipped, c.Error())
	}
	return &store.Menu{
		Name:        r.Name,
		ContentHash: r.Hash,
		Options:     r.Settings.String(),
		Index:       r.Index,
		Skipped:     skipped,
	}
}

// Builder runs the parse, flatten and index phases.
type Builder struct {
	stats *stats.FlattenStats
	log   *slog.Logger
}

// NewBuilder returns a Builder recording timings into st, which may be nil.
func NewBuilder(st *stats.FlattenStats, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Builder{stats: st, log: log}
}

// Build parses src with the parser its extension selects, then flattens it.
func (b *Builder) Build(src Source, settings config.FlattenSettings) (*Result, error) {
	log := b.log.With("filename", src.Filename)

	forest, err := parser.ParseFile(bytes.NewReader(src.Data), src.Filename)
	if err != nil {
		log.Warn("parse failed", "error", err)
		return nil, err
	}

	res, err := b.Flatten(forest, settings)
	if err != nil {
		log.Warn("flatten failed", "error", err)
		return nil, err
	}
	res.Name = src.Filename
	res.Hash = store.ContentHashHex(src.Data)
	return res, nil
}

// Flatten flattens an already decoded forest and indexes the records.
func (b *Builder) Flatten(forest menutree.Forest, settings config.FlattenSettings) (*Result, error) {
	var skipped []*menutree.CyclicStructureError
	cfg, err := settings.Build(&skipped)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := flatten.Flatten(forest, cfg)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	if b.stats != nil {
		b.stats.Record(cfg.Strategy.String(), elapsed, len(records))
	}
	for _, c := range skipped {
		b.log.Warn("skipped cyclic branch", "label", c.Label, "path", c.Path)
	}

	b.log.Debug("flattened menu",
		"records", len(records),
		"strategy", cfg.Strategy.String(),
		"key_field", cfg.KeyField.String(),
		"duration_us", elapsed.Microseconds(),
	)
	return &Result{
		Name:     "inline",
		Settings: settings,
		Index:    query.NewIndex(records, cfg.KeyField),
		Skipped:  skipped,
		Strategy: cfg.Strategy,
		Elapsed:  elapsed,
	}, nil
}

// Compare flattens forest with every strategy and reports whether all of
// them produced byte-identical JSON, attributes included.
func (b *Builder) Compare(forest menutree.Forest, settings config.FlattenSettings) ([]Timing, bool, error) {
	var (
		timings []Timing
		first   []menutree.FlatRecord
		same    = true
	)
	for _, s := range flatten.Strategies {
		res, err := b.Flatten(forest, settings.Override("", "", s.String()))
		if err != nil {
			return nil, false, fmt.Errorf("%v: %w", s, err)
		}
		records := res.Records()
		timings = append(timings, Timing{Strategy: s.String(), Elapsed: res.Elapsed, Records: len(records)})
		if first == nil {
			first = records
			continue
		}
		ok, err := sameOutput(first, records)
		if err != nil {
			return nil, false, fmt.Errorf("%v: %w", s, err)
		}
		same = same && ok
	}
	return timings, same, nil
}

// Timing is one strategy's run in Compare.
type Timing struct {
	Strategy string        `json:"strategy"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Records  int           `json:"records"`
}

// sameOutput reports whether a and b encode to identical JSON, attributes
// included.
func sameOutput(a, b []menutree.FlatRecord) (bool, error) {
	ja, err := json.Marshal(a)
	if err != nil {
		return false, fmt.Errorf("encode records: %w", err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false, fmt.Errorf("encode records: %w", err)
	}
	return bytes.Equal(ja, jb), nil
}
