// Package cli implements the navflat command line: flatten a menu file and
// run queries over the result without starting the server.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/navflat/internal/config"
	"github.com/dgallion1/navflat/internal/menutree"
	"github.com/dgallion1/navflat/internal/parser"
	"github.com/dgallion1/navflat/internal/pipeline"
	"github.com/dgallion1/navflat/internal/stats"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root has loaded config.
type app struct {
	configPath string
	keyField   string
	onCycle    string
	strategy   string

	cfg     config.Config
	log     *slog.Logger
	builder *pipeline.Builder
}

// NewRootCmd returns the navflat command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "navflat",
		Short: "Flatten and query hierarchical navigation menus",
		Long: `navflat turns a menu tree (JSON, YAML, Markdown, HTML, DOCX, PDF,
CSV or an indented text outline) into a flat pre-order sequence of records
and answers ancestor, descendant and level queries over it.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", os.Getenv("NAVFLAT_CONFIG"), "YAML config file")
	flags.StringVar(&a.keyField, "key-field", "", "parent link field: id or label")
	flags.StringVar(&a.onCycle, "on-cycle", "", "cycle policy: fail or skip")
	flags.StringVar(&a.strategy, "strategy", "", "traversal: stack, worklist or recursive")

	root.AddCommand(
		a.flattenCmd(),
		a.findCmd(),
		a.ancestorsCmd(),
		a.hierarchyCmd(),
		a.descendantsCmd(),
		a.childrenCmd(),
		a.levelsCmd(),
		a.searchCmd(),
		a.compareCmd(),
		a.generateCmd(),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	cfg.Flatten = cfg.Flatten.Override(a.keyField, a.onCycle, a.strategy)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	a.builder = pipeline.NewBuilder(stats.NewFlattenStats(0), a.log)
	return nil
}

// build parses and flattens the menu file at path.
func (a *app) build(path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.builder.Build(pipeline.Source{Filename: filepath.Base(path), Data: data}, a.cfg.Flatten)
}

// forest parses the menu file at path without flattening it.
func (a *app) forest(path string) (menutree.Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parser.ParseFile(bytes.NewReader(data), filepath.Base(path))
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
