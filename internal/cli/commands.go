package cli

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/dgallion1/navflat/internal/menutree"
	"github.com/dgallion1/navflat/internal/query"
	"github.com/spf13/cobra"
)

var errNoMatch = errors.New("no record matches")

func (a *app) flattenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten FILE",
		Short: "Print the flat record sequence of a menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.build(args[0])
			if err != nil {
				return err
			}
			skipped := make([]string, 0, len(res.Skipped))
			for _, c := range res.Skipped {
				skipped = append(skipped, c.Error())
			}
			records := res.Records()
			if records == nil {
				records = []menutree.FlatRecord{}
			}
			return writeJSON(cmd, map[string]any{
				"options":        res.Settings.String(),
				"count":          len(records),
				"records":        records,
				"skipped_cycles": skipped,
			})
		},
	}
}

func (a *app) findCmd() *cobra.Command {
	var field, value string
	cmd := &cobra.Command{
		Use:   "find FILE",
		Short: "Print the first record whose field equals a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.build(args[0])
			if err != nil {
				return err
			}
			rec, ok := res.Index.FindFirst(field, value)
			if !ok {
				return fmt.Errorf("%w: %s=%q", errNoMatch, field, value)
			}
			return writeJSON(cmd, map[string]any{
				"record":   rec,
				"position": res.Index.Position(rec),
			})
		},
	}
	cmd.Flags().StringVar(&field, "field", "id", "field to match: id, label, route, parentId, parentLabel, level or an attribute")
	cmd.Flags().StringVar(&value, "value", "", "value to match")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func (a *app) ancestorsCmd() *cobra.Command {
	var field, value string
	cmd := &cobra.Command{
		Use:   "ancestors FILE",
		Short: "Print the chain from the root down to a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.build(args[0])
			if err != nil {
				return err
			}
			f := field
			if f == "" {
				f = res.Index.KeyField().String()
			}
			rec, ok := res.Index.FindFirst(f, value)
			if !ok {
				return fmt.Errorf("%w: %s=%q", errNoMatch, f, value)
			}
			chain, err := res.Index.AncestorChain(rec)
			if err != nil {
				return err
			}
			return writeChain(cmd, chain)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "field to match (default: the key field)")
	cmd.Flags().StringVar(&value, "value", "", "value to match")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func (a *app) hierarchyCmd() *cobra.Command {
	var route string
	cmd := &cobra.Command{
		Use:   "hierarchy FILE",
		Short: "Print the chain leading to the first record with a route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.build(args[0])
			if err != nil {
				return err
			}
			chain, err := res.Index.HierarchyByRoute(route)
			if err != nil {
				return err
			}
			if chain == nil {
				return fmt.Errorf("%w: route=%q", errNoMatch, route)
			}
			return writeChain(cmd, chain)
		},
	}
	cmd.Flags().StringVar(&route, "route", "", "route to look up")
	_ = cmd.MarkFlagRequired("route")
	return cmd
}

func writeChain(cmd *cobra.Command, chain []menutree.FlatRecord) error {
	return writeJSON(cmd, map[string]any{
		"chain":  chain,
		"labels": query.Labels(chain),
	})
}

func (a *app) descendantsCmd() *cobra.Command {
	return a.relatedCmd("descendants FILE KEY", "Print everything below a record, breadth first", (*query.Index).Descendants)
}

func (a *app) childrenCmd() *cobra.Command {
	return a.relatedCmd("children FILE KEY", "Print the direct children of a record", (*query.Index).Children)
}

func (a *app) relatedCmd(use, short string, fn func(*query.Index, string) []menutree.FlatRecord) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.build(args[0])
			if err != nil {
				return err
			}
			key := args[1]
			if _, ok := res.Index.Lookup(key); !ok {
				return fmt.Errorf("%w: %s=%q", errNoMatch, res.Index.KeyField(), key)
			}
			recs := fn(res.Index, key)
			if recs == nil {
				recs = []menutree.FlatRecord{}
			}
			return writeJSON(cmd, map[string]any{
				"key":     key,
				"count":   len(recs),
				"records": recs,
			})
		},
	}
}

func (a *app) levelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels FILE",
		Short: "Print record counts per level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.build(args[0])
			if err != nil {
				return err
			}
			counts := query.CountByLevel(res.Records())
			type level struct {
				Level int `json:"level"`
				Count int `json:"count"`
			}
			out := make([]level, 0, len(counts))
			for _, l := range query.Levels(res.Index.GroupByLevel()) {
				out = append(out, level{Level: l, Count: counts[l]})
			}
			return writeJSON(cmd, map[string]any{
				"depth":  query.Depth(res.Records()),
				"levels": out,
			})
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var (
		routeContains, routePrefix, routeRegex, labelContains, hasRoute string
		level                                                          int
	)
	cmd := &cobra.Command{
		Use:   "search FILE",
		Short: "Print records matching every given filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var preds []query.Predicate
			if routeContains != "" {
				preds = append(preds, query.RouteContains(routeContains))
			}
			if routePrefix != "" {
				preds = append(preds, query.RouteHasPrefix(routePrefix))
			}
			if routeRegex != "" {
				re, err := regexp.Compile(routeRegex)
				if err != nil {
					return fmt.Errorf("route-regex: %w", err)
				}
				preds = append(preds, query.RouteMatches(re))
			}
			if labelContains != "" {
				preds = append(preds, query.LabelContains(labelContains))
			}
			if cmd.Flags().Changed("level") {
				preds = append(preds, query.AtLevel(level))
			}
			if hasRoute != "" {
				want, err := strconv.ParseBool(hasRoute)
				if err != nil {
					return fmt.Errorf("has-route: %w", err)
				}
				if want {
					preds = append(preds, query.HasRoute())
				} else {
					preds = append(preds, query.Not(query.HasRoute()))
				}
			}

			res, err := a.build(args[0])
			if err != nil {
				return err
			}
			recs := res.Index.Find(query.And(preds...))
			if recs == nil {
				recs = []menutree.FlatRecord{}
			}
			return writeJSON(cmd, map[string]any{
				"count":   len(recs),
				"records": recs,
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&routeContains, "route-contains", "", "route contains substring")
	f.StringVar(&routePrefix, "route-prefix", "", "route starts with prefix")
	f.StringVar(&routeRegex, "route-regex", "", "route matches regular expression")
	f.StringVar(&labelContains, "label-contains", "", "label contains substring, ignoring case")
	f.IntVar(&level, "level", 0, "record level")
	f.StringVar(&hasRoute, "has-route", "", "true for navigable records, false for containers")
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare FILE",
		Short: "Flatten with every strategy and report whether the outputs agree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, err := a.forest(args[0])
			if err != nil {
				return err
			}
			timings, same, err := a.builder.Compare(forest, a.cfg.Flatten)
			if err != nil {
				return err
			}
			if !same {
				a.log.Warn("strategies disagree", "file", args[0])
			}
			return writeJSON(cmd, map[string]any{
				"identical": same,
				"timings":   timings,
			})
		},
	}
}

func (a *app) generateCmd() *cobra.Command {
	var gen menutree.GenerateConfig
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a synthetic menu forest as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Debug("generating menu", "roots", gen.Roots, "children", gen.Children, "depth", gen.Depth)
			return writeJSON(cmd, menutree.Generate(gen))
		},
	}
	f := cmd.Flags()
	f.IntVar(&gen.Roots, "roots", 10, "level 1 entries")
	f.IntVar(&gen.Children, "children", 5, "children per entry")
	f.IntVar(&gen.Depth, "depth", 3, "levels including the roots")
	f.Uint64Var(&gen.Seed, "seed", 1, "badge seed")
	return cmd
}
