package query

import (
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/navflat/internal/flatten"
	"github.com/dgallion1/navflat/internal/menutree"
)

func adminFlat(t testing.TB) []menutree.FlatRecord {
	t.Helper()
	data, err := os.ReadFile("../menutree/testdata/admin_menu.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var forest menutree.Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	flat, err := flatten.Flatten(forest, flatten.DefaultConfig())
	if err != nil {
		t.Fatalf("flatten fixture: %v", err)
	}
	return flat
}

func productsFlat(t testing.TB) []menutree.FlatRecord {
	t.Helper()
	forest := menutree.Forest{
		{
			Label: "Products",
			Children: []*menutree.TreeNode{
				{Label: "All"},
				{Label: "Create"},
				{Label: "Catalog", Children: []*menutree.TreeNode{
					{Label: "Categories"},
					{Label: "Inventory"},
				}},
			},
		},
	}
	flat, err := flatten.Flatten(forest, flatten.Config{KeyField: menutree.KeyLabel})
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	return flat
}

func TestAncestorChain_ProductsExample(t *testing.T) {
	flat := productsFlat(t)
	rec, ok := FindFirstByKey(flat, "label", "Categories")
	if !ok {
		t.Fatal("Categories not found")
	}
	chain, err := AncestorChain(flat, menutree.KeyLabel, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Products", "Catalog", "Categories"}
	if got := Labels(chain); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDescendants_BreadthFirst(t *testing.T) {
	flat := productsFlat(t)
	got := Labels(Descendants(flat, menutree.KeyLabel, "Products"))
	want := []string{"All", "Create", "Catalog", "Categories", "Inventory"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if d := Descendants(flat, menutree.KeyLabel, "Inventory"); d != nil {
		t.Errorf("expected no descendants for a leaf, got %v", Labels(d))
	}
	if d := Descendants(flat, menutree.KeyLabel, "Missing"); d != nil {
		t.Errorf("expected nil for unknown ancestor, got %v", Labels(d))
	}
}

func TestDescendants_LevelByLevel(t *testing.T) {
	// Two branches, each two levels deep: BFS must finish level 2 before
	// touching level 3, unlike the pre-order sequence.
	forest := menutree.Forest{{
		ID: "r", Label: "R",
		Children: []*menutree.TreeNode{
			{ID: "a", Label: "A", Children: []*menutree.TreeNode{{ID: "a1", Label: "A1"}}},
			{ID: "b", Label: "B", Children: []*menutree.TreeNode{{ID: "b1", Label: "B1"}}},
		},
	}}
	flat, err := flatten.Flatten(forest, flatten.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	got := Labels(Descendants(flat, menutree.KeyID, "r"))
	want := []string{"A", "B", "A1", "B1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFindFirstByKey_FirstOccurrenceWins(t *testing.T) {
	flat := adminFlat(t)
	rec, ok := FindFirstByKey(flat, "route", "settings.general")
	if !ok {
		t.Fatal("route not found")
	}
	if rec.ID != "settings" || rec.Level != 1 {
		t.Errorf("expected the Settings root, got %s at level %d", rec.ID, rec.Level)
	}

	if _, ok := FindFirstByKey(flat, "route", "nowhere"); ok {
		t.Error("expected no match for unknown route")
	}
}

func TestHierarchyByRoute(t *testing.T) {
	flat := adminFlat(t)
	chain, err := HierarchyByRoute(flat, menutree.KeyID, "products.categories")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Products", "Catalog", "Categories"}
	if got := Labels(chain); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	chain, err = HierarchyByRoute(flat, menutree.KeyID, "nowhere")
	if chain != nil || err != nil {
		t.Errorf("expected nil, nil for unknown route; got %v, %v", chain, err)
	}
}

func TestAncestorChain_DuplicateIDs(t *testing.T) {
	flat := adminFlat(t)
	idx := NewIndex(flat, menutree.KeyID)

	wantParent := map[string]string{
		"All Products":  "Products",
		"All Orders":    "Orders",
		"All Customers": "Customers",
	}
	for _, r := range idx.Find(func(r menutree.FlatRecord) bool { return r.ID == "all" }) {
		chain, err := idx.AncestorChain(r)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", r.Label, err)
		}
		if len(chain) != 2 {
			t.Fatalf("%s: expected chain of 2, got %v", r.Label, Labels(chain))
		}
		if chain[0].Label != wantParent[r.Label] || chain[1].Label != r.Label {
			t.Errorf("%s: got chain %v", r.Label, Labels(chain))
		}
	}
}

func TestAncestorChain_BrokenChain(t *testing.T) {
	flat := []menutree.FlatRecord{
		{ID: "root", Label: "Root", Level: 1},
		{ID: "orphan", Label: "Orphan", Level: 2, ParentID: "gone", ParentLabel: "Gone"},
	}
	_, err := AncestorChain(flat, menutree.KeyID, flat[1])
	if !errors.Is(err, menutree.ErrBrokenChain) {
		t.Fatalf("expected broken chain, got %v", err)
	}
	var bce *menutree.BrokenChainError
	if !errors.As(err, &bce) || bce.ParentKey != "gone" || bce.Label != "Orphan" {
		t.Errorf("unexpected error detail: %+v", bce)
	}

	if err := NewIndex(flat, menutree.KeyID).Validate(); !errors.Is(err, menutree.ErrBrokenChain) {
		t.Errorf("Validate: expected broken chain, got %v", err)
	}

	// The root itself is unaffected.
	chain, err := AncestorChain(flat, menutree.KeyID, flat[0])
	if err != nil || len(chain) != 1 {
		t.Errorf("root chain: got %v, %v", Labels(chain), err)
	}
}

func TestAncestorChain_CyclicParentChain(t *testing.T) {
	tests := []struct {
		name     string
		flat     []menutree.FlatRecord
		start    int
		wantPath []string
	}{
		{
			name: "two record loop",
			flat: []menutree.FlatRecord{
				{ID: "root", Label: "Root", Level: 1},
				{ID: "a", Label: "A", Level: 2, ParentID: "b", ParentLabel: "B"},
				{ID: "b", Label: "B", Level: 2, ParentID: "a", ParentLabel: "A"},
			},
			start:    1,
			wantPath: []string{"A", "B", "A"},
		},
		{
			name: "self reference",
			flat: []menutree.FlatRecord{
				{ID: "root", Label: "Root", Level: 1},
				{ID: "x", Label: "X", Level: 3, ParentID: "x", ParentLabel: "X"},
			},
			start:    1,
			wantPath: []string{"X", "X"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := AncestorChain(tt.flat, menutree.KeyID, tt.flat[tt.start])
			if chain != nil {
				t.Errorf("expected no chain, got %v", Labels(chain))
			}
			if !errors.Is(err, menutree.ErrCyclicStructure) {
				t.Fatalf("expected cyclic structure, got %v", err)
			}
			if errors.Is(err, menutree.ErrBrokenChain) {
				t.Errorf("a loop of existing records is not a broken chain: %v", err)
			}
			var cse *menutree.CyclicStructureError
			if !errors.As(err, &cse) {
				t.Fatalf("expected *CyclicStructureError, got %T", err)
			}
			if cse.Label != tt.flat[tt.start].Label {
				t.Errorf("got label %q, want %q", cse.Label, tt.flat[tt.start].Label)
			}
			if strings.Join(cse.Path, ">") != strings.Join(tt.wantPath, ">") {
				t.Errorf("got path %v, want %v", cse.Path, tt.wantPath)
			}

			if err := NewIndex(tt.flat, menutree.KeyID).Validate(); !errors.Is(err, menutree.ErrCyclicStructure) {
				t.Errorf("Validate: expected cyclic structure, got %v", err)
			}
			// The root is outside the loop.
			if chain, err := AncestorChain(tt.flat, menutree.KeyID, tt.flat[0]); err != nil || len(chain) != 1 {
				t.Errorf("root chain: got %v, %v", Labels(chain), err)
			}
		})
	}
}

func TestNewIndex_ParentAtAnyLevel(t *testing.T) {
	// The parent sits two levels up; it still resolves.
	flat := []menutree.FlatRecord{
		{ID: "root", Label: "Root", Level: 1},
		{ID: "deep", Label: "Deep", Level: 3, ParentID: "root", ParentLabel: "Root"},
	}
	idx := NewIndex(flat, menutree.KeyID)
	chain, err := idx.AncestorChain(flat[1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(Labels(chain), ">"); got != "Root>Deep" {
		t.Errorf("got chain %s", got)
	}
	if kids := idx.Children("root"); len(kids) != 1 || kids[0].Label != "Deep" {
		t.Errorf("unexpected children %v", Labels(kids))
	}
	if err := idx.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestIndex_ExplicitIDOutranksDerived(t *testing.T) {
	forest := menutree.Forest{
		{Label: "Home", Children: []*menutree.TreeNode{{Label: "Overview"}}},
		{ID: "1.1", Label: "Legacy", Children: []*menutree.TreeNode{{ID: "old", Label: "Old"}}},
	}
	flat, err := flatten.Flatten(forest, flatten.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if flat[1].ID != "1.1" || !flat[1].DerivedID {
		t.Fatalf("expected Overview to derive id 1.1, got %+v", flat[1])
	}

	idx := NewIndex(flat, menutree.KeyID)
	if rec, ok := idx.Lookup("1.1"); !ok || rec.Label != "Legacy" {
		t.Errorf("Lookup(1.1) = %v, %v; want Legacy", rec.Label, ok)
	}
	if kids := idx.Children("1.1"); len(kids) != 1 || kids[0].Label != "Old" {
		t.Errorf("Children(1.1) = %v, want [Old]", Labels(kids))
	}
	if got := Labels(idx.Descendants("1")); len(got) != 1 || got[0] != "Overview" {
		t.Errorf("Descendants(1) = %v, want [Overview]", got)
	}
	chain, err := idx.AncestorChain(flat[1])
	if err != nil || strings.Join(Labels(chain), ">") != "Home>Overview" {
		t.Errorf("Overview chain: got %v, %v", Labels(chain), err)
	}
	if err := idx.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestAncestorChain_AbsentRecord(t *testing.T) {
	flat := adminFlat(t)
	chain, err := AncestorChain(flat, menutree.KeyID, menutree.FlatRecord{ID: "ghost", Label: "Ghost", Level: 1})
	if chain != nil || err != nil {
		t.Errorf("expected nil, nil; got %v, %v", chain, err)
	}
}

func TestAncestorsAndDescendantsAgree(t *testing.T) {
	flat := adminFlat(t)
	idx := NewIndex(flat, menutree.KeyID)
	if err := idx.Validate(); err != nil {
		t.Fatalf("fixture should be fully linked: %v", err)
	}

	for _, r := range flat {
		chain, err := idx.AncestorChain(r)
		if err != nil {
			t.Fatalf("%s: %v", r.Label, err)
		}
		if len(chain) != r.Level {
			t.Errorf("%s: chain length %d, level %d", r.Label, len(chain), r.Level)
		}
		if !chain[len(chain)-1].Same(r) {
			t.Errorf("%s: chain does not end at the record", r.Label)
		}
		for _, a := range chain[:len(chain)-1] {
			found := false
			for _, d := range idx.Descendants(a.ID) {
				if d.Same(r) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("%s missing from descendants of %s", r.Label, a.Label)
			}
		}
	}
}

func TestChildren(t *testing.T) {
	flat := adminFlat(t)
	got := Labels(Children(flat, menutree.KeyID, "settings"))
	want := []string{"System", "User Management"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if c := Children(flat, menutree.KeyID, "dashboard"); c != nil {
		t.Errorf("expected nil for leaf, got %v", Labels(c))
	}
}

func TestGroupByLevel(t *testing.T) {
	flat := adminFlat(t)
	groups := GroupByLevel(flat)

	if got := Levels(groups); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("unexpected levels %v", got)
	}
	total := 0
	for level, recs := range groups {
		total += len(recs)
		for _, r := range recs {
			if r.Level != level {
				t.Errorf("%s grouped under %d but has level %d", r.Label, level, r.Level)
			}
		}
	}
	if total != len(flat) {
		t.Errorf("groups hold %d records, sequence has %d", total, len(flat))
	}
	if groups[1][0].ID != "dashboard" || groups[1][len(groups[1])-1].ID != "development" {
		t.Error("sequence order not kept within level 1")
	}

	counts := CountByLevel(flat)
	if counts[1] != 9 || counts[1]+counts[2]+counts[3] != 34 {
		t.Errorf("unexpected counts %v", counts)
	}
	if Depth(flat) != 3 || Depth(nil) != 0 {
		t.Errorf("unexpected depth %d", Depth(flat))
	}
	if len(GroupByLevel(nil)) != 0 {
		t.Error("expected empty grouping for empty sequence")
	}
}

func TestPredicates(t *testing.T) {
	flat := adminFlat(t)
	tests := []struct {
		name string
		pred Predicate
		want int
	}{
		{"route contains settings", RouteContains("settings"), 4},
		{"route prefix products", RouteHasPrefix("products."), 4},
		{"route regexp", RouteMatches(regexp.MustCompile(`^orders\.(pending|completed)$`)), 2},
		{"label contains all", LabelContains("ALL"), 3},
		{"label contains products", LabelContains("products"), 2},
		{"level 3", AtLevel(3), 7},
		{"containers", Not(HasRoute()), 10},
		{"and", And(AtLevel(2), RouteHasPrefix("orders")), 3},
		{"or", Or(RouteContains("profile"), RouteContains("teams")), 2},
		{"and of nothing", And(), 34},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(FindByPredicate(flat, tt.pred)); got != tt.want {
				t.Errorf("got %d matches, want %d", got, tt.want)
			}
		})
	}

	if got := FindByPredicate(flat, RouteContains("zzz")); got != nil {
		t.Errorf("expected nil for no matches, got %v", got)
	}
}

func TestIndex_ConcurrentReads(t *testing.T) {
	flat := adminFlat(t)
	idx := NewIndex(flat, menutree.KeyID)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, r := range flat {
				if _, err := idx.AncestorChain(r); err != nil {
					t.Errorf("%s: %v", r.Label, err)
					return
				}
				idx.Descendants(r.ID)
			}
		}()
	}
	wg.Wait()
}
