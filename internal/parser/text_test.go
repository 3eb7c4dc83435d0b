package parser

import (
	"strings"
	"testing"
)

func TestTextParser_IndentedOutline(t *testing.T) {
	input := "Dashboard -> dashboard\nProducts\n  All Products -> products.index\n  Catalog\n    Categories -> products.categories\n\nOrders\n\tPending -> orders.pending\n"
	p := &TextParser{}
	forest, err := p.Parse(strings.NewReader(input), "menu.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(forest) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(forest))
	}
	if forest[0].Label != "Dashboard" || forest[0].Route != "dashboard" {
		t.Errorf("unexpected first root: %+v", forest[0])
	}
	products := forest[1]
	if products.Route != "" || len(products.Children) != 2 {
		t.Fatalf("unexpected products node: %+v", products)
	}
	catalog := products.Children[1]
	if catalog.Label != "Catalog" || len(catalog.Children) != 1 {
		t.Fatalf("unexpected catalog node: %+v", catalog)
	}
	if catalog.Children[0].Route != "products.categories" {
		t.Errorf("expected route %q, got %q", "products.categories", catalog.Children[0].Route)
	}
	if len(forest[2].Children) != 1 || forest[2].Children[0].Label != "Pending" {
		t.Errorf("tab indentation not honored: %+v", forest[2].Children)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	forest, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forest) != 0 {
		t.Errorf("expected empty forest, got %d roots", len(forest))
	}
}

func TestTextParser_CommentsAndBlankLines(t *testing.T) {
	input := "# admin menu\n\nHome -> home\n   \n# end\n"
	p := &TextParser{}
	forest, err := p.Parse(strings.NewReader(input), "c.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forest) != 1 || forest[0].Label != "Home" {
		t.Errorf("unexpected forest: %+v", forest)
	}
}

func TestTextParser_IndentationJump(t *testing.T) {
	input := "Root\n      TooDeep\n"
	p := &TextParser{}
	_, err := p.Parse(strings.NewReader(input), "jump.txt")
	if err == nil {
		t.Fatal("expected error for indentation jump")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line number in error, got %v", err)
	}
}

func TestTextParser_OddIndentation(t *testing.T) {
	p := &TextParser{}
	if _, err := p.Parse(strings.NewReader("Root\n   Child\n"), "odd.txt"); err == nil {
		t.Fatal("expected error for three-space indent")
	}
}

func TestTextParser_FirstLineIndented(t *testing.T) {
	p := &TextParser{}
	if _, err := p.Parse(strings.NewReader("  Child\n"), "first.txt"); err == nil {
		t.Fatal("expected error when the first entry is indented")
	}
}
