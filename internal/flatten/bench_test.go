package flatten

import (
	"fmt"
	"testing"

	"github.com/dgallion1/navflat/internal/menutree"
)

func BenchmarkFlatten(b *testing.B) {
	sizes := []menutree.GenerateConfig{
		{Roots: 100, Children: 10, Depth: 3, Seed: 1},
		{Roots: 500, Children: 15, Depth: 3, Seed: 1},
		{Roots: 50, Children: 6, Depth: 5, Seed: 1},
	}
	for _, size := range sizes {
		forest := menutree.Generate(size)
		for _, s := range Strategies {
			name := fmt.Sprintf("%dx%dx%d/%v", size.Roots, size.Children, size.Depth, s)
			b.Run(name, func(b *testing.B) {
				b.ReportAllocs()
				for b.Loop() {
					if _, err := Flatten(forest, Config{Strategy: s}); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkFlattenDeepChain(b *testing.B) {
	forest := menutree.Chain(5000)
	for _, s := range Strategies {
		b.Run(s.String(), func(b *testing.B) {
			for b.Loop() {
				if _, err := Flatten(forest, Config{Strategy: s}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
