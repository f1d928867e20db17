package slug_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/technofatty/technofatty/internal/slug"
)

// BenchmarkSlugify benchmarks transliteration of a mixed-script title
func BenchmarkSlugify(b *testing.B) {
	title := "Crème Brûlée & Ünïcode: A Field Guide to Résumé Parsing (2024 Edition)"

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		slug.Slugify(title)
	}
}

// BenchmarkAllocateCrowded benchmarks probing past 50 taken suffixes
func BenchmarkAllocateCrowded(b *testing.B) {
	taken := map[string]bool{"launch-notes": true}
	for i := 1; i < 50; i++ {
		taken["launch-notes-"+strconv.Itoa(i)] = true
	}
	exists := slug.InSet(taken)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := slug.Allocate(ctx, "Launch Notes", "", exists); err != nil {
			b.Fatal(err)
		}
	}
}
