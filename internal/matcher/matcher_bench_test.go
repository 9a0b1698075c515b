package matcher

import (
	"fmt"
	"testing"
)

func BenchmarkScore(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Score("The Legend of Zelda: Breath of the Wild", "Legend of Zelda Breath of the Wild")
	}
}

func BenchmarkBestMatch(b *testing.B) {
	queue := make([]string, 1000)
	for i := range queue {
		queue[i] = fmt.Sprintf("Game Title %04d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BestMatch("Game Title 0999", queue)
	}
}
