package constants_test

import (
	"fmt"

	"github.com/agentstation/gamemeta/pkg/constants"
)

// Example_retries demonstrates the retry ceilings used by the pipeline
func Example_retries() {
	fmt.Printf("rate limit: %d retries, %s backoff\n", constants.MaxRateLimitRetries, constants.RateLimitBackoff)
	fmt.Printf("entity: %d retries, %s delay\n", constants.MaxRetries, constants.RetryDelay)
	// Output:
	// rate limit: 3 retries, 1m0s backoff
	// entity: 3 retries, 3s delay
}

// Example_matching demonstrates the identity matching thresholds
func Example_matching() {
	fmt.Println(constants.GoodRatio > constants.MinRatio)
	fmt.Printf("flush every %d games\n", constants.SaveEveryNGames)
	// Output:
	// true
	// flush every 10 games
}
