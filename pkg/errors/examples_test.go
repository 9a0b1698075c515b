package errors_test

import (
	"fmt"
	"net/http"

	"github.com/agentstation/gamemeta/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := errors.NewNotFoundError("source", "steam")

	if errors.IsNotFound(err) {
		fmt.Println("Source not found")
	}

	// Output: Source not found
}

// Example_aPIError demonstrates how provider responses are classified.
func Example_aPIError() {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		err := errors.NewAPIError("rawg", status, http.StatusText(status))
		switch {
		case errors.IsRateLimited(err):
			fmt.Println(status, "back off and retry the call")
		case errors.IsProtocol(err):
			fmt.Println(status, "retry the entity")
		}
	}

	// Output:
	// 429 back off and retry the call
	// 502 retry the entity
}
