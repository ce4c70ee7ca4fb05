package testutil

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

var seq atomic.Int64

func init() {
	seq.Store(time.Now().UnixNano() % 1_000_000)
}

// RandomEmail returns a unique email address for test fixtures.
func RandomEmail() string {
	return fmt.Sprintf("user%d@example.com", seq.Add(1))
}

// RandomNationalID returns a unique numeric national id for test fixtures.
func RandomNationalID() string {
	return fmt.Sprintf("%d%03d", seq.Add(1), rand.Intn(1000))
}
