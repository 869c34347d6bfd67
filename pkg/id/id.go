// Package id issues run identifiers.
package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// monotonic so runs started in the same millisecond still sort in order
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID run id. Ids sort by creation time, which keeps the
// risk_runs index in run order.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		panic(err)
	}
	return id.String()
}

