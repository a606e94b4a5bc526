package scheduler

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// newRunID mints a ULID for one scheduler run: lexically sortable by
// creation time, unlike a plain uuid. It is carried on RunResult.RunID.
func newRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
