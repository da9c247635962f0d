// Package streams mirrors campaign run events onto Redis Streams so another
// instance, or a reconnecting client, can replay a run.
package streams

import (
	"time"

	"github.com/jimdaga/viralpilot/internal/campaign"
)

// Stream naming
const (
	RunStreamPrefix = "campaign:run:"
	SchemaVersionV1 = "v1"
)

// Stream limits
const (
	DefaultMaxLen = 1000
	DefaultTTL    = time.Hour
	blockTimeout  = 5 * time.Second
)

// Message field values for the "kind" entry
const (
	kindEvent = "event"
	kindEnd   = "end"
)

// RunStream returns the stream key for a run
func RunStream(runID string) string {
	return RunStreamPrefix + runID
}

// Message is one entry read back from a run stream. The final entry of a
// run has End set, with Error holding the failure for runs that did not
// reach DONE.
type Message struct {
	ID    string
	Event campaign.Event
	End   bool
	Error string
}
