package ol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

var ErrInvalidOperation = errors.New("invalid operation")

// Sequencer issues operation ids for a single replica session. Each
// document owns its own Sequencer; there is no process-wide counter.
type Sequencer struct {
	replicaID string
	counter   uint64
}

func NewSequencer(replicaID string) *Sequencer {
	return &Sequencer{replicaID: replicaID}
}

// ResumeSequencer continues a session whose last issued counter is known.
func ResumeSequencer(replicaID string, counter uint64) *Sequencer {
	return &Sequencer{replicaID: replicaID, counter: counter}
}

func (s *Sequencer) ReplicaID() string { return s.replicaID }

func (s *Sequencer) Counter() uint64 { return s.counter }

func (s *Sequencer) Next() string {
	s.counter++
	return FormatOpID(s.replicaID, s.counter)
}

// Observe moves the counter past a value already present in the log, so a
// replica that re-ingests its own history never reissues an id.
func (s *Sequencer) Observe(counter uint64) {
	if counter > s.counter {
		s.counter = counter
	}
}

func FormatOpID(replicaID string, counter uint64) string {
	return replicaID + ":" + strconv.FormatUint(counter, 10)
}

// ParseOpID splits an id at its last colon. Counters start at 1.
func ParseOpID(id string) (string, uint64, error) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: malformed op id %q", ErrInvalidOperation, id)
	}
	counter, err := strconv.ParseUint(id[i+1:], 10, 64)
	if err != nil || counter == 0 {
		return "", 0, fmt.Errorf("%w: bad counter in op id %q", ErrInvalidOperation, id)
	}
	return id[:i], counter, nil
}

// NewObjectID returns a fresh, lexically sortable object id.
func NewObjectID() string {
	return ulid.Make().String()
}
