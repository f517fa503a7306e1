package ol

import (
	"errors"
	"fmt"

	"github.com/kevinxiao27/venue-crdt/util"
)

var ErrInvalidStateVector = errors.New("invalid state vector")

// StateVector maps a replica to the highest counter seen from it. It
// assumes per-origin prefix delivery: having counter N from a replica
// means having 1..N.
type StateVector map[string]uint64

// Pair is one wire entry of a state vector.
type Pair struct {
	ReplicaID string `json:"replicaId" cbor:"replicaId"`
	Counter   uint64 `json:"counter" cbor:"counter"`
}

func (v StateVector) Observe(replicaID string, counter uint64) {
	if counter > v[replicaID] {
		v[replicaID] = counter
	}
}

// Covers reports whether the op id is at or below the recorded mark.
func (v StateVector) Covers(opID string) (bool, error) {
	replica, counter, err := ParseOpID(opID)
	if err != nil {
		return false, err
	}
	return counter <= v[replica], nil
}

func (v StateVector) Merge(o StateVector) {
	for replica, counter := range o {
		v.Observe(replica, counter)
	}
}

// Pairs lists entries ordered by replica id.
func (v StateVector) Pairs() []Pair {
	return util.Map(util.SortedKeys(map[string]uint64(v)), func(replica string) Pair {
		return Pair{ReplicaID: replica, Counter: v[replica]}
	})
}

func StateVectorFromPairs(pairs []Pair) (StateVector, error) {
	v := make(StateVector, len(pairs))
	for _, p := range pairs {
		if p.ReplicaID == "" {
			return nil, fmt.Errorf("%w: empty replica id", ErrInvalidStateVector)
		}
		v.Observe(p.ReplicaID, p.Counter)
	}
	return v, nil
}
