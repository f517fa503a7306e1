package delta

import (
	"github.com/kevinxiao27/venue-crdt/doc"
	"github.com/kevinxiao27/venue-crdt/ol"
)

// Request is the first sync message: the sender's progress.
type Request struct {
	ReplicaID   string    `json:"replicaId" cbor:"replicaId"`
	StateVector []ol.Pair `json:"stateVector" cbor:"stateVector"`
}

// Response carries the ops the requester was missing.
type Response[T any] struct {
	ReplicaID string         `json:"replicaId" cbor:"replicaId"`
	Ops       []ol.Record[T] `json:"ops" cbor:"ops"`
}

func NewRequest[T any](d *doc.Document[T]) Request {
	return Request{
		ReplicaID:   d.ReplicaID(),
		StateVector: d.StateVector().Pairs(),
	}
}

func Respond[T any](d *doc.Document[T], req Request) (Response[T], error) {
	peer, err := ol.StateVectorFromPairs(req.StateVector)
	if err != nil {
		return Response[T]{}, err
	}
	return Response[T]{
		ReplicaID: d.ReplicaID(),
		Ops:       ol.ToRecords(ComputeSyncMessage(d, peer)),
	}, nil
}

// Accept decodes and applies a response. A malformed record, or one that
// skips ahead of what d holds from its origin, rejects the whole response.
func Accept[T any](d *doc.Document[T], resp Response[T]) (int, error) {
	ops, err := ol.FromRecords(resp.Ops)
	if err != nil {
		return 0, err
	}
	if ops, err = InOrder(d.StateVector(), ops); err != nil {
		return 0, err
	}
	return ApplySyncMessage(d, ops)
}
