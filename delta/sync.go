// Package delta exchanges only the operations a peer is missing. A sync is
// two messages: the peer sends its state vector, the holder answers with
// every op above that vector, and the peer applies them as a batch.
//
// The exchange relies on each origin's ops reaching a replica in counter
// order. Document.MissingOps emits them that way; transports must not
// reorder them.
package delta

import (
	"github.com/golang/glog"
	"github.com/kevinxiao27/venue-crdt/doc"
	"github.com/kevinxiao27/venue-crdt/ol"
)

func ComputeSyncMessage[T any](d *doc.Document[T], peer ol.StateVector) []ol.Op[T] {
	return d.MissingOps(peer)
}

func ApplySyncMessage[T any](d *doc.Document[T], ops []ol.Op[T]) (int, error) {
	return d.ApplyBatch(ops)
}

// FullSync runs both directions between two in-process documents and
// returns how many ops each side applied.
func FullSync[T any](a, b *doc.Document[T]) (toA int, toB int, err error) {
	va, vb := a.StateVector(), b.StateVector()
	forA := ComputeSyncMessage(b, va)
	forB := ComputeSyncMessage(a, vb)

	if toA, err = ApplySyncMessage(a, forA); err != nil {
		return toA, 0, err
	}
	if toB, err = ApplySyncMessage(b, forB); err != nil {
		return toA, toB, err
	}
	glog.V(1).Infof("[sync] %s<-%s %d, %s<-%s %d\n", a.ReplicaID(), b.ReplicaID(), toA, b.ReplicaID(), a.ReplicaID(), toB)
	return toA, toB, nil
}
