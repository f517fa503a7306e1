package doc

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang/glog"
	"github.com/kevinxiao27/venue-crdt/checkout"
	"github.com/kevinxiao27/venue-crdt/ol"
	"github.com/kevinxiao27/venue-crdt/util"
	"github.com/kevinxiao27/venue-crdt/vec"
)

var ErrCacheDiverged = errors.New("cache diverged from log")

// Document is one replica of a venue scene. The op log is the ground
// truth; the cache holds alive snapshots and is recomputed one object at a
// time from the per-object index.
//
// A Document is not safe for concurrent use.
type Document[T any] struct {
	replicaID string
	tsCmp     ol.CompareFunc[T]
	seq       *ol.Sequencer

	log      ol.Set[T]
	byObject map[string][]ol.Op[T]
	cache    map[string]checkout.Snapshot
	version  ol.StateVector
}

type options struct {
	counter uint64
}

type Option func(*options)

// ResumeAt continues a replica session whose last issued counter is known.
func ResumeAt(counter uint64) Option {
	return func(o *options) { o.counter = counter }
}

func New[T any](replicaID string, tsCmp ol.CompareFunc[T], opts ...Option) *Document[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Document[T]{
		replicaID: replicaID,
		tsCmp:     tsCmp,
		seq:       ol.ResumeSequencer(replicaID, o.counter),
		log:       ol.Set[T]{},
		byObject:  make(map[string][]ol.Op[T]),
		cache:     make(map[string]checkout.Snapshot),
		version:   ol.StateVector{},
	}
}

func (d *Document[T]) ReplicaID() string { return d.replicaID }

func (d *Document[T]) local(op ol.Op[T]) error {
	_, err := d.Apply(op)
	return err
}

// AddObject creates objectID. Nil rotation and scale take identity values.
func (d *Document[T]) AddObject(ts T, objectID, furnitureType string, position vec.Vector3, rotation, scale *vec.Vector3) (ol.Add[T], error) {
	op := ol.NewAdd(d.seq, ts, objectID, furnitureType, position, rotation, scale)
	return op, d.local(op)
}

func (d *Document[T]) RemoveObject(ts T, objectID string) (ol.Remove[T], error) {
	op := ol.NewRemove(d.seq, ts, objectID)
	return op, d.local(op)
}

func (d *Document[T]) MoveObject(ts T, objectID string, delta vec.Vector3) (ol.Move[T], error) {
	op := ol.NewMove(d.seq, ts, objectID, delta)
	return op, d.local(op)
}

func (d *Document[T]) RotateObject(ts T, objectID string, delta vec.Vector3) (ol.Rotate[T], error) {
	op := ol.NewRotate(d.seq, ts, objectID, delta)
	return op, d.local(op)
}

func (d *Document[T]) ScaleObject(ts T, objectID string, delta vec.Vector3) (ol.Scale[T], error) {
	op := ol.NewScale(d.seq, ts, objectID, delta)
	return op, d.local(op)
}

// Apply ingests op. It returns false without error when the op id is
// already in the log, and ErrInvalidOperation when op is malformed.
func (d *Document[T]) Apply(op ol.Op[T]) (bool, error) {
	if err := ol.Validate(op); err != nil {
		glog.Warningf("[doc][%s] rejected op: %v\n", d.replicaID, err)
		return false, err
	}
	if !d.log.Insert(op) {
		return false, nil
	}

	meta := op.Meta()
	_, counter, _ := ol.ParseOpID(meta.OpID)
	d.version.Observe(meta.ReplicaID, counter)
	if meta.ReplicaID == d.replicaID {
		d.seq.Observe(counter)
	}

	d.byObject[meta.ObjectID] = append(d.byObject[meta.ObjectID], op)
	d.refresh(meta.ObjectID)

	glog.V(2).Infof("[doc][%s] applied %s %s on %s\n", d.replicaID, op.Kind(), meta.OpID, meta.ObjectID)
	return true, nil
}

// refresh recomputes a single object from its own ops.
func (d *Document[T]) refresh(objectID string) {
	snap, ok := checkout.Checkout(objectID, d.byObject[objectID], d.tsCmp)
	if ok && snap.Alive {
		d.cache[objectID] = snap
	} else {
		delete(d.cache, objectID)
	}
}

// ApplyBatch applies ops in order and returns how many were new. The batch
// is checked up front; if any op is malformed nothing is applied.
func (d *Document[T]) ApplyBatch(ops []ol.Op[T]) (int, error) {
	for _, op := range ops {
		if err := ol.Validate(op); err != nil {
			glog.Warningf("[doc][%s] rejected batch of %d: %v\n", d.replicaID, len(ops), err)
			return 0, err
		}
	}

	applied := 0
	for _, op := range ops {
		ok, err := d.Apply(op)
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}

// Merge pulls in every op other holds that d does not.
func (d *Document[T]) Merge(other *Document[T]) (int, error) {
	if other == d {
		return 0, nil
	}
	return d.MergeOps(other.log)
}

func (d *Document[T]) MergeOps(ops ol.Set[T]) (int, error) {
	missing := ol.Difference(d.log, ops)
	n, err := d.ApplyBatch(missing.Sorted(d.tsCmp))
	if n > 0 {
		glog.V(1).Infof("[doc][%s] merged %d ops\n", d.replicaID, n)
	}
	return n, err
}

// Rebuild derives every alive snapshot from the full log, ignoring the
// cache.
func (d *Document[T]) Rebuild() map[string]checkout.Snapshot {
	return checkout.CheckoutAll(d.Ops(), d.tsCmp, false)
}

// Verify checks the incremental cache against Rebuild.
func (d *Document[T]) Verify() error {
	rebuilt := d.Rebuild()
	if len(rebuilt) != len(d.cache) {
		return fmt.Errorf("%w: %d cached objects, %d rebuilt", ErrCacheDiverged, len(d.cache), len(rebuilt))
	}
	for id, want := range rebuilt {
		got, ok := d.cache[id]
		if !ok || !got.ApproxEqual(want, checkout.Epsilon) {
			return fmt.Errorf("%w: object %s", ErrCacheDiverged, id)
		}
	}
	return nil
}

// Objects returns alive snapshots ordered by object id.
func (d *Document[T]) Objects() []checkout.Snapshot {
	return util.Map(util.SortedKeys(d.cache), func(id string) checkout.Snapshot {
		return d.cache[id]
	})
}

func (d *Document[T]) Object(objectID string) (checkout.Snapshot, bool) {
	snap, ok := d.cache[objectID]
	return snap, ok
}

// Len is the number of alive objects.
func (d *Document[T]) Len() int { return len(d.cache) }

func (d *Document[T]) OpCount() int { return len(d.log) }

// Ops returns the log in total order.
func (d *Document[T]) Ops() []ol.Op[T] {
	return d.log.Sorted(d.tsCmp)
}

func (d *Document[T]) ObjectOps(objectID string) []ol.Op[T] {
	return slices.Clone(d.byObject[objectID])
}

// StateVector returns the highest counter held per origin replica.
func (d *Document[T]) StateVector() ol.StateVector {
	v := make(ol.StateVector, len(d.version))
	v.Merge(d.version)
	return v
}

// MissingOps selects the ops whose counter is above peer's mark for their
// origin. Results are ordered by origin then counter so a transport that
// delivers them in order keeps each origin's prefix intact.
func (d *Document[T]) MissingOps(peer ol.StateVector) []ol.Op[T] {
	missing := util.Filter(d.log.Slice(), func(op ol.Op[T]) bool {
		covered, _ := peer.Covers(op.Meta().OpID)
		return !covered
	})
	slices.SortFunc(missing, ol.CompareOrigin[T])
	return missing
}
