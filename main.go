package main

import (
	"cmp"
	"fmt"

	"github.com/kevinxiao27/venue-crdt/checkout"
	"github.com/kevinxiao27/venue-crdt/delta"
	"github.com/kevinxiao27/venue-crdt/doc"
	"github.com/kevinxiao27/venue-crdt/ol"
	"github.com/kevinxiao27/venue-crdt/vec"
	"github.com/sanity-io/litter"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	byTime := cmp.Compare[int64]
	doc1 := doc.New("a", byTime)
	doc2 := doc.New("z", byTime)

	table := ol.NewObjectID()
	must(doc1.AddObject(1, table, "table", vec.Zero(), nil, nil))
	if _, _, err := delta.FullSync(doc1, doc2); err != nil {
		panic(err)
	}

	// concurrent edits on both replicas
	must(doc1.MoveObject(2, table, vec.Vector3{X: -5}))
	must(doc2.MoveObject(2, table, vec.Vector3{Z: 3}))
	must(doc2.RotateObject(3, table, vec.Vector3{Y: 90}))

	toA, toB, err := delta.FullSync(doc1, doc2)
	if err != nil {
		panic(err)
	}
	fmt.Printf("synced: %d ops to a, %d ops to z\n", toA, toB)

	result1 := doc1.Objects()
	result2 := doc2.Objects()
	fmt.Printf("Result a: %s\n", litter.Sdump(result1))
	fmt.Printf("Result z: %s\n", litter.Sdump(result2))

	if len(result1) != len(result2) {
		fmt.Println("Object counts differ")
		return
	}
	for i := range result1 {
		if !result1[i].ApproxEqual(result2[i], checkout.Epsilon) {
			fmt.Printf("Object %s differs\n", result1[i].ID)
			return
		}
	}
	fmt.Println("Replicas converged")
}
