package loader

import (
	"github.com/Faultbox/meshport/internal/engine/model"
)

// Dataset is the consumer-side view of the most recent load. It is owned by
// the goroutine that calls Drain and draws; it is never touched by the worker.
type Dataset struct {
	Seq    uint64 // request the contents belong to
	Assets []*model.LoadedAsset
	Bounds model.Bounds
	Ready  bool // every group has been through Upload
}

// NumGroups returns the number of material groups across assets.
func (d *Dataset) NumGroups() int {
	n := 0
	for _, a := range d.Assets {
		n += len(a.Groups)
	}
	return n
}

// Release frees the GPU handles of every group through up and empties the
// dataset. Seq is kept.
func (d *Dataset) Release(up Uploader) {
	for _, a := range d.Assets {
		for _, g := range a.Groups {
			if !g.GPU.IsZero() {
				up.Release(g.GPU)
				g.GPU = model.GPUHandle{}
			}
		}
	}
	d.Assets = nil
	d.Bounds.Reset()
	d.Ready = false
}

func (d *Dataset) recomputeBounds() {
	d.Bounds.Reset()
	for _, a := range d.Assets {
		d.Bounds.ExpandByBounds(a.Bounds)
	}
}
