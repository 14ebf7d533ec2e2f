package storage

import (
	"context"
	"sync/atomic"
)

// Discard drops image bytes and only counts Store calls (dry runs).
type Discard struct {
	stored atomic.Int64
	bytes  atomic.Int64
}

func (d *Discard) Store(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Name: name, Err: err}
	}
	d.stored.Add(1)
	d.bytes.Add(int64(len(data)))
	return nil
}

// Stored returns how many images were handed to the sink.
func (d *Discard) Stored() int64 { return d.stored.Load() }

// Bytes returns the total size of images handed to the sink.
func (d *Discard) Bytes() int64 { return d.bytes.Load() }

func (d *Discard) Location() string { return "discard" }

func (d *Discard) Close() error { return nil }
