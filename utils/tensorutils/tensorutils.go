// Package tensorutils provides utilities for working with tensors
package tensorutils

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Cast returns a new tensor holding t's data converted to the element
// type to. The result always owns a fresh backing array, even when no
// conversion is needed, so that casting never aliases the argument's
// memory. Supported element types are uint8, float32, and float64.
func Cast(t *tensor.Dense, to tensor.Dtype) (*tensor.Dense, error) {
	shape := make([]int, len(t.Shape()))
	copy(shape, t.Shape())

	switch to {
	case tensor.Float64:
		data, err := Float64Slice(t)
		if err != nil {
			return nil, fmt.Errorf("cast: %v", err)
		}
		return tensor.New(tensor.WithShape(shape...),
			tensor.WithBacking(data)), nil

	case tensor.Float32:
		data, err := float32Slice(t)
		if err != nil {
			return nil, fmt.Errorf("cast: %v", err)
		}
		return tensor.New(tensor.WithShape(shape...),
			tensor.WithBacking(data)), nil

	case tensor.Uint8:
		data, err := uint8Slice(t)
		if err != nil {
			return nil, fmt.Errorf("cast: %v", err)
		}
		return tensor.New(tensor.WithShape(shape...),
			tensor.WithBacking(data)), nil
	}

	return nil, fmt.Errorf("cast: unsupported target dtype %v", to)
}

// Float64Slice returns a copy of t's data, flattened and converted to
// float64
func Float64Slice(t *tensor.Dense) ([]float64, error) {
	switch data := t.Data().(type) {
	case []float64:
		out := make([]float64, len(data))
		copy(out, data)
		return out, nil
	case []float32:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	case []uint8:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("float64Slice: unsupported source dtype %v",
		t.Dtype())
}

func float32Slice(t *tensor.Dense) ([]float32, error) {
	switch data := t.Data().(type) {
	case []float32:
		out := make([]float32, len(data))
		copy(out, data)
		return out, nil
	case []float64:
		out := make([]float32, len(data))
		for i, v := range data {
			out[i] = float32(v)
		}
		return out, nil
	case []uint8:
		out := make([]float32, len(data))
		for i, v := range data {
			out[i] = float32(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("float32Slice: unsupported source dtype %v",
		t.Dtype())
}

func uint8Slice(t *tensor.Dense) ([]uint8, error) {
	switch data := t.Data().(type) {
	case []uint8:
		out := make([]uint8, len(data))
		copy(out, data)
		return out, nil
	case []float32:
		out := make([]uint8, len(data))
		for i, v := range data {
			out[i] = uint8(v)
		}
		return out, nil
	case []float64:
		out := make([]uint8, len(data))
		for i, v := range data {
			out[i] = uint8(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("uint8Slice: unsupported source dtype %v",
		t.Dtype())
}

// StripBatch returns t with a leading singleton batch dimension
// removed. Tensors without a 4-dimensional [1, ...] shape are returned
// unchanged. The result owns its own backing array.
func StripBatch(t *tensor.Dense) (*tensor.Dense, error) {
	shape := t.Shape()
	if len(shape) != 4 {
		return t, nil
	}
	if shape[0] != 1 {
		return nil, fmt.Errorf("stripBatch: cannot strip batch dimension "+
			"of size %v", shape[0])
	}

	// Row-major layout is unchanged by dropping a leading 1, so this
	// is a reshaping copy
	stripped, err := Cast(t, t.Dtype())
	if err != nil {
		return nil, fmt.Errorf("stripBatch: %v", err)
	}
	if err := stripped.Reshape(shape[1], shape[2], shape[3]); err != nil {
		return nil, fmt.Errorf("stripBatch: %v", err)
	}
	return stripped, nil
}

// ChannelFirst converts a [height, width, channels] image tensor into
// a new [channels, height, width] tensor, copying the data
func ChannelFirst(t *tensor.Dense) (*tensor.Dense, error) {
	shape := t.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("channelFirst: expected 3 image dimensions, "+
			"got shape %v", shape)
	}
	h, w, c := shape[0], shape[1], shape[2]

	switch data := t.Data().(type) {
	case []uint8:
		out := make([]uint8, len(data))
		transposeHWC(h, w, c, func(dst, src int) { out[dst] = data[src] })
		return tensor.New(tensor.WithShape(c, h, w),
			tensor.WithBacking(out)), nil
	case []float32:
		out := make([]float32, len(data))
		transposeHWC(h, w, c, func(dst, src int) { out[dst] = data[src] })
		return tensor.New(tensor.WithShape(c, h, w),
			tensor.WithBacking(out)), nil
	case []float64:
		out := make([]float64, len(data))
		transposeHWC(h, w, c, func(dst, src int) { out[dst] = data[src] })
		return tensor.New(tensor.WithShape(c, h, w),
			tensor.WithBacking(out)), nil
	}
	return nil, fmt.Errorf("channelFirst: unsupported dtype %v", t.Dtype())
}

func transposeHWC(h, w, c int, move func(dst, src int)) {
	for k := 0; k < c; k++ {
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				move(k*h*w+i*w+j, i*w*c+j*c+k)
			}
		}
	}
}

// ConcatChannels concatenates channel-first image tensors of identical
// shape along the channel axis, oldest first. Because the channel axis
// leads, the concatenation is a contiguous copy of each frame's data.
func ConcatChannels(frames []*tensor.Dense) (*tensor.Dense, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("concatChannels: no frames to concatenate")
	}

	shape := frames[0].Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("concatChannels: expected 3 image "+
			"dimensions, got shape %v", shape)
	}
	c, h, w := shape[0], shape[1], shape[2]
	for _, frame := range frames[1:] {
		if !frame.Shape().Eq(shape) {
			return nil, fmt.Errorf("concatChannels: frame shape %v does "+
				"not match %v", frame.Shape(), shape)
		}
		if frame.Dtype() != frames[0].Dtype() {
			return nil, fmt.Errorf("concatChannels: frame dtype %v does "+
				"not match %v", frame.Dtype(), frames[0].Dtype())
		}
	}

	switch frames[0].Data().(type) {
	case []uint8:
		out := make([]uint8, 0, len(frames)*c*h*w)
		for _, frame := range frames {
			out = append(out, frame.Data().([]uint8)...)
		}
		return tensor.New(tensor.WithShape(c*len(frames), h, w),
			tensor.WithBacking(out)), nil
	case []float32:
		out := make([]float32, 0, len(frames)*c*h*w)
		for _, frame := range frames {
			out = append(out, frame.Data().([]float32)...)
		}
		return tensor.New(tensor.WithShape(c*len(frames), h, w),
			tensor.WithBacking(out)), nil
	case []float64:
		out := make([]float64, 0, len(frames)*c*h*w)
		for _, frame := range frames {
			out = append(out, frame.Data().([]float64)...)
		}
		return tensor.New(tensor.WithShape(c*len(frames), h, w),
			tensor.WithBacking(out)), nil
	}
	return nil, fmt.Errorf("concatChannels: unsupported dtype %v",
		frames[0].Dtype())
}
