// Package renderer uploads consolidated scenes to GPU buffers through WebGPU. It owns no pipelines;
// ray tracing backends bind the returned buffers to their own layouts.
package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// ErrReleased is returned when writing to SceneBuffers whose GPU resources were released.
var ErrReleased = errors.New("renderer: scene buffers released")

// Device is the part of *wgpu.Device used to create scene buffers.
type Device interface {
	CreateBufferInit(descriptor *wgpu.BufferInitDescriptor) (*wgpu.Buffer, error)
}

// Queue is the part of *wgpu.Queue used to rewrite scene buffers.
type Queue interface {
	WriteBuffer(buffer *wgpu.Buffer, bufferOffset uint64, data []byte) error
}

var (
	_ Device = &wgpu.Device{}
	_ Queue  = &wgpu.Queue{}
)

// UploadScene creates one GPU buffer per non-empty scene array and fills it with the staged bytes.
// Empty arrays get no buffer. If any buffer fails to create, the buffers created so far are released.
//
// Parameters:
//   - device: the device that allocates the buffers
//   - s: the consolidated scene to upload
//   - options: optional upload options
//
// Returns:
//   - SceneBuffers: the uploaded buffers
//   - error: error if a buffer could not be created
func UploadScene(device Device, s scene.ConsolidatedScene, options ...UploadOption) (SceneBuffers, error) {
	cfg := newUploadConfig()
	for _, opt := range options {
		opt(cfg)
	}
	if cfg.label == "" {
		cfg.label = s.Name()
	}

	staged := Stage(s)
	out := &sceneBuffers{
		label:         cfg.label,
		vertexCount:   s.VertexCount(),
		indexCount:    s.IndexCount(),
		instanceCount: s.InstanceCount(),
	}

	for _, kind := range BufferKinds {
		data := staged.Bytes(kind)
		if len(data) == 0 {
			continue
		}

		buf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    cfg.label + " " + kind.String() + " Buffer",
			Contents: data,
			Usage:    kind.Usage(),
		})
		if err != nil {
			out.Release()
			return nil, fmt.Errorf("renderer: creating %s buffer for %q: %w", kind, cfg.label, err)
		}
		out.buffers[kind] = buf
		out.sizes[kind] = uint64(len(data))
	}

	cfg.logger.Info("uploaded scene buffers",
		zap.String("scene", cfg.label),
		zap.Int("bytes", staged.Total()),
		zap.Int("vertices", out.vertexCount),
		zap.Int("indices", out.indexCount),
		zap.Int("instances", out.instanceCount),
	)
	return out, nil
}

// UpdateTransforms rewrites a run of transforms in an uploaded transform buffer, for instances that move
// without their geometry changing.
//
// Parameters:
//   - queue: the queue that performs the write
//   - buffers: the uploaded scene buffers
//   - first: the transform id of transforms[0]
//   - transforms: the replacement transforms
//
// Returns:
//   - error: error if the run exceeds the transform buffer or the write fails
func UpdateTransforms(queue Queue, buffers SceneBuffers, first uint32, transforms []geometry.Transform) error {
	if len(transforms) == 0 {
		return nil
	}
	buf := buffers.TransformBuffer()
	if buf == nil {
		return fmt.Errorf("renderer: updating transforms of %q: %w", buffers.Label(), ErrReleased)
	}

	offset := uint64(first) * geometry.TransformSize
	end := offset + uint64(len(transforms))*geometry.TransformSize
	if size := buffers.BufferSize(BufferTransform); end > size {
		return fmt.Errorf("renderer: transforms [%d,%d) exceed %d uploaded transforms of %q",
			first, uint64(first)+uint64(len(transforms)), size/geometry.TransformSize, buffers.Label())
	}

	if err := queue.WriteBuffer(buf, offset, geometry.MarshalTransforms(transforms)); err != nil {
		return fmt.Errorf("renderer: writing transforms of %q: %w", buffers.Label(), err)
	}
	return nil
}
