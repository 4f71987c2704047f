// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     audio
// Description: Pre-roll ring buffer and growing clip buffer
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package audio

// RingBuffer keeps the most recent samples, overwriting the oldest.
// The recorder uses it for pre-roll audio before speech starts.
type RingBuffer struct {
	data     []float32
	size     int
	writePos int
	readPos  int
	count    int
}

// NewRingBuffer creates a new ring buffer with the specified capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		data: make([]float32, capacity),
		size: capacity,
	}
}

// Write writes samples to the buffer
func (rb *RingBuffer) Write(samples []float32) {
	for _, s := range samples {
		rb.data[rb.writePos] = s
		rb.writePos = (rb.writePos + 1) % rb.size

		if rb.count < rb.size {
			rb.count++
		} else {
			// Overwrite oldest data
			rb.readPos = (rb.readPos + 1) % rb.size
		}
	}
}

// ReadAll drains the buffer, oldest sample first
func (rb *RingBuffer) ReadAll() []float32 {
	samples := make([]float32, rb.count)
	for i := 0; i < rb.count; i++ {
		samples[i] = rb.data[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
	}
	rb.count = 0
	return samples
}

// Len returns the number of samples in the buffer
func (rb *RingBuffer) Len() int {
	return rb.count
}

// Cap returns the capacity of the buffer
func (rb *RingBuffer) Cap() int {
	return rb.size
}

// Clear clears the buffer
func (rb *RingBuffer) Clear() {
	rb.readPos = 0
	rb.writePos = 0
	rb.count = 0
}

// ClipBuffer collects the samples of one phrase
type ClipBuffer struct {
	samples []float32
}

// NewClipBuffer creates a buffer sized for a few seconds at the given rate
func NewClipBuffer(sampleRate int) *ClipBuffer {
	return &ClipBuffer{
		samples: make([]float32, 0, sampleRate*5),
	}
}

// Append adds samples to the buffer
func (cb *ClipBuffer) Append(samples []float32) {
	cb.samples = append(cb.samples, samples...)
}

// Samples returns a copy of the collected samples
func (cb *ClipBuffer) Samples() []float32 {
	result := make([]float32, len(cb.samples))
	copy(result, cb.samples)
	return result
}

// Len returns the number of samples
func (cb *ClipBuffer) Len() int {
	return len(cb.samples)
}

// TrimTail drops the newest n samples
func (cb *ClipBuffer) TrimTail(n int) {
	if n <= 0 {
		return
	}
	if n >= len(cb.samples) {
		cb.samples = cb.samples[:0]
		return
	}
	cb.samples = cb.samples[:len(cb.samples)-n]
}

// Reset empties the buffer, keeping its capacity
func (cb *ClipBuffer) Reset() {
	cb.samples = cb.samples[:0]
}
