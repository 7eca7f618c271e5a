package utils

import (
	"log/slog"
	"sync"
)

const DEFAULT_BATCH_SIZE = 25

// BatchBuffer accumulates items until a sink is ready to take them as a batch.
type BatchBuffer[T any] struct {
	buffer     []T
	size       int
	bufferLock sync.Mutex
}

func NewBatchBuffer[T any](size int) *BatchBuffer[T] {
	if size <= 0 {
		size = DEFAULT_BATCH_SIZE
	}
	return &BatchBuffer[T]{
		buffer: make([]T, 0, size),
		size:   size,
	}
}

// Add appends an item and reports whether the buffer reached its batch size.
func (b *BatchBuffer[T]) Add(item T) bool {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	b.buffer = append(b.buffer, item)
	return len(b.buffer) >= b.size
}

func (b *BatchBuffer[T]) GetAndClear() []T {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	if len(b.buffer) == 0 {
		return nil
	}

	batch := b.buffer
	b.buffer = make([]T, 0, b.size)
	return batch
}

func (b *BatchBuffer[T]) Size() int {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()
	return len(b.buffer)
}

func (b *BatchBuffer[T]) HasData() bool {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()
	return len(b.buffer) > 0
}

func (b *BatchBuffer[T]) LogBatchProcessing(batchType string) {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	slog.Info("[BatchBuffer] Processing batch",
		slog.String("type", batchType),
		slog.Int("batch_size", len(b.buffer)))
}
