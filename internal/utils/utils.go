package utils

import "sync"

// ForEveryWithBoundedGoroutines calls f for every value using at most limit
// goroutines at a time and waits for all calls to return. A limit below one
// runs the calls sequentially.
func ForEveryWithBoundedGoroutines[T any](limit int, values []T, f func(i int, value T)) {
	if limit < 1 {
		limit = 1
	}
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, value := range values {
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, value T) {
			defer wg.Done()
			f(i, value)
			<-guard
		}(i, value)
	}
	wg.Wait()
}

// Chunk splits values into consecutive slices of at most size elements.
func Chunk[T any](values []T, size int) [][]T {
	if size < 1 {
		size = len(values)
	}
	var chunks [][]T
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
