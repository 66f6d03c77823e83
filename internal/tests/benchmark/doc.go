// Package benchmark provides performance benchmarks for the snapshot read
// path.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare engines only:
//
//	go test -bench='/badger' -benchmem ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
