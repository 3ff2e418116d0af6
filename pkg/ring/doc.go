/*
Package ring provides a fixed-capacity, lock-free single-producer/single-consumer
ring buffer.

# Overview

RingBuffer hands records from exactly one producer goroutine to exactly one
consumer goroutine without locks. The producer owns the write index and the
consumer owns the read index; each side publishes its index with an atomic
store and observes the other side's index with an atomic load. Go atomics are
sequentially consistent, which subsumes the release/acquire pairing the
structure needs: a consumer that observes write index n also observes the
slot written before it.

# Discipline

Concurrent Push calls from two goroutines, or concurrent Pop calls from two
goroutines, are a data race. When more than one consumer is needed use a
multi-consumer queue instead of sharing a RingBuffer.

# Overflow

Push never blocks. When the buffer holds Cap() elements Push returns false
and the value is discarded, bounding memory and latency at the cost of
dropping samples under burst load.

# Usage

	rb := ring.MustNew[Event](64)

	// producer goroutine
	if !rb.Push(ev) {
		dropped++
	}

	// consumer goroutine
	if rb.Size() > 0 {
		for ev, ok := rb.Pop(); ok; ev, ok = rb.Pop() {
			handle(ev)
		}
	}
*/
package ring
