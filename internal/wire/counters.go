package wire

import "sync/atomic"

// Counters tracks per-direction bandwidth when a compression adapter is
// installed. Wire values count compressed bytes as they cross the socket;
// Data values count the decompressed view delivered to (or taken from)
// the framer. With no adapter installed all values stay zero.
type Counters struct {
	wireRead    atomic.Int64
	wireWritten atomic.Int64
	dataRead    atomic.Int64
	dataWritten atomic.Int64
}

// Snapshot is a point-in-time copy of the bandwidth counters.
type Snapshot struct {
	WireRead    int64 // compressed bytes read from the socket
	WireWritten int64 // compressed bytes written to the socket
	DataRead    int64 // decompressed bytes delivered to the framer
	DataWritten int64 // plaintext bytes accepted from the framer
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		WireRead:    c.wireRead.Load(),
		WireWritten: c.wireWritten.Load(),
		DataRead:    c.dataRead.Load(),
		DataWritten: c.dataWritten.Load(),
	}
}

func (c *Counters) addWireRead(n int)    { c.wireRead.Add(int64(n)) }
func (c *Counters) addWireWritten(n int) { c.wireWritten.Add(int64(n)) }
func (c *Counters) addDataRead(n int)    { c.dataRead.Add(int64(n)) }
func (c *Counters) addDataWritten(n int) { c.dataWritten.Add(int64(n)) }
