// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Rand is the source of randomness used to place the change output and to
// shuffle the funding outputs. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// cprng is a cryptographically random-seeded math/rand prng.  It is seeded
// during package init.  Any initialization errors result in panics.  It is safe
// for concurrent access.
var cprng = &cprngType{}

type cprngType struct {
	r  *rand.Rand
	mu sync.Mutex
}

func init() {
	buf := make([]byte, 8)
	_, err := crand.Read(buf)
	if err != nil {
		panic("Failed to seed prng: " + err.Error())
	}

	seed := int64(binary.LittleEndian.Uint64(buf))
	cprng.r = rand.New(rand.NewSource(seed))
}

func (c *cprngType) Intn(n int) int {
	defer c.mu.Unlock() // Intn may panic
	c.mu.Lock()
	return c.r.Intn(n)
}

func (c *cprngType) Shuffle(n int, swap func(i, j int)) {
	defer c.mu.Unlock()
	c.mu.Lock()
	c.r.Shuffle(n, swap)
}
