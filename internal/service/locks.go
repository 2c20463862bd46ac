package service

import (
	"hash/fnv"
	"sync"
)

// lockStripes is the number of mutexes in a keyedMutex. 64 keeps the odds
// of unrelated keys sharing a stripe low without allocating per key.
const lockStripes = 64

// keyedMutex serializes work per logical resource key. The like toggle is
// a check-then-act (does a like exist? then insert or delete), and two
// concurrent toggles on the same (user, tweet) pair must not interleave —
// the key is hashed onto a fixed set of stripes and the whole toggle runs
// under that stripe's lock. Different keys usually map to different
// stripes and proceed in parallel.
type keyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

// Lock acquires the stripe for key and returns the matching unlock.
//
//	unlock := km.Lock(userID + ":" + tweetID)
//	defer unlock()
func (km *keyedMutex) Lock(key string) (unlock func()) {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &km.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
