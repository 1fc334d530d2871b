package swarmpeer

import "math/rand"

// jitterRand backs jitterDuration and the download loop's known-peers
// refresh roll. math/rand's package-level functions are
// safe for concurrent use but share one lock across the whole process;
// a private source avoids contending with the selector's and choke
// scheduler's own picks.
var jitterRand = rand.New(rand.NewSource(rand.Int63()))
