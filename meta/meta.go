// meta/meta.go
package meta

// GRID_SIZE is the side length of a standard board.
const GRID_SIZE = 4

// PROB_2 is the probability that a spawned tile is a 2.
const PROB_2 = 0.9

// DEPTH is the base expectimax depth before adaptation.
const DEPTH = 2

// TRIALS is the number of Monte Carlo rollouts per root move.
const TRIALS = 100

// MAX_DEPTH bounds the length of a Monte Carlo rollout in turns.
const MAX_DEPTH = 50

// AGGREGATION combines rollout scores.
const AGGREGATION = "sum"

// GO_ROUTINES defines the number of goroutines to use.
const GO_ROUTINES = 8

// MAX_TURNS stops a session that has not ended on its own.
const MAX_TURNS = 100000
