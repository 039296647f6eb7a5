package searcher

// Hyperparameters for expectimax

// Chance node weights for a spawned 2 and a spawned 4
const (
	Prob2 = 0.9
	Prob4 = 1 - Prob2
)

// Adaptive depth thresholds on the number of empty cells
const (
	EndgameEmpties = 5  // At or below: search one ply deeper
	OpeningEmpties = 10 // At or above: search one ply shallower
)
