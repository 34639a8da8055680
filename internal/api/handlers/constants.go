package handlers

const (
	defaultGraphLimit  = 100
	maxGraphLimit      = 1000
	maxSuggestions     = 20
	maxEvolveBatchSize = 500
)
