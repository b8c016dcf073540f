package evo

import "errors"

var (
	ErrAlreadyInitialized = errors.New("population already initialized")
	ErrIncompatibleBreed  = errors.New("breed size does not match population size")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrTypeMismatch       = errors.New("operator does not satisfy the required capability")
	ErrAttachFitness      = errors.New("individual already carries a fitness handle from another population")
	ErrConfiguration      = errors.New("invalid configuration")
	ErrEmptyPopulation    = errors.New("population is empty")
	ErrNoDistinctParent   = errors.New("no distinct parent available for breeding")
)
