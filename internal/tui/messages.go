package tui

import (
	"github.com/Veraticus/ledgerflow/internal/bulk"
)

// loadedMsg reports the end of a (re)load.
type loadedMsg struct {
	err error
}

// opDoneMsg reports the end of a store-backed action.
type opDoneMsg struct {
	err    error
	result *bulk.Result
	op     string
}

// Direction type for navigation.
type Direction int

// Navigation directions.
const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionPageUp
	DirectionPageDown
	DirectionHome
	DirectionEnd
)
