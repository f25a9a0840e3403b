package game

import "errors"

// Errors returned by the engine. All of them leave the game unchanged.
var (
	ErrGameNotFound          = errors.New("game not found")
	ErrGameOver              = errors.New("game is over")
	ErrInvalidSetup          = errors.New("invalid game setup")
	ErrUnknownPiece          = errors.New("unknown piece")
	ErrWrongTurn             = errors.New("wrong turn")
	ErrInvalidMove           = errors.New("invalid move")
	ErrAmbiguousMutation     = errors.New("mutation choice required")
	ErrMutationOptionInvalid = errors.New("invalid mutation option")
	ErrNoPendingMutation     = errors.New("no pending mutation")
)
