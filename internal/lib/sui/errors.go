package sui

import "errors"

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUnknownWallet  = errors.New("no keystore entry matches the requested address")
	ErrInvalidKey     = errors.New("invalid keystore entry")
	ErrNoGasCoins     = errors.New("no sui coins available for gas payment")
	ErrUnknownEnv     = errors.New("unknown sui environment")
	ErrNoFaucet       = errors.New("no faucet for environment")
)
