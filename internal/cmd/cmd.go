package cmd

import (
	"io"
	"os"
)

// BaseCommand provides common fields to all commands.
type BaseCommand struct {
	Stdout io.Writer
	Stderr io.Writer
	// LookupEnv is os.LookupEnv; tests replace it.
	LookupEnv func(string) (string, bool)
}

// Init initializes BaseCommand with default arguments
func (b *BaseCommand) Init() {
	b.Stdout = os.Stdout
	b.Stderr = os.Stderr
	b.LookupEnv = os.LookupEnv
}

// Hasenv reports whether the environment variable key is set. An empty
// value counts as set.
func (b *BaseCommand) Hasenv(key string) bool {
	if b.LookupEnv == nil {
		return false
	}
	_, ok := b.LookupEnv(key)
	return ok
}
