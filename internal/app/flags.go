package app

import (
	"github.com/urfave/cli/v2"
)

// NewUserFlag identifies the tenant issuing the invocation; every
// Manage* call on the facade is scoped to this id (spec.md §4.2).
func NewUserFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "User id the call is scoped to",
		EnvVars: []string{"CONDUCTOR_USER"},
	}
}

func NewJSONFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "pretty",
		Aliases: []string{"j"},
		Usage:   "Pretty-print the JSON response",
	}
}

func NewLogLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (off, error, warn, info, debug)",
		Value:   "off",
		EnvVars: []string{"CONDUCTOR_LOG_LEVEL"},
	}
}
