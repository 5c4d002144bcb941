package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func getUsage(flag cli.Flag) string {
	switch f := flag.(type) {
	case *cli.StringFlag:
		return f.Usage
	case *cli.BoolFlag:
		return f.Usage
	default:
		return ""
	}
}

func TestNewUserFlag(t *testing.T) {
	flag := NewUserFlag()

	assert.Equal(t, "user", flag.Names()[0])
	assert.Equal(t, []string{"u"}, flag.Names()[1:])
	assert.Equal(t, "User id the call is scoped to", getUsage(flag))

	stringFlag, ok := flag.(*cli.StringFlag)
	assert.True(t, ok)
	assert.Equal(t, []string{"CONDUCTOR_USER"}, stringFlag.EnvVars)
}

func TestNewJSONFlag(t *testing.T) {
	flag := NewJSONFlag()

	assert.Equal(t, "pretty", flag.Names()[0])
	assert.Equal(t, []string{"j"}, flag.Names()[1:])
	assert.Equal(t, "Pretty-print the JSON response", getUsage(flag))

	boolFlag, ok := flag.(*cli.BoolFlag)
	assert.True(t, ok)
	assert.False(t, boolFlag.Value)
}

func TestNewLogLevelFlag(t *testing.T) {
	flag := NewLogLevelFlag()

	assert.Equal(t, "log-level", flag.Names()[0])
	assert.Equal(t, "Log level (off, error, warn, info, debug)", getUsage(flag))

	stringFlag, ok := flag.(*cli.StringFlag)
	assert.True(t, ok)
	assert.Equal(t, "off", stringFlag.Value)
	assert.Equal(t, []string{"CONDUCTOR_LOG_LEVEL"}, stringFlag.EnvVars)
}

func TestFlagsIntegration(t *testing.T) {
	cliApp := &cli.App{
		Name: "test",
		Flags: []cli.Flag{
			NewUserFlag(),
			NewJSONFlag(),
			NewLogLevelFlag(),
		},
		Action: func(c *cli.Context) error {
			assert.Equal(t, "", c.String("user"))
			assert.False(t, c.Bool("pretty"))
			assert.Equal(t, "off", c.String("log-level"))
			return nil
		},
	}

	assert.NoError(t, cliApp.Run([]string{"test"}))
	assert.NoError(t, cliApp.Run([]string{"test", "--user", "alice", "--pretty", "--log-level", "debug"}))
}

func TestUserFlagShortAlias(t *testing.T) {
	cliApp := &cli.App{
		Name:  "test",
		Flags: []cli.Flag{NewUserFlag(), NewJSONFlag()},
		Action: func(c *cli.Context) error {
			assert.Equal(t, "bob", c.String("user"))
			assert.True(t, c.Bool("pretty"))
			return nil
		},
	}

	assert.NoError(t, cliApp.Run([]string{"test", "-u", "bob", "-j"}))
}
