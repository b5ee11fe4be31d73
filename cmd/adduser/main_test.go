package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestAdminPassword_Terminal(t *testing.T) {
	var prompt bytes.Buffer
	pw, generated, err := adminPassword(passwordSource{
		isTerminal:   true,
		readPassword: func() ([]byte, error) { return []byte("typed-secret"), nil },
		lookupEnv:    env(map[string]string{passwordEnv: "ignored"}),
	}, &prompt)

	require.NoError(t, err)
	assert.Equal(t, "typed-secret", pw)
	assert.False(t, generated)
	assert.Contains(t, prompt.String(), "New admin password")
}

func TestAdminPassword_TerminalErrors(t *testing.T) {
	var prompt bytes.Buffer

	_, _, err := adminPassword(passwordSource{
		isTerminal:   true,
		readPassword: func() ([]byte, error) { return nil, errors.New("tty gone") },
	}, &prompt)
	require.Error(t, err)

	_, _, err = adminPassword(passwordSource{
		isTerminal:   true,
		readPassword: func() ([]byte, error) { return []byte{}, nil },
	}, &prompt)
	require.Error(t, err)
}

func TestAdminPassword_Env(t *testing.T) {
	pw, generated, err := adminPassword(passwordSource{
		lookupEnv: env(map[string]string{passwordEnv: "from-env-123"}),
	}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "from-env-123", pw)
	assert.False(t, generated)
}

func TestAdminPassword_Generated(t *testing.T) {
	pw, generated, err := adminPassword(passwordSource{lookupEnv: env(nil)}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.True(t, generated)
	assert.Len(t, pw, 24)
}
