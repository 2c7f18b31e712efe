package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVersionCmd(t *testing.T) {
	versionCmd := newVersionCmd()
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotEmpty(t, versionCmd.Short)
	assert.NotNil(t, versionCmd.Run)
}

func TestVersionCommandExecution(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()
	rootCmd.Version = "1.2.3-test"

	versionCmd := newVersionCmd()
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "docktail-agent version 1.2.3-test\n", buf.String())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "ERROR", parseLogLevel("error").String())
	assert.Equal(t, "INFO", parseLogLevel("anything-else").String())
}

func TestRootCommandHelp(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--help"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "docktail-agent")
}
