package main

import (
	"context"
	"flag"
	"log/slog"
	"testing"

	"github.com/linkdesu/dwd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerbosityFlag(t *testing.T) {
	var v verbosity
	fs := flag.NewFlagSet("dwd", flag.ContinueOnError)
	fs.Var(&v, "v", "")
	require.NoError(t, fs.Parse([]string{"-v", "-v", "-v=false"}))
	assert.Equal(t, verbosity(2), v)
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(dwd.LogConfig{Level: dwd.LogLevelWarn, Format: dwd.LogFormatJSON}, 0)
	require.NoError(t, err)
	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, log.Enabled(context.Background(), slog.LevelWarn))

	log, err = newLogger(dwd.LogConfig{Level: dwd.LogLevelWarn}, 1)
	require.NoError(t, err)
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))

	_, err = newLogger(dwd.LogConfig{Level: "trace"}, 0)
	assert.Error(t, err)
	_, err = newLogger(dwd.LogConfig{Format: "xml"}, 0)
	assert.Error(t, err)
}

func TestCycleDetail(t *testing.T) {
	c := dwd.Cycle{Results: []dwd.PublishResult{
		{Provider: dwd.NameCom, Err: dwd.ErrRecordNotFound},
		{Provider: dwd.Dynv6Com},
	}}
	assert.Equal(t, "failed providers: name.com", cycleDetail(c))

	c = dwd.Cycle{Reason: dwd.ReasonUnchanged}
	assert.Equal(t, dwd.ReasonUnchanged, cycleDetail(c))
}
