package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
)

func TestLineLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newLineLogger("pool", &buf, 0)

	l.Infof("opened %d connections", 3)
	l.Errorf("dial failed: %s", "refused")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"INFO  | pool       | opened 3 connections",
		"ERROR | pool       | dial failed: refused",
	}, lines)
}

func TestLineLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLineLogger("store", &buf, 0)

	l.Debugf("hidden at the default level")
	assert.Empty(t, buf.String())

	l.SetLevel(logger.WARNING)
	l.Infof("hidden")
	l.Warningf("shown")
	assert.Equal(t, "WARN  | store      | shown\n", buf.String())

	buf.Reset()
	l.SetLevel(logger.DEBUG)
	l.Debugf("now %s", "visible")
	assert.Equal(t, "DEBUG | store      | now visible\n", buf.String())
}

func TestLineLoggerPanicf(t *testing.T) {
	var buf bytes.Buffer
	l := newLineLogger("manager", &buf, 0)
	l.SetLevel(logger.ERROR)

	assert.PanicsWithValue(t, "bad state 7", func() { l.Panicf("bad state %d", 7) })
	assert.Equal(t, "CRIT  | manager    | bad state 7\n", buf.String())
}
