package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerLogger_RoutesThroughEntry(t *testing.T) {
	base, hook := logtest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	bl := NewBadgerLogger(base.WithField("component", "badgerdb"))

	bl.Errorf("compaction failed: %s", "disk full")
	bl.Warningf("slow write")
	bl.Infof("value log opened")
	bl.Debugf("key count %d", 7)

	entries := hook.AllEntries()
	require.Len(t, entries, 4)
	assert.Equal(t, logrus.ErrorLevel, entries[0].Level)
	assert.Equal(t, "compaction failed: disk full", entries[0].Message)
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, logrus.InfoLevel, entries[2].Level)
	assert.Equal(t, logrus.DebugLevel, entries[3].Level)
	assert.Equal(t, "badgerdb", entries[0].Data["component"])
}
