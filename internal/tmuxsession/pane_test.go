package tmuxsession_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opsnest/adminshell/internal/clock"
	"github.com/opsnest/adminshell/internal/state"
	"github.com/opsnest/adminshell/internal/tmuxsession"
)

func TestBanner_IncludesShellStateMetrics(t *testing.T) {
	mock := clock.NewMock()
	s := state.NewWithClock("unix:///tmp/admin.sock", mock)
	mock.Add(90 * time.Second)
	s.RecordCommand("status")
	s.RecordCommand("help")
	s.RecordMessage()

	banner := tmuxsession.Banner(s, "adminshell-prod-1")

	assert.True(t, strings.Contains(banner, "adminshell-prod-1"))
	assert.True(t, strings.Contains(banner, "unix:///tmp/admin.sock"))
	assert.True(t, strings.Contains(banner, "1m30s"))
	assert.True(t, strings.Contains(banner, "commands: 2"))
	assert.True(t, strings.Contains(banner, "messages: 1"))
}

func TestWriteHistory_EmptyTailIsNoOp(t *testing.T) {
	m := &tmuxsession.Manager{}
	assert.NoError(t, m.WriteHistory(nil))
	assert.NoError(t, m.WriteHistory([]string{}))
}
