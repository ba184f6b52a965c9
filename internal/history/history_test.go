package history_test

import (
	"testing"
	"time"

	"github.com/opsnest/adminshell/internal/clock"
	"github.com/opsnest/adminshell/internal/filter"
	"github.com/opsnest/adminshell/internal/history"
	"github.com/opsnest/adminshell/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessage(source string, payload any) model.Message {
	return model.Message{
		Type:      model.MessageTypeData,
		Payload:   payload,
		Source:    source,
		Timestamp: time.Unix(0, 0),
	}
}

func TestAdd_IDsAreStrictlyIncreasing(t *testing.T) {
	h := history.New(10)
	var last uint64
	for i := 0; i < 5; i++ {
		id := h.Add(sampleMessage("a", i))
		assert.Greater(t, id, last)
		last = id
	}
}

func TestAdd_StampsZeroTimestampWithInjectedClock(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	h := history.NewWithClock(10, mock)

	id := h.Add(model.Message{Type: model.MessageTypeSystem, Source: "engine"})
	got, ok := h.Get(id)
	require.True(t, ok)
	assert.Equal(t, mock.Now(), got.Timestamp)

	untouched := h.Add(sampleMessage("a", "payload"))
	got, ok = h.Get(untouched)
	require.True(t, ok)
	assert.Equal(t, time.Unix(0, 0), got.Timestamp)
}

func TestAdd_FIFOEvictionAtCap(t *testing.T) {
	h := history.New(3)
	var ids []uint64
	for i := 0; i < 5; i++ {
		ids = append(ids, h.Add(sampleMessage("a", i)))
	}
	require.Equal(t, 3, h.Count())

	// oldest two should have been evicted
	_, ok := h.Get(ids[0])
	assert.False(t, ok)
	_, ok = h.Get(ids[1])
	assert.False(t, ok)
	_, ok = h.Get(ids[4])
	assert.True(t, ok)
}

func TestGetLast_ReturnsNewestFirstWithinSlice(t *testing.T) {
	h := history.New(5)
	for i := 0; i < 5; i++ {
		h.Add(sampleMessage("a", i))
	}
	last := h.GetLast(2)
	require.Len(t, last, 2)
	assert.Equal(t, 4, last[0].Payload)
	assert.Equal(t, 3, last[1].Payload)
}

func TestGetLast_NeverExceedsAvailableCount(t *testing.T) {
	h := history.New(10)
	h.Add(sampleMessage("a", 1))
	last := h.GetLast(100)
	assert.Len(t, last, 1)
}

func TestSearch_CaseInsensitiveOverPayloadAndSource(t *testing.T) {
	h := history.New(10)
	h.Add(sampleMessage("sensors/t1", "Temperature Spike"))
	h.Add(sampleMessage("actuators/a1", "normal"))

	results := h.Search("SPIKE", 0)
	require.Len(t, results, 1)
	assert.Equal(t, "sensors/t1", results[0].Source)

	bySource := h.Search("SENSORS", 0)
	require.Len(t, bySource, 1)
}

func TestSearch_RespectsLimit(t *testing.T) {
	h := history.New(10)
	for i := 0; i < 5; i++ {
		h.Add(sampleMessage("a", "match"))
	}
	results := h.Search("match", 2)
	assert.Len(t, results, 2)
}

func TestGetByTopic_DefaultsToExactMatch(t *testing.T) {
	h := history.New(10)
	h.Add(sampleMessage("sensors/t1", 1))
	h.Add(sampleMessage("sensors/t2", 2))

	assert.Len(t, h.GetByTopic("sensors/t1"), 1)
	assert.Len(t, h.GetByTopic("sensors"), 0)
}

func TestGetByTopic_PluggableMatcher(t *testing.T) {
	h := history.New(10)
	h.SetTopicMatcher(filter.MQTTWildcardTopicMatcher{})
	h.Add(sampleMessage("sensors/t1", 1))
	h.Add(sampleMessage("sensors/t2", 2))
	h.Add(sampleMessage("actuators/a1", 3))

	matches := h.GetByTopic("sensors/#")
	assert.Len(t, matches, 2)
}

func TestExport_ReturnsMapFormOldestFirst(t *testing.T) {
	h := history.New(10)
	h.Add(sampleMessage("a", "first"))
	h.Add(sampleMessage("b", "second"))

	exported := h.Export(0)
	require.Len(t, exported, 2)
	assert.Equal(t, "a", exported[0]["source"])
	assert.Equal(t, "b", exported[1]["source"])
}

func TestClear_ResetsCounterToZero(t *testing.T) {
	h := history.New(10)
	h.Add(sampleMessage("a", 1))
	h.Add(sampleMessage("a", 2))
	h.Clear()

	assert.Equal(t, 0, h.Count())
	id := h.Add(sampleMessage("a", 3))
	assert.Equal(t, uint64(1), id)
}

func TestInvariant_CountNeverExceedsMaxAcrossSequences(t *testing.T) {
	for _, k := range []int{1, 2, 5, 17} {
		h := history.New(k)
		n := 50
		for i := 0; i < n; i++ {
			h.Add(sampleMessage("a", i))
		}
		assert.Equal(t, k, h.Count())
	}
}
