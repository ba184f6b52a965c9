package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/output"
)

func TestWrite_Failure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Failure("boom", nil, nil), output.FormatTable))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestWrite_SuccessNoDataNoMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Success(nil, "", nil), output.FormatJSON))
	assert.Equal(t, "Command completed successfully\n", buf.String())
}

func TestWrite_SuccessMessageOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Success(nil, "3 items removed", nil), output.FormatCSV))
	assert.Equal(t, "3 items removed\n", buf.String())
}

func TestWrite_TableUniformRecords(t *testing.T) {
	data := []map[string]any{
		{"name": "alice", "age": 30},
		{"name": "bob", "age": 25},
	}
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Success(data, "", nil), output.FormatTable))
	out := buf.String()
	assert.Contains(t, out, "AGE")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
}

func TestWrite_TableKeyValueMap(t *testing.T) {
	data := map[string]any{"status": "running", "pid": 1234}
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Success(data, "", nil), output.FormatTable))
	out := buf.String()
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "VALUE")
	assert.Contains(t, out, "running")
}

func TestWrite_JSONPreservesNumericTypes(t *testing.T) {
	data := map[string]any{"count": 42, "ratio": 3.5}
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Success(data, "", nil), output.FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(42), decoded["count"])
	assert.Equal(t, 3.5, decoded["ratio"])
	assert.NotContains(t, buf.String(), `"42"`)
}

func TestWrite_CSVQuotesSpecialCharacters(t *testing.T) {
	data := []map[string]any{
		{"note": "hello, \"world\"\nnext line"},
	}
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Success(data, "", nil), output.FormatCSV))
	out := buf.String()
	assert.Contains(t, out, `"hello, ""world""`)
}

func TestWrite_CSVEmptyDataIsEmptyOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Success([]map[string]any{}, "", nil), output.FormatCSV))
	assert.Equal(t, "", buf.String())
}

func TestWrite_VerticalNumbersRecordsAndReportsDuration(t *testing.T) {
	data := []map[string]any{
		{"id": 1, "status": "ok"},
		{"id": 2, "status": "ok"},
	}
	meta := map[string]any{"duration_ms": float64(125)}
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, model.Success(data, "", meta), output.FormatVertical))
	out := buf.String()
	assert.True(t, strings.Contains(out, "*** 1. row ***"))
	assert.True(t, strings.Contains(out, "*** 2. row ***"))
	assert.True(t, strings.Contains(out, "2 row(s) in set (0.125 sec)"))
}

func TestParseFormat_DefaultsToTable(t *testing.T) {
	assert.Equal(t, output.FormatTable, output.ParseFormat("nonsense"))
	assert.Equal(t, output.FormatJSON, output.ParseFormat("json"))
}
