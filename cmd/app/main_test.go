package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestMarkerCmd(t *testing.T) {
	out, err := run(t, "", "marker", "--date", "2025-04-15", "Q1 2025", "Q2 2025")
	require.NoError(t, err)

	var m struct {
		Index    int     `json:"index"`
		Fraction float64 `json:"fraction"`
		Label    string  `json:"label"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, "Q2 2025", m.Label)
	assert.InDelta(t, 14.0/91.0, m.Fraction, 1e-9)
}

func TestMarkerCmd_OutsideAxis(t *testing.T) {
	out, err := run(t, "", "marker", "--date", "2030-01-01", "2024,2025")
	require.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(out))
}

func TestMarkerCmd_BadDate(t *testing.T) {
	_, err := run(t, "", "marker", "--date", "15/04/2025", "2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")

	_, err = run(t, "", "marker")
	assert.Error(t, err)
}

func TestLayoutCmd(t *testing.T) {
	chart := `{"title": "Plan", "timeColumns": ["2025", "2026"],
	  "data": [{"title": "Build", "isSwimlane": false, "entity": "A", "bar": {"startCol": 1, "endCol": 3, "color": "teal"}}]}`

	out, err := run(t, chart, "layout", "--today", "2026-07-01")
	require.NoError(t, err)

	var grid struct {
		Granularity string `json:"granularity"`
		Rows        []struct {
			Bar *struct {
				GridColumnStart int `json:"gridColumnStart"`
				GridColumnEnd   int `json:"gridColumnEnd"`
			} `json:"bar"`
		} `json:"rows"`
		Today *struct {
			Index int `json:"index"`
		} `json:"today"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &grid))
	assert.Equal(t, "year", grid.Granularity)
	require.Len(t, grid.Rows, 1)
	require.NotNil(t, grid.Rows[0].Bar)
	assert.Equal(t, 2, grid.Rows[0].Bar.GridColumnStart)
	assert.Equal(t, 4, grid.Rows[0].Bar.GridColumnEnd)
	require.NotNil(t, grid.Today)
	assert.Equal(t, 1, grid.Today.Index)
}

func TestLayoutCmd_InvalidChart(t *testing.T) {
	_, err := run(t, `{"timeColumns": []}`, "layout")
	assert.Error(t, err)

	_, err = run(t, `not json`, "layout")
	assert.Error(t, err)
}
