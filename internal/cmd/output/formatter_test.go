package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/internal/cmd/table"
)

type summary struct {
	Total     int  `json:"total" yaml:"total"`
	Succeeded int  `json:"succeeded" yaml:"succeeded"`
	Aborted   bool `json:"aborted" yaml:"aborted"`
}

func TestNewFormatter(t *testing.T) {
	data := summary{Total: 3, Succeeded: 2}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "{\n  \"total\": 3,\n  \"succeeded\": 2,\n  \"aborted\": false\n}\n"},
		{FormatYAML, "total: 3\nsucceeded: 2\naborted: false\n"},
		{FormatTable, "{\n  \"total\": 3,\n  \"succeeded\": 2,\n  \"aborted\": false\n}\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewFormatter(tt.format).Format(&buf, data))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTableFormatterRendersTableData(t *testing.T) {
	var buf bytes.Buffer
	data := table.Data{Headers: []string{"Name"}, Rows: [][]string{{"Alpha Game"}}}
	require.NoError(t, NewFormatter(FormatWide).Format(&buf, data))
	assert.Contains(t, buf.String(), "Alpha Game")
	assert.Contains(t, buf.String(), "NAME", "go-pretty upper-cases headers")
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", "yaml", "wide", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}
