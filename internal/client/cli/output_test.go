package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutput_NoColor(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(&buf, true)

	out.Success("saved %s", "pac")
	out.Error("failed")
	out.KeyValue("Mode", "global")
	out.Plain("%d hosts", 2)

	s := buf.String()
	assert.Contains(t, s, "✔ saved pac\n")
	assert.Contains(t, s, "✘ failed\n")
	assert.Contains(t, s, "Mode:")
	assert.Contains(t, s, "global")
	assert.Contains(t, s, "2 hosts\n")
	assert.NotContains(t, s, "\x1b[")

	assert.Equal(t, "proxy", out.Proxy(true))
	assert.Equal(t, "direct", out.Proxy(false))
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("HOST", "DECISION")
	table.AddRow("www.example.com", "proxy")
	table.AddRow("a.cn", "direct")
	table.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "HOST             DECISION"))
	assert.True(t, strings.HasPrefix(lines[2], "www.example.com  proxy"))
	assert.True(t, strings.HasPrefix(lines[3], "a.cn             direct"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exampl..", Truncate("example.com", 8))
	assert.Equal(t, "ex", Truncate("example.com", 2))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "16.0 MB", FormatBytes(16<<20))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h 1m", FormatDuration(61*time.Minute))
	assert.Equal(t, "2d 3h", FormatDuration(51*time.Hour))
}

func TestParseHex(t *testing.T) {
	data, err := ParseHex("0x00 0000 0001\n01")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 1}, data)

	_, err = ParseHex("zz")
	assert.Error(t, err)

	_, err = ParseHex("abc")
	assert.Error(t, err)
}
