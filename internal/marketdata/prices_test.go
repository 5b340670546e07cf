package marketdata

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDailyCSV(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{
			name: "valid rows",
			body: "Date,Open,High,Low,Close,Volume\n" +
				"2025-01-02,100.5,102.0,99.8,101.2,1500000\n" +
				"2025-01-03,101.2,103.1,100.9,102.8,1320000\n",
			want: 2,
		},
		{
			name: "index series without volume column",
			body: "Date,Open,High,Low,Close\n" +
				"2025-01-02,4800.1,4825.5,4790.0,4810.3\n",
			want: 1,
		},
		{
			name: "malformed row skipped",
			body: "Date,Open,High,Low,Close,Volume\n" +
				"2025-01-02,abc,102.0,99.8,101.2,1500000\n" +
				"2025-01-03,101.2,103.1,100.9,102.8,1320000\n",
			want: 1,
		},
		{
			name: "no data response",
			body: "No data",
			want: 0,
		},
		{
			name: "empty body",
			body: "",
			want: 0,
		},
		{
			name:    "html error page",
			body:    "<html><body>Exceeded the daily hits limit</body></html>",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDailyCSV(tt.body)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseDailyCSV_Fields(t *testing.T) {
	body := "Date,Open,High,Low,Close,Volume\n" +
		"2025-01-02,100.5,102.0,99.8,101.2,1500000\n"

	got, err := parseDailyCSV(body)
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), p.Date)
	assert.Equal(t, 100.5, p.Open)
	assert.Equal(t, 102.0, p.High)
	assert.Equal(t, 99.8, p.Low)
	assert.Equal(t, 101.2, p.Close)
	assert.Equal(t, 101.2, p.AdjClose)
	assert.Equal(t, int64(1_500_000), p.Volume)
}

func TestParseDailyCSV_WindowsLineEndings(t *testing.T) {
	body := strings.ReplaceAll(
		"Date,Open,High,Low,Close,Volume\n2025-01-02,100.5,102.0,99.8,101.2,1500000\n",
		"\n", "\r\n",
	)

	got, err := parseDailyCSV(body)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
