package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderJournalSheet(t *testing.T) {
	data := Dataset{
		Headers: []string{"Student", "2024-09-02", "2024-09-09"},
		Rows: []map[string]string{
			{"Student": "Олена Ковальчук", "2024-09-02": "9/+", "2024-09-09": "-"},
			{"Student": "Іван Шевченко", "2024-09-02": "7/+"},
		},
	}

	body, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	// BOM first, so Excel decodes the Cyrillic roster correctly.
	require.True(t, bytes.HasPrefix(body, utf8BOM))

	reader := csv.NewReader(strings.NewReader(string(bytes.TrimPrefix(body, utf8BOM))))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Student", "2024-09-02", "2024-09-09"}, records[0])
	assert.Equal(t, []string{"Олена Ковальчук", "9/+", "-"}, records[1])

	// A date with no record leaves the cell empty.
	assert.Equal(t, []string{"Іван Шевченко", "7/+", ""}, records[2])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
