package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBuildsTabularPDF(t *testing.T) {
	exporter := NewPDFExporter()

	pdf, err := exporter.Render(Dataset{
		Headers: []string{"ID", "Status", "Price"},
		Rows: [][]string{
			{"act-1", "completed", "850"},
			{"act-2", "pending"},
		},
	}, "Marketing Actions")

	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestRenderRequiresHeaders(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.Render(Dataset{Rows: [][]string{{"orphan"}}}, "")
	require.Error(t, err)
}
