package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter(false)

	out, err := exporter.Render(Dataset{
		Headers: []string{"TransactionRef", "BeneficiaryName", "Amount"},
		Rows: [][]string{
			{"TRX2410010000", "Awa Diop", "500000"},
			{"TRX2410010001", "Moussa, Jr. Kane", "750000"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "TransactionRef,BeneficiaryName,Amount\nTRX2410010000,Awa Diop,500000\nTRX2410010001,\"Moussa, Jr. Kane\",750000\n", string(out))
}

func TestCSVExporterCRLF(t *testing.T) {
	out, err := NewCSVExporter(true).Render(Dataset{Headers: []string{"a"}, Rows: [][]string{{"1"}}})
	require.NoError(t, err)
	assert.Equal(t, "a\r\n1\r\n", string(out))
}

func TestCSVExporterRejectsBadInput(t *testing.T) {
	exporter := NewCSVExporter(false)

	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)

	_, err = exporter.Render(Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"only-one"}}})
	assert.Error(t, err)
}
