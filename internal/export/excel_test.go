package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/LuisEmilioVP/NexuViaticos/internal/repository"
	"github.com/LuisEmilioVP/NexuViaticos/internal/submission"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleDetail() *submission.Detail {
	notes := "Viaje de supervisión"
	branch := "Sucursal Central"
	created, _ := time.Parse("2006-01-02", "2026-08-20")

	return &submission.Detail{
		Submission: &models.Submission{
			ID:        42,
			Code:      "R000042",
			Status:    models.StatusImplementation,
			Notes:     &notes,
			Total:     dec("283.20"),
			CreatedAt: created,
		},
		EmployeeName: "Juan Pérez",
		Items: []*repository.LineItemDetail{
			{
				LineItem: models.LineItem{
					Date:        created,
					Description: "Peaje autopista",
					BaseAmount:  dec("120.00"),
					TaxAmount:   dec("21.60"),
				},
				ExpenseTypeName: "Transporte",
				AccountCode:     "6201",
				ClientName:      "Banco Popular",
				BranchName:      &branch,
			},
			{
				LineItem: models.LineItem{
					Date:        created,
					Description: "Almuerzo con cliente",
					BaseAmount:  dec("125.00"),
					TaxAmount:   dec("16.60"),
				},
				ExpenseTypeName: "Alimentación",
				AccountCode:     "6203",
				ClientName:      "Banco Popular",
			},
		},
	}
}

func TestWriteSubmission(t *testing.T) {
	exporter := NewExporter(zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteSubmission(&buf, sampleDetail()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	cell := func(ref string) string {
		v, err := f.GetCellValue("Rendicion", ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Rendición de Gastos", cell("A1"))
	assert.Equal(t, "R000042", cell("B2"))
	assert.Equal(t, "Juan Pérez", cell("B3"))
	assert.Equal(t, "2026-08-20", cell("B4"))
	assert.Equal(t, models.StatusImplementation, cell("B5"))
	assert.Equal(t, "Viaje de supervisión", cell("B6"))

	// Item table header and first row.
	assert.Equal(t, "Tipo de Gasto", cell("A7"))
	assert.Equal(t, "Total", cell("I7"))
	assert.Equal(t, "Transporte", cell("A8"))
	assert.Equal(t, "6201", cell("B8"))
	assert.Equal(t, "Sucursal Central", cell("D8"))
	assert.Equal(t, "120.00", cell("G8"))
	assert.Equal(t, "21.60", cell("H8"))
	assert.Equal(t, "141.60", cell("I8"))

	// Second item has no branch.
	assert.Equal(t, "Alimentación", cell("A9"))
	assert.Equal(t, "", cell("D9"))

	// Grand total below the table.
	assert.Equal(t, "Total General", cell("H11"))
	assert.Equal(t, "283.20", cell("I11"))
}

func TestWriteSubmissionCustomStatus(t *testing.T) {
	exporter := NewExporter(zap.NewNop())

	detail := sampleDetail()
	custom := "En revisión contable"
	detail.Submission.CustomStatus = &custom

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteSubmission(&buf, detail))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Rendicion", "B5")
	require.NoError(t, err)
	assert.Equal(t, custom, v)
}
