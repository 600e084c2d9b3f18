package usecase

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
)

func TestExportAggregatesXLSX(t *testing.T) {
	aggregates := &fakeAggregateRepo{records: []*entity.AggregateRecord{
		{
			TaxCode:        "RO1234567",
			DeviceID:       testDeviceID,
			Date:           testDate,
			SequenceNumber: testSequence,
			ReceiptNumber:  "7",
			Product: entity.AggregateProduct{
				Name:     "paine",
				Quantity: "2",
				Value:    "7.98",
				TaxRate:  "9",
			},
		},
	}}

	uc := NewExportUsecase(aggregates, logging.NewDevelopmentLogger("test"), metrics.NewCollector("test"))
	data, err := uc.ExportAggregatesXLSX(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Aggregated")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "CUI", rows[0][0])
	assert.Equal(t, "RO1234567", rows[1][0])
	assert.Equal(t, testDeviceID, rows[1][1])
	assert.Equal(t, testDate, rows[1][2])
	assert.Equal(t, "paine", rows[1][5])
}

func TestExportAggregatesXLSXEmpty(t *testing.T) {
	uc := NewExportUsecase(&fakeAggregateRepo{}, logging.NewDevelopmentLogger("test"), metrics.NewCollector("test"))
	data, err := uc.ExportAggregatesXLSX(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Aggregated")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
