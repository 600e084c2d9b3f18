package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
)

const (
	testDate     = "15-08-2021"
	testSequence = "0042"
	testDeviceID = "4000000123"

	testSummaryID = testDeviceID + "150820211345010042"
	testReceipt1  = testDeviceID + "1508202113450100420007"
	testReceipt2  = testDeviceID + "1508202113460100420008"
)

// consistentFixture returns repositories describing one fully linked
// organization: 2 receipts matching the declared count, with 2 and 1 line
// items.
func consistentFixture() (*fakeOrgRepo, *fakeDeviceRepo, *fakeSummaryRepo, *fakeReceiptRepo, *fakeLineItemRepo, *fakeAggregateRepo) {
	orgs := &fakeOrgRepo{orgs: []*entity.Organization{
		{TaxCode: "RO1234567", Name: "Mega Retail SRL"},
	}}
	devices := &fakeDeviceRepo{devices: []*entity.DeviceRegistration{
		{DeviceID: testDeviceID, OrganizationName: "Mega Retail SRL"},
	}}
	summaries := &fakeSummaryRepo{
		parsed: []*entity.DailySummaryParsed{
			{DeviceID: 4000000123, TimeOfDay: "13:45:01", SequenceNumber: 42, Date: testDate},
		},
		raw: []*entity.DailySummary{
			{ID: testSummaryID, Date: testDate, SequenceNumber: testSequence, ReceiptCount: "2"},
		},
	}
	receipts := &fakeReceiptRepo{receipts: []*entity.Receipt{
		{ID: testReceipt1, Date: testDate, SequenceNumber: testSequence, ReceiptNumber: "7"},
		{ID: testReceipt2, Date: testDate, SequenceNumber: testSequence, ReceiptNumber: "8"},
	}}
	lineItems := &fakeLineItemRepo{items: []*entity.LineItem{
		{ReceiptID: testReceipt1, ProductName: "paine", Quantity: "2", Value: "7.98", TaxRate: "9"},
		{ReceiptID: testReceipt1, ProductName: "lapte", Quantity: "1", Value: "6.50", TaxRate: "9"},
		{ReceiptID: testReceipt2, ProductName: "cafea", Quantity: "1", Value: "18.00", TaxRate: "19"},
	}}
	return orgs, devices, summaries, receipts, lineItems, &fakeAggregateRepo{}
}

func newReconcileUsecase(
	orgs *fakeOrgRepo,
	devices *fakeDeviceRepo,
	summaries *fakeSummaryRepo,
	receipts *fakeReceiptRepo,
	lineItems *fakeLineItemRepo,
	aggregates *fakeAggregateRepo,
	stopOnFirstFailure bool,
) *ReconcileUsecase {
	return NewReconcileUsecase(
		orgs, devices, summaries, receipts, lineItems, aggregates,
		logging.NewDevelopmentLogger("test"),
		metrics.NewCollector("test"),
		stopOnFirstFailure,
	)
}

func TestReconcileEmitsOneRecordPerLineItem(t *testing.T) {
	orgs, devices, summaries, receipts, lineItems, aggregates := consistentFixture()
	uc := newReconcileUsecase(orgs, devices, summaries, receipts, lineItems, aggregates, true)

	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Aborted)
	assert.Equal(t, 3, result.RecordsWritten)
	require.Len(t, result.Organizations, 1)
	assert.Equal(t, StatusReconciled, result.Organizations[0].Status)
	assert.Equal(t, 3, result.Organizations[0].RecordsWritten)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, aggregates.records, 3)
	first := aggregates.records[0]
	assert.Equal(t, "RO1234567", first.TaxCode)
	assert.Equal(t, testDeviceID, first.DeviceID)
	assert.Equal(t, testDate, first.Date)
	assert.Equal(t, testSequence, first.SequenceNumber)
	assert.Equal(t, "7", first.ReceiptNumber)
	assert.Equal(t, "paine", first.Product.Name)
	assert.Equal(t, "2", first.Product.Quantity)
	assert.Equal(t, "7.98", first.Product.Value)
	assert.Equal(t, "9", first.Product.TaxRate)
}

func TestReconcileCountMismatchWritesNothing(t *testing.T) {
	orgs, devices, summaries, receipts, lineItems, aggregates := consistentFixture()
	summaries.raw[0].ReceiptCount = "3" // two receipts actually match

	uc := newReconcileUsecase(orgs, devices, summaries, receipts, lineItems, aggregates, true)
	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Equal(t, 0, result.RecordsWritten)
	require.Len(t, result.Organizations, 1)
	assert.Equal(t, StatusSkipped, result.Organizations[0].Status)
	assert.Contains(t, result.Organizations[0].Reason, "COUNT_MISMATCH")
	assert.Empty(t, aggregates.records)
}

func TestReconcileZeroMatchesIsAMismatch(t *testing.T) {
	orgs, devices, summaries, receipts, lineItems, aggregates := consistentFixture()
	summaries.raw[0].ReceiptCount = "0"
	receipts.receipts = nil // zero matched, zero expected: still rejected

	uc := newReconcileUsecase(orgs, devices, summaries, receipts, lineItems, aggregates, true)
	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.RecordsWritten)
	assert.Equal(t, StatusSkipped, result.Organizations[0].Status)
}

func TestReconcileMissingDeviceStopsWholeRun(t *testing.T) {
	orgs, devices, summaries, receipts, lineItems, aggregates := consistentFixture()
	// The broken organization iterates first; the healthy one never runs.
	orgs.orgs = append([]*entity.Organization{
		{TaxCode: "RO9999999", Name: "Fantoma SRL"},
	}, orgs.orgs...)

	uc := newReconcileUsecase(orgs, devices, summaries, receipts, lineItems, aggregates, true)
	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Equal(t, 0, result.RecordsWritten)
	assert.Empty(t, aggregates.records)

	require.Len(t, result.Organizations, 2)
	assert.Equal(t, StatusSkipped, result.Organizations[0].Status)
	assert.Contains(t, result.Organizations[0].Reason, "LINKAGE_MISSING")
	assert.Equal(t, StatusNotReached, result.Organizations[1].Status)
}

func TestReconcileContinuesPastFailuresWhenPolicyOff(t *testing.T) {
	orgs, devices, summaries, receipts, lineItems, aggregates := consistentFixture()
	orgs.orgs = append([]*entity.Organization{
		{TaxCode: "RO9999999", Name: "Fantoma SRL"},
	}, orgs.orgs...)

	uc := newReconcileUsecase(orgs, devices, summaries, receipts, lineItems, aggregates, false)
	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Aborted)
	assert.Equal(t, 3, result.RecordsWritten)

	require.Len(t, result.Organizations, 2)
	assert.Equal(t, StatusSkipped, result.Organizations[0].Status)
	assert.Equal(t, StatusReconciled, result.Organizations[1].Status)
}

func TestReconcileMissingParsedSummarySkips(t *testing.T) {
	orgs, devices, summaries, receipts, lineItems, aggregates := consistentFixture()
	summaries.parsed = nil

	uc := newReconcileUsecase(orgs, devices, summaries, receipts, lineItems, aggregates, true)
	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Equal(t, StatusSkipped, result.Organizations[0].Status)
	assert.Contains(t, result.Organizations[0].Reason, "parsed daily summary")
}

func TestReconcileMissingRawSummarySkips(t *testing.T) {
	orgs, devices, summaries, receipts, lineItems, aggregates := consistentFixture()
	summaries.raw[0].Date = "16-08-2021" // parsed date no longer matches

	uc := newReconcileUsecase(orgs, devices, summaries, receipts, lineItems, aggregates, true)
	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, result.Organizations[0].Status)
	assert.Contains(t, result.Organizations[0].Reason, "raw daily summary")
	assert.Empty(t, aggregates.records)
}

func TestReconcileSequenceNumberIsZeroPadded(t *testing.T) {
	orgs, devices, summaries, receipts, lineItems, aggregates := consistentFixture()
	// The parsed summary stores the sequence as an integer; the raw
	// lookup must use its 4-digit wire form.
	require.Equal(t, 42, summaries.parsed[0].SequenceNumber)

	uc := newReconcileUsecase(orgs, devices, summaries, receipts, lineItems, aggregates, true)
	result, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusReconciled, result.Organizations[0].Status)
	assert.Equal(t, testSequence, aggregates.records[0].SequenceNumber)
}
