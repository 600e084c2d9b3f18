package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
	"github.com/powerwolf1/bigData/shared/common"
)

func newParseUsecase(summaries *fakeSummaryRepo, receipts *fakeReceiptRepo, lineItems *fakeLineItemRepo, writer *fakeParsedWriter) *ParseUsecase {
	return NewParseUsecase(
		summaries, receipts, lineItems, writer,
		logging.NewDevelopmentLogger("test"),
		metrics.NewCollector("test"),
	)
}

func TestRebuildDailySummaries(t *testing.T) {
	summaries := &fakeSummaryRepo{raw: []*entity.DailySummary{
		{ID: testDeviceID + "150820211345010042"},
		{ID: testDeviceID + "160820211401330043"},
	}}
	writer := &fakeParsedWriter{}

	uc := newParseUsecase(summaries, &fakeReceiptRepo{}, &fakeLineItemRepo{}, writer)
	count, err := uc.RebuildDailySummaries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, repository.CollDailySummariesParsed, writer.collection)
	require.Len(t, writer.docs, 2)

	doc := writer.docs[0].(bson.M)
	assert.Equal(t, int64(4000000123), doc["nui"])
	assert.Equal(t, "13:45:01", doc["hour"])
	assert.Equal(t, 42, doc["nr_z"])
	assert.Equal(t, "15-08-2021", doc["DATA"])
	_, hasReceiptNumber := doc["nr_bon"]
	assert.False(t, hasReceiptNumber)
}

func TestRebuildReceiptsIncludesReceiptNumber(t *testing.T) {
	receipts := &fakeReceiptRepo{receipts: []*entity.Receipt{
		{ID: testReceipt1},
	}}
	writer := &fakeParsedWriter{}

	uc := newParseUsecase(&fakeSummaryRepo{}, receipts, &fakeLineItemRepo{}, writer)
	count, err := uc.RebuildReceipts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, repository.CollReceiptsParsed, writer.collection)
	doc := writer.docs[0].(bson.M)
	assert.Equal(t, 7, doc["nr_bon"])
}

func TestRebuildLineItemsDecodesReceiptIdentifiers(t *testing.T) {
	lineItems := &fakeLineItemRepo{items: []*entity.LineItem{
		{ReceiptID: testReceipt1, ProductName: "paine"},
		{ReceiptID: testReceipt2, ProductName: "cafea"},
	}}
	writer := &fakeParsedWriter{}

	uc := newParseUsecase(&fakeSummaryRepo{}, &fakeReceiptRepo{}, lineItems, writer)
	count, err := uc.RebuildLineItems(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, repository.CollLineItemsParsed, writer.collection)

	first := writer.docs[0].(bson.M)
	second := writer.docs[1].(bson.M)
	assert.Equal(t, 7, first["nr_bon"])
	assert.Equal(t, 8, second["nr_bon"])
}

func TestRebuildFailsFastOnBadIdentifier(t *testing.T) {
	summaries := &fakeSummaryRepo{raw: []*entity.DailySummary{
		{ID: testDeviceID + "150820211345010042"},
		{ID: "short"},
		{ID: testDeviceID + "160820211401330043"},
	}}
	writer := &fakeParsedWriter{}

	uc := newParseUsecase(summaries, &fakeReceiptRepo{}, &fakeLineItemRepo{}, writer)
	_, err := uc.RebuildDailySummaries(context.Background())

	require.Error(t, err)
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidFormat))
	// Nothing is written when any identifier in the batch is broken.
	assert.Zero(t, writer.calls)
}

func TestRebuildEmptyCollection(t *testing.T) {
	writer := &fakeParsedWriter{}
	uc := newParseUsecase(&fakeSummaryRepo{}, &fakeReceiptRepo{}, &fakeLineItemRepo{}, writer)

	count, err := uc.RebuildDailySummaries(context.Background())
	require.NoError(t, err)

	assert.Zero(t, count)
	assert.Equal(t, 1, writer.calls)
}
