package usecase

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/shared/common"
)

// In-memory repository fakes shared by the usecase tests.

type fakeOrgRepo struct {
	orgs []*entity.Organization
}

func (f *fakeOrgRepo) List(ctx context.Context) ([]*entity.Organization, error) {
	return f.orgs, nil
}

type fakeDeviceRepo struct {
	devices []*entity.DeviceRegistration
}

func (f *fakeDeviceRepo) FindByOrganizationName(ctx context.Context, name string) (*entity.DeviceRegistration, error) {
	for _, d := range f.devices {
		if d.OrganizationName == name {
			return d, nil
		}
	}
	return nil, common.ErrNotFound("device registration")
}

func (f *fakeDeviceRepo) ListIDsByOrganizationName(ctx context.Context, name string) ([]string, error) {
	var ids []string
	for _, d := range f.devices {
		if d.OrganizationName == name {
			ids = append(ids, d.DeviceID)
		}
	}
	return ids, nil
}

type fakeSummaryRepo struct {
	raw    []*entity.DailySummary
	parsed []*entity.DailySummaryParsed
}

func (f *fakeSummaryRepo) ListIdentifiers(ctx context.Context) ([]string, error) {
	var ids []string
	for _, s := range f.raw {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (f *fakeSummaryRepo) FindParsedByDeviceID(ctx context.Context, deviceID int64) (*entity.DailySummaryParsed, error) {
	for _, s := range f.parsed {
		if s.DeviceID == deviceID {
			return s, nil
		}
	}
	return nil, common.ErrNotFound("parsed daily summary")
}

func (f *fakeSummaryRepo) FindRawByBusinessKey(ctx context.Context, deviceID, date, sequence string) (*entity.DailySummary, error) {
	for _, s := range f.raw {
		if strings.HasPrefix(s.ID, deviceID) && s.Date == date && s.SequenceNumber == sequence {
			return s, nil
		}
	}
	return nil, common.ErrNotFound("daily summary")
}

func (f *fakeSummaryRepo) FindOne(ctx context.Context, filter bson.M) (*entity.DailySummary, error) {
	return nil, common.ErrNotFound("daily summary")
}

type fakeReceiptRepo struct {
	receipts []*entity.Receipt
}

func (f *fakeReceiptRepo) ListIdentifiers(ctx context.Context) ([]string, error) {
	var ids []string
	for _, r := range f.receipts {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (f *fakeReceiptRepo) FindByID(ctx context.Context, id string) (*entity.Receipt, error) {
	for _, r := range f.receipts {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, common.ErrNotFound("receipt")
}

func (f *fakeReceiptRepo) FindByDateAndSequence(ctx context.Context, date, sequence string) ([]*entity.Receipt, error) {
	var matched []*entity.Receipt
	for _, r := range f.receipts {
		if r.Date == date && r.SequenceNumber == sequence {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

type fakeLineItemRepo struct {
	items []*entity.LineItem
}

func (f *fakeLineItemRepo) ListReceiptIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for _, item := range f.items {
		ids = append(ids, item.ReceiptID)
	}
	return ids, nil
}

func (f *fakeLineItemRepo) ListAll(ctx context.Context) ([]*entity.LineItem, error) {
	return f.items, nil
}

func (f *fakeLineItemRepo) FindByReceiptID(ctx context.Context, receiptID string) ([]*entity.LineItem, error) {
	var matched []*entity.LineItem
	for _, item := range f.items {
		if item.ReceiptID == receiptID {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

type fakeAggregateRepo struct {
	records []*entity.AggregateRecord
}

func (f *fakeAggregateRepo) Insert(ctx context.Context, record *entity.AggregateRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeAggregateRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.records)), nil
}

func (f *fakeAggregateRepo) ListByDateRange(ctx context.Context, from, to *time.Time) ([]*entity.AggregateRecord, error) {
	return f.records, nil
}

type fakeParsedWriter struct {
	collection string
	docs       []interface{}
	calls      int
}

func (f *fakeParsedWriter) Rebuild(ctx context.Context, collection string, docs []interface{}) error {
	f.collection = collection
	f.docs = docs
	f.calls++
	return nil
}
