package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/powerwolf1/bigData/domain/entity"
)

// Collection names. Raw collections are append-only and written by the
// external ingestion side; parsed collections are rebuilt by the decode
// pipeline; the aggregated collection is additive.
const (
	CollOrganizations        = "ECR.firma"
	CollDevices              = "ECR.nui"
	CollReceipts             = "ECR.bon"
	CollReceiptsParsed       = "ECR.bon.parsed"
	CollDailySummaries       = "ECR.bon_zilnic"
	CollDailySummariesParsed = "ECR.bon_zilnic.parsed"
	CollLineItems            = "ECR.produs"
	CollLineItemsParsed      = "ECR.produs.parsed"
	CollAggregated           = "ECR.aggregated"
)

// OrganizationRepository reads the merchant registry.
type OrganizationRepository interface {
	List(ctx context.Context) ([]*entity.Organization, error)
}

// DeviceRepository reads device registrations.
type DeviceRepository interface {
	// FindByOrganizationName joins by organization name equality, not by a
	// foreign key.
	FindByOrganizationName(ctx context.Context, name string) (*entity.DeviceRegistration, error)
	// ListIDsByOrganizationName returns every device id registered under
	// the organization.
	ListIDsByOrganizationName(ctx context.Context, name string) ([]string, error)
}

// SummaryRepository reads raw and parsed daily summaries.
type SummaryRepository interface {
	// ListIdentifiers returns the encoded identifiers of every raw summary.
	ListIdentifiers(ctx context.Context) ([]string, error)
	// FindParsedByDeviceID looks up one parsed summary by integer device id.
	FindParsedByDeviceID(ctx context.Context, deviceID int64) (*entity.DailySummaryParsed, error)
	// FindRawByBusinessKey matches a raw summary whose identifier starts
	// with the device id and whose stored date and sequence fields equal
	// the given wire strings.
	FindRawByBusinessKey(ctx context.Context, deviceID, date, sequence string) (*entity.DailySummary, error)
	// FindOne matches a raw summary by exact field equality.
	FindOne(ctx context.Context, filter bson.M) (*entity.DailySummary, error)
}

// ReceiptRepository reads raw receipts.
type ReceiptRepository interface {
	ListIdentifiers(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (*entity.Receipt, error)
	// FindByDateAndSequence matches receipts on their stored DATA and Z
	// fields, not by identifier decoding.
	FindByDateAndSequence(ctx context.Context, date, sequence string) ([]*entity.Receipt, error)
}

// LineItemRepository reads receipt line items.
type LineItemRepository interface {
	ListReceiptIDs(ctx context.Context) ([]string, error)
	ListAll(ctx context.Context) ([]*entity.LineItem, error)
	FindByReceiptID(ctx context.Context, receiptID string) ([]*entity.LineItem, error)
}

// AggregateRepository writes and inspects the denormalized output.
type AggregateRepository interface {
	Insert(ctx context.Context, record *entity.AggregateRecord) error
	Count(ctx context.Context) (int64, error)
	ListByDateRange(ctx context.Context, from, to *time.Time) ([]*entity.AggregateRecord, error)
}

// ParsedWriter rebuilds a parsed collection from scratch: any existing
// collection is dropped before the new documents are bulk inserted.
type ParsedWriter interface {
	Rebuild(ctx context.Context, collection string, docs []interface{}) error
}

// DocumentStore is the generic passthrough surface the dashboard CRUD
// endpoints use. The core pipeline never touches it.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, doc bson.M) (string, error)
	InsertMany(ctx context.Context, collection string, docs []interface{}) ([]string, error)
	UpdateByID(ctx context.Context, collection string, id interface{}, fields bson.M) error
	DeleteByID(ctx context.Context, collection string, id interface{}) error
	DropCollection(ctx context.Context, collection string) error
	FindByID(ctx context.Context, collection string, id interface{}) (bson.M, error)
	FindPage(ctx context.Context, collection string, from, to *time.Time, limit, skip int64) ([]bson.M, error)
	FieldNames(ctx context.Context, collection string) ([]string, error)
	CollectionCounts(ctx context.Context) (map[string]int64, error)
}

// DateCount is a per-date document count bucket.
type DateCount struct {
	Date  interface{} `bson:"_id" json:"date"`
	Count int64       `bson:"count" json:"count"`
}

// VATStats holds the summed VAT bucket totals of a collection.
type VATStats struct {
	TotalA float64 `bson:"total_totA" json:"total_totA"`
	TotalB float64 `bson:"total_totB" json:"total_totB"`
	TotalC float64 `bson:"total_totC" json:"total_totC"`
	TotalD float64 `bson:"total_totD" json:"total_totD"`
}

// HourlySum is a per-hour-per-day sales total.
type HourlySum struct {
	Hour  int     `bson:"hour" json:"hour"`
	Date  string  `bson:"date" json:"date"`
	Total float64 `bson:"total_sum" json:"total_sum"`
}

// WeekdaySum is a per-day-of-week sales total (1 = Sunday, Mongo convention).
type WeekdaySum struct {
	DayOfWeek int     `bson:"_id" json:"_id"`
	Total     float64 `bson:"total_sum" json:"total_sum"`
}

// DailyReceiptCount groups summaries by date and declared receipt count.
type DailyReceiptCount struct {
	Date         string `bson:"date" json:"date"`
	ReceiptCount string `bson:"nr_bonuri" json:"nr_bonuri"`
	Count        int64  `bson:"count" json:"count"`
}

// ZReportRow is one row of a Z-report listing.
type ZReportRow struct {
	SequenceNumber interface{} `bson:"nr_z" json:"nr_z"`
	Date           interface{} `bson:"DATA" json:"DATA"`
}

// AnalyticsRepository runs the aggregation-pipeline queries behind the
// dashboard widgets.
type AnalyticsRepository interface {
	// ConvertDateToTimestamp backfills a millisecond timestamp field from
	// the wire-form DATA string across a whole collection.
	ConvertDateToTimestamp(ctx context.Context, collection string) error
	CountsByDateForDevices(ctx context.Context, collection string, deviceIDs []string, from, to *time.Time) ([]DateCount, error)
	ZReports(ctx context.Context, collection string, from, to time.Time, sequence string) ([]ZReportRow, error)
	VATStats(ctx context.Context, collection string, from, to *time.Time) (*VATStats, error)
	SumsByHour(ctx context.Context, collection string, from, to time.Time) ([]HourlySum, error)
	SumsByDayOfWeek(ctx context.Context, collection string, from, to time.Time) ([]WeekdaySum, error)
	DailyReceiptCounts(ctx context.Context, collection string, from, to time.Time) ([]DailyReceiptCount, error)
	FilteredSummaries(ctx context.Context, collection string, from, to time.Time, sequence string) ([]bson.M, error)
}
