package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
	"github.com/powerwolf1/bigData/shared/common"
)

// Organization outcome statuses.
const (
	StatusReconciled = "reconciled"
	StatusSkipped    = "skipped"
	StatusNotReached = "not_reached"
)

// OrganizationResult is the per-organization outcome of a run.
type OrganizationResult struct {
	TaxCode        string `json:"cui"`
	Name           string `json:"nume"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	RecordsWritten int    `json:"records_written"`
}

// ReconcileResult is the outcome of one reconciliation run.
type ReconcileResult struct {
	RunID          string               `json:"run_id"`
	StartedAt      time.Time            `json:"started_at"`
	Duration       time.Duration        `json:"duration"`
	RecordsWritten int                  `json:"records_written"`
	Aborted        bool                 `json:"aborted"`
	Organizations  []OrganizationResult `json:"organizations"`
}

// ReconcileUsecase joins the five source collections by business keys and
// emits one denormalized aggregate record per line item. The stages per
// organization:
//
//	organization name -> device registration
//	device id (integer) -> parsed daily summary
//	device prefix + date + sequence -> raw daily summary
//	date + sequence -> receipts, checked against the declared count
//	receipt id -> line items -> aggregate records
//
// A broken linkage or a count mismatch fails the organization. With
// stopOnFirstFailure set, the first failed organization ends the whole
// run and every remaining organization is left untouched; records already
// written stay written, there is no rollback.
type ReconcileUsecase struct {
	orgs       repository.OrganizationRepository
	devices    repository.DeviceRepository
	summaries  repository.SummaryRepository
	receipts   repository.ReceiptRepository
	lineItems  repository.LineItemRepository
	aggregates repository.AggregateRepository

	logger  *logging.Logger
	metrics *metrics.Collector

	stopOnFirstFailure bool
}

// NewReconcileUsecase creates the reconciliation engine.
func NewReconcileUsecase(
	orgs repository.OrganizationRepository,
	devices repository.DeviceRepository,
	summaries repository.SummaryRepository,
	receipts repository.ReceiptRepository,
	lineItems repository.LineItemRepository,
	aggregates repository.AggregateRepository,
	logger *logging.Logger,
	collector *metrics.Collector,
	stopOnFirstFailure bool,
) *ReconcileUsecase {
	return &ReconcileUsecase{
		orgs:               orgs,
		devices:            devices,
		summaries:          summaries,
		receipts:           receipts,
		lineItems:          lineItems,
		aggregates:         aggregates,
		logger:             logger.WithComponent("reconcile"),
		metrics:            collector,
		stopOnFirstFailure: stopOnFirstFailure,
	}
}

// Run reconciles every organization in registry order.
func (u *ReconcileUsecase) Run(ctx context.Context) (*ReconcileResult, error) {
	result := &ReconcileResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	logger := u.logger.WithFields(logging.String("run_id", result.RunID))
	logger.Info("Reconciliation run started",
		logging.Bool("stop_on_first_failure", u.stopOnFirstFailure))

	orgs, err := u.orgs.List(ctx)
	if err != nil {
		u.metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	for i, org := range orgs {
		orgResult := OrganizationResult{TaxCode: org.TaxCode, Name: org.Name}

		written, err := u.reconcileOrganization(ctx, org)
		switch {
		case err == nil:
			orgResult.Status = StatusReconciled
			orgResult.RecordsWritten = written
			result.RecordsWritten += written
		case isLinkageFailure(err):
			orgResult.Status = StatusSkipped
			orgResult.Reason = err.Error()
			result.RecordsWritten += written
			logger.Warn("Organization failed reconciliation",
				logging.String("cui", org.TaxCode),
				logging.String("reason", err.Error()))
		default:
			// Infrastructure errors end the run regardless of policy.
			u.metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
			return nil, err
		}

		result.Organizations = append(result.Organizations, orgResult)

		if orgResult.Status == StatusSkipped && u.stopOnFirstFailure {
			result.Aborted = true
			for _, remaining := range orgs[i+1:] {
				result.Organizations = append(result.Organizations, OrganizationResult{
					TaxCode: remaining.TaxCode,
					Name:    remaining.Name,
					Status:  StatusNotReached,
				})
			}
			break
		}
	}

	result.Duration = time.Since(result.StartedAt)

	outcome := "completed"
	if result.Aborted {
		outcome = "aborted"
	}
	u.metrics.ReconcileRunsTotal.WithLabelValues(outcome).Inc()

	logger.Info("Reconciliation run finished",
		logging.String("outcome", outcome),
		logging.Int("records_written", result.RecordsWritten),
		logging.Duration("duration", result.Duration))

	return result, nil
}

// reconcileOrganization walks one organization through every stage and
// returns the number of aggregate records written for it.
func (u *ReconcileUsecase) reconcileOrganization(ctx context.Context, org *entity.Organization) (int, error) {
	device, err := u.devices.FindByOrganizationName(ctx, org.Name)
	if err != nil {
		return 0, asLinkageError(err, "device registration")
	}

	deviceID, err := strconv.ParseInt(device.DeviceID, 10, 64)
	if err != nil {
		return 0, common.ErrTypeConversion("nui", err)
	}

	parsed, err := u.summaries.FindParsedByDeviceID(ctx, deviceID)
	if err != nil {
		return 0, asLinkageError(err, "parsed daily summary")
	}

	// The parsed summary supplies the business key for everything below:
	// the wire-form date and the zero-padded sequence number.
	date := parsed.Date
	sequence := entity.PadSequence(parsed.SequenceNumber)

	summary, err := u.summaries.FindRawByBusinessKey(ctx, device.DeviceID, date, sequence)
	if err != nil {
		return 0, asLinkageError(err, "raw daily summary")
	}

	expected, err := strconv.Atoi(summary.ReceiptCount)
	if err != nil {
		return 0, common.ErrTypeConversion("nr_bonuri", err)
	}

	receipts, err := u.receipts.FindByDateAndSequence(ctx, date, sequence)
	if err != nil {
		return 0, err
	}

	if len(receipts) != expected || len(receipts) == 0 {
		return 0, common.ErrCountMismatch(expected, len(receipts))
	}

	written := 0
	for _, receipt := range receipts {
		items, err := u.lineItems.FindByReceiptID(ctx, receipt.ID)
		if err != nil {
			return written, err
		}

		for _, item := range items {
			record := &entity.AggregateRecord{
				TaxCode:        org.TaxCode,
				DeviceID:       device.DeviceID,
				Date:           date,
				SequenceNumber: sequence,
				ReceiptNumber:  receipt.ReceiptNumber,
				Product: entity.AggregateProduct{
					Name:     item.ProductName,
					Quantity: item.Quantity,
					Value:    item.Value,
					TaxRate:  item.TaxRate,
				},
			}
			if err := u.aggregates.Insert(ctx, record); err != nil {
				return written, err
			}
			written++
			u.metrics.AggregatesWritten.Inc()
		}
	}

	return written, nil
}

// isLinkageFailure reports whether the error is a per-organization
// reconciliation failure rather than an infrastructure one.
func isLinkageFailure(err error) bool {
	return common.HasErrorCode(err, common.ErrCodeLinkageMissing) ||
		common.HasErrorCode(err, common.ErrCodeCountMismatch) ||
		common.HasErrorCode(err, common.ErrCodeTypeConversion)
}

// asLinkageError turns a repository miss into a linkage error naming the
// failed lookup; other errors pass through unchanged.
func asLinkageError(err error, lookup string) error {
	if common.HasErrorCode(err, common.ErrCodeNotFound) {
		return common.ErrLinkageMissing(lookup)
	}
	return err
}
