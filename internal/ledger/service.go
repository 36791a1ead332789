package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"healthchain/internal/eventlog"
	"healthchain/internal/guard"
	"healthchain/internal/platform/metrics"
	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/sentinel"
	"healthchain/pkg/platform/tx"
	"healthchain/pkg/requestcontext"
)

var tracer = otel.Tracer("healthchain/ledger")

// Service owns the append-only record ledger, the primary protected resource.
// Writes are guard-gated and serialized per patient; reads are unrestricted by
// design (record metadata is public, only the write path and the payload
// location are protected).
type Service struct {
	records Store
	events  *eventlog.Service
	guard   *guard.Guard
	runner  tx.Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(records Store, events *eventlog.Service, g *guard.Guard, runner tx.Runner, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		records: records,
		events:  events,
		guard:   g,
		runner:  runner,
		metrics: m,
		logger:  logger,
	}
}

// AddRecord appends one record to the patient's ledger. Succeeds iff the
// caller is an approved provider AND the patient has granted the caller access
// at call time. The sequence is assigned inside the per-patient serializer so
// it is gapless and strictly increasing.
func (s *Service) AddRecord(ctx context.Context, caller, patient domain.Identity, description, contentHash string) (*Record, error) {
	ctx, span := tracer.Start(ctx, "ledger.AddRecord", trace.WithAttributes(
		attribute.String("patient", patient.String()),
	))
	defer span.End()

	description = strings.TrimSpace(description)
	contentHash = strings.TrimSpace(contentHash)
	if patient.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "patient identity must not be empty")
	}
	if description == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record description must not be empty")
	}
	if contentHash == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "content hash must not be empty")
	}

	var record *Record
	err := s.runner.RunInTx(ctx, patient.String(), func(ctx context.Context) error {
		if err := s.guard.Authorize(ctx, caller, guard.ActionAddRecord, guard.Params{Patient: patient}); err != nil {
			return err
		}
		count, err := s.records.Count(ctx, patient)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count records")
		}
		record = &Record{
			Patient:     patient,
			Sequence:    count,
			Description: description,
			ContentHash: contentHash,
			UploadedBy:  caller,
			Timestamp:   requestcontext.Now(ctx),
		}
		// Event first: the sequence was computed under the patient's
		// serializer, so the record append below cannot collide in memory
		// mode, and in SQL mode a collision rolls the event back with it.
		if _, err := s.events.Append(ctx, eventlog.KindRecordAdded, caller, patient, map[string]string{
			"sequence":     strconv.Itoa(record.Sequence),
			"content_hash": contentHash,
		}); err != nil {
			return err
		}
		if err := s.records.Append(ctx, record); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.Wrap(err, dErrors.CodeInternal, "record sequence collision")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordsAdded.Inc()
	s.logger.InfoContext(ctx, "record added",
		"patient", patient,
		"sequence", record.Sequence,
		"uploaded_by", caller,
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

// RecordCount returns the current sequence count for a patient. Unrestricted
// query.
func (s *Service) RecordCount(ctx context.Context, patient domain.Identity) (int, error) {
	count, err := s.records.Count(ctx, patient)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count records")
	}
	return count, nil
}

// Records returns one page of a patient's records in insertion order. Pages
// are 1-indexed; a page entirely beyond the available range is an empty slice,
// never an error.
func (s *Service) Records(ctx context.Context, patient domain.Identity, page, pageSize int) ([]Record, error) {
	if page <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "page must be positive")
	}
	if pageSize <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "page size must be positive")
	}
	records, err := s.records.Page(ctx, patient, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to page records")
	}
	return records, nil
}

// Record returns a single record by sequence index.
func (s *Service) Record(ctx context.Context, patient domain.Identity, index int) (*Record, error) {
	record, err := s.records.ByIndex(ctx, patient, index)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no record exists at this index")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return record, nil
}
