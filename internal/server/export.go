package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

// Exporter renders purchase history (export.Service).
type Exporter interface {
	ExportHistoryXLSX(ctx context.Context, uploaderID uuid.UUID, from, to *time.Time) ([]byte, error)
}

var exportFields = ids{required: []string{"uploader_id"}}

// ExportHistory expects {uploader_id, from_date?, to_date?} with YYYY-MM-DD dates:
// only from -> from..today, only to -> beginning..to, none -> everything.
func (s *ReceiptService) ExportHistory(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	if s.exporter == nil {
		return nil, common.UnimplementedError("export is not enabled")
	}
	parsed, err := exportFields.parse(req)
	if err != nil {
		return nil, err
	}
	from, err := dateField(req, "from_date")
	if err != nil {
		return nil, err
	}
	to, err := dateField(req, "to_date")
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, common.InvalidArgumentError("to_date is before from_date")
	}

	uploaderID := parsed["uploader_id"]
	xlsx, err := s.exporter.ExportHistoryXLSX(ctx, uploaderID, from, to)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "uploader_id", uploaderID, "err", err)
		return nil, common.InternalError(err.Error())
	}
	return wrapperspb.Bytes(xlsx), nil
}
