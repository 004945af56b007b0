// Package receipt turns uploaded receipt images into structured fields.
package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/metrics"
	"github.com/diviso/diviso/internal/models"
)

// Store persists scans.
type Store interface {
	CreateReceiptScan(ctx context.Context, scan *models.ReceiptScan) error
}

// QuotaChecker bounds OCR usage per user.
type QuotaChecker interface {
	CheckOCR(ctx context.Context, userID string) error
}

// Processor runs the download → preprocess → OCR → extract pipeline.
type Processor struct {
	store   Store
	objects ObjectStore
	engine  Engine
	quota   QuotaChecker
	logger  *slog.Logger
}

// NewProcessor creates a processor. quota may be nil.
func NewProcessor(store Store, objects ObjectStore, engine Engine, quota QuotaChecker, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, objects: objects, engine: engine, quota: quota, logger: logger}
}

// Result is returned to the client.
type Result struct {
	ScanID   string  `json:"scan_id"`
	Merchant string  `json:"merchant"`
	Total    *string `json:"total"`
	VAT      *string `json:"vat"`
	Date     string  `json:"date"`
	RawText  string  `json:"raw_text"`
}

// Process scans the receipt at filePath on behalf of userID. Uploads live
// under "<userID>/", so users can only scan their own files.
func (p *Processor) Process(ctx context.Context, userID, filePath string) (*Result, error) {
	if filePath == "" {
		return nil, apperr.InvalidArgument("file_path is required")
	}
	filePath, err := ownedPath(userID, filePath)
	if err != nil {
		return nil, err
	}
	if p.quota != nil {
		if err := p.quota.CheckOCR(ctx, userID); err != nil {
			return nil, err
		}
	}

	rc, err := p.objects.Open(ctx, filePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	image, err := Preprocess(rc, MaxSide)
	if err != nil {
		return nil, err
	}

	text, err := p.detect(ctx, image)
	if err != nil {
		return nil, err
	}

	fields := Extract(text)
	scan := &models.ReceiptScan{
		UserID:      userID,
		FilePath:    filePath,
		RawText:     text,
		Merchant:    fields.Merchant,
		Total:       fields.Total,
		VAT:         fields.VAT,
		ReceiptDate: fields.Date,
	}
	if err := p.store.CreateReceiptScan(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to save receipt scan: %w", err)
	}

	p.logger.Info("receipt processed", "user_id", userID, "scan_id", scan.ID, "chars", len(text))
	return &Result{
		ScanID:   scan.ID,
		Merchant: fields.Merchant,
		Total:    amountString(fields.Total),
		VAT:      amountString(fields.VAT),
		Date:     fields.Date,
		RawText:  text,
	}, nil
}

// ownedPath cleans filePath and checks that it stays under "<userID>/".
// Any ".." element is rejected outright.
func ownedPath(userID, filePath string) (string, error) {
	for _, elem := range strings.Split(filePath, "/") {
		if elem == ".." {
			return "", apperr.InvalidArgument("invalid receipt path")
		}
	}
	cleaned := path.Clean(filePath)
	if userID == "" || path.IsAbs(cleaned) || !strings.HasPrefix(cleaned, userID+"/") {
		return "", apperr.NotAuthorized("receipt does not belong to the caller")
	}
	return cleaned, nil
}

// detect tries document detection first and falls back to plain text
// detection when it yields nothing.
func (p *Processor) detect(ctx context.Context, image []byte) (string, error) {
	var lastErr error
	for _, feature := range []string{FeatureDocumentText, FeatureText} {
		text, err := p.engine.Detect(ctx, image, feature)
		switch {
		case err != nil:
			metrics.OCRRequests.WithLabelValues(feature, "error").Inc()
			p.logger.Warn("ocr failed", "feature", feature, "error", err)
			lastErr = err
		case strings.TrimSpace(text) == "":
			metrics.OCRRequests.WithLabelValues(feature, "empty").Inc()
		default:
			metrics.OCRRequests.WithLabelValues(feature, "ok").Inc()
			return text, nil
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("failed to read receipt: %w", lastErr)
	}
	return "", nil
}

func amountString(v decimal.NullDecimal) *string {
	if !v.Valid {
		return nil
	}
	s := v.Decimal.StringFixed(2)
	return &s
}
