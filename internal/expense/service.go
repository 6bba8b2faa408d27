package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Deividgaston/gastos-app/internal/capture"
	"github.com/Deividgaston/gastos-app/internal/extraction"
	"github.com/Deividgaston/gastos-app/internal/metrics"
)

// Phase names the pipeline step a run is in. A run walks the phases in
// order; any phase can transition to failure, which carries the phase on
// the error.
type Phase string

const (
	PhaseCapturing   Phase = "capturing"
	PhaseEncoding    Phase = "encoding"
	PhaseExtracting  Phase = "extracting"
	PhaseNormalizing Phase = "normalizing"
	PhasePersisting  Phase = "persisting"
)

var (
	// ErrScanInProgress is returned when a scan is started while another
	// run is still in flight. The pipeline is deliberately one-at-a-time.
	ErrScanInProgress = errors.New("a scan is already in progress")

	// ErrNoOwner is returned when no owner is configured at persistence
	// time. Nothing is written without an owner.
	ErrNoOwner = errors.New("no owner configured")
)

// PipelineError wraps a failure with the phase it occurred in.
type PipelineError struct {
	Phase Phase
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ScanResult is the outcome of one successful capture-to-save run. Warnings
// flag entries that were persisted but deserve a manual review.
type ScanResult struct {
	Entry    *Entry   `json:"entry"`
	Warnings []string `json:"warnings,omitempty"`
}

// IDGenerator generates unique entry IDs.
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service sequences one capture into one persisted entry: encode, extract
// across the fallback chain, normalize, upload the evidence image, write
// the record. At most one run is in flight at a time.
type Service struct {
	db        DB
	extractor extraction.Extractor
	storage   Storage
	targets   []extraction.ModelTarget
	ownerID   string

	idGenerator IDGenerator
	timeSource  TimeSource
	scanning    atomic.Bool
}

// NewService creates a Service with default ID generation and clock.
func NewService(db DB, extractor extraction.Extractor, storage Storage, targets []extraction.ModelTarget, ownerID string) *Service {
	return NewServiceWithDeps(db, extractor, storage, targets, ownerID, uuidGenerator{}, defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with injectable dependencies for
// testing.
func NewServiceWithDeps(db DB, extractor extraction.Extractor, storage Storage, targets []extraction.ModelTarget, ownerID string, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		targets:     targets,
		ownerID:     ownerID,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ScanCapture runs one capture through the full pipeline and commits the
// result exactly once. The evidence image is uploaded strictly before the
// record write, since the record embeds the resulting reference.
func (s *Service) ScanCapture(ctx context.Context, cap *capture.RawCapture) (*ScanResult, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	if cap == nil || len(cap.Bytes) == 0 {
		return nil, s.fail(PhaseCapturing, capture.ErrNoImage)
	}
	slog.Info("Scanning capture",
		"filename", cap.Filename,
		"content_type", cap.MimeType,
		"size", len(cap.Bytes),
	)

	img, err := capture.Encode(cap)
	if err != nil {
		return nil, s.fail(PhaseEncoding, err)
	}

	raw, err := s.extractor.Extract(ctx, img, s.targets)
	if err != nil {
		return nil, s.fail(PhaseExtracting, err)
	}

	provider := NormalizeProvider(raw.Provider)
	amount := NormalizeAmount(raw.AmountText())
	date := NormalizeDate(raw.Date)

	var warnings []string
	if amount <= 0 {
		warnings = append(warnings, "no valid amount was extracted; review this entry manually")
	}

	if s.ownerID == "" {
		return nil, s.fail(PhasePersisting, ErrNoOwner)
	}

	now := s.timeSource.Now()
	photoPath := StoragePath(s.ownerID, date, provider, cap.Filename, now)
	photoRef, err := s.storage.Save(photoPath, cap.Bytes)
	if err != nil {
		return nil, s.fail(PhasePersisting, fmt.Errorf("uploading evidence image: %w", err))
	}

	entry := &Entry{
		ID:          s.idGenerator.Generate(),
		OwnerID:     s.ownerID,
		Date:        date,
		Category:    DefaultCategory,
		Provider:    provider,
		Notes:       "",
		Amount:      amount,
		PhotoURL:    photoRef,
		ContentType: cap.MimeType,
		IsExpense:   DefaultCategory != incomeCategory,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveEntry(entry); err != nil {
		// Best effort: without this the uploaded image would be orphaned.
		if delErr := s.storage.Delete(photoRef); delErr != nil {
			slog.Error("Failed to delete uploaded image after record write failure",
				"photo", photoRef,
				"error", delErr,
			)
		}
		return nil, s.fail(PhasePersisting, fmt.Errorf("saving entry: %w", err))
	}

	metrics.EntriesPersisted.Inc()
	slog.Info("Entry persisted",
		"id", entry.ID,
		"provider", entry.Provider,
		"amount", entry.Amount,
		"date", entry.Date.Format("2006-01-02"),
		"photo", entry.PhotoURL,
		"warnings", len(warnings),
	)

	return &ScanResult{Entry: entry, Warnings: warnings}, nil
}

func (s *Service) fail(phase Phase, err error) error {
	metrics.ScanFailures.WithLabelValues(string(phase)).Inc()
	slog.Error("Scan failed", "phase", string(phase), "error", err)
	return &PipelineError{Phase: phase, Err: err}
}

// GetEntry retrieves an entry by ID.
func (s *Service) GetEntry(id string) (*Entry, error) {
	entry, err := s.db.GetEntry(id)
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns all entries, newest first.
func (s *Service) ListEntries() ([]*Entry, error) {
	entries, err := s.db.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// GetEntryPhoto retrieves the evidence image for an entry.
func (s *Service) GetEntryPhoto(id string) ([]byte, string, error) {
	entry, err := s.db.GetEntry(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting entry: %w", err)
	}
	if entry.PhotoURL == "" {
		return nil, "", fmt.Errorf("entry %s has no photo", id)
	}

	data, err := s.storage.Get(entry.PhotoURL)
	if err != nil {
		return nil, "", fmt.Errorf("getting entry photo: %w", err)
	}
	return data, entry.ContentType, nil
}

// DeleteEntry removes an entry and its evidence image.
func (s *Service) DeleteEntry(id string) error {
	entry, err := s.db.GetEntry(id)
	if err != nil {
		return fmt.Errorf("getting entry for deletion: %w", err)
	}

	if entry.PhotoURL != "" {
		if err := s.storage.Delete(entry.PhotoURL); err != nil {
			slog.Warn("Failed to delete photo", "photo", entry.PhotoURL, "error", err)
		}
	}

	if err := s.db.DeleteEntry(id); err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}
