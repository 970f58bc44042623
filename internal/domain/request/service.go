package request

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contrack/contrack/internal/apperr"
	"github.com/contrack/contrack/internal/domain/status"
	"github.com/contrack/contrack/internal/platform/filestore"
)

// videoExts are the accepted video container extensions for video document
// slots. Everything else is PDF-only.
var videoExts = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".mkv": true,
}

const pdfExt = ".pdf"

// TxRunner executes fn atomically. The production runner wraps db.WithTx;
// tests use a passthrough.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service implements the request lifecycle: creation behind the eligibility
// gate, document materialization and completeness, uploads, status
// transitions with closure bookkeeping, and the soft/hard delete pair.
type Service struct {
	repo      Repository
	docs      DocumentRepository
	registry  Registry
	resolver  RequirementResolver
	hospitals HospitalDirectory
	services  ServiceDirectory
	files     filestore.Store
	gate      *Gate
	runTx     TxRunner
	now       func() time.Time
}

func NewService(
	repo Repository,
	docs DocumentRepository,
	registry Registry,
	resolver RequirementResolver,
	hospitals HospitalDirectory,
	services ServiceDirectory,
	files filestore.Store,
	runTx TxRunner,
) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{
		repo:      repo,
		docs:      docs,
		registry:  registry,
		resolver:  resolver,
		hospitals: hospitals,
		services:  services,
		files:     files,
		gate:      NewGate(repo, registry),
		runTx:     runTx,
		now:       time.Now,
	}
}

// CanCreate exposes the eligibility gate as a read-only check.
func (s *Service) CanCreate(ctx context.Context, hospitalID, serviceID uuid.UUID) (Decision, error) {
	return s.gate.CanCreate(ctx, hospitalID, serviceID)
}

// Create opens a new request in the Incomplete status and materializes its
// document set in the same transaction. The hospital profile must be
// complete, the service active, and the eligibility gate must allow the
// pair.
func (s *Service) Create(ctx context.Context, hospitalID, serviceID uuid.UUID, ageCategory string) (*Request, error) {
	hosp, err := s.hospitals.Get(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if !hosp.ProfileComplete() {
		return nil, apperr.Validationf("hospital profile is incomplete")
	}

	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, apperr.Validationf("service %q is not active", svc.Name)
	}

	decision, err := s.gate.CanCreate(ctx, hospitalID, serviceID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperr.Conflictf("cannot create request: %s", decision.Reason)
	}

	req := &Request{
		HospitalID:  hospitalID,
		ServiceID:   serviceID,
		Status:      status.Incomplete,
		AgeCategory: ageCategory,
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, req); err != nil {
			return err
		}
		return s.ensureDocs(ctx, req.ID, hosp.Type)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// EnsureDocumentSet reconciles the request's documents against the current
// catalog. Idempotent: missing slots are created, existing slots refreshed
// to current display names, video flags, and required resolution.
func (s *Service) EnsureDocumentSet(ctx context.Context, requestID uuid.UUID) error {
	req, err := s.activeRequest(ctx, requestID)
	if err != nil {
		return err
	}
	hosp, err := s.hospitals.Get(ctx, req.HospitalID)
	if err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		return s.ensureDocs(ctx, requestID, hosp.Type)
	})
}

func (s *Service) ensureDocs(ctx context.Context, requestID uuid.UUID, hospitalType string) error {
	types, err := s.resolver.ListTypes(ctx)
	if err != nil {
		return err
	}
	optional, err := s.resolver.OptionalSet(ctx, hospitalType)
	if err != nil {
		return err
	}
	existing, err := s.docs.ListByRequest(ctx, requestID)
	if err != nil {
		return err
	}
	byType := make(map[string]*Document, len(existing))
	for _, d := range existing {
		byType[d.DocType] = d
	}

	for _, dt := range types {
		required := !optional[dt.Name]
		if d, ok := byType[dt.Name]; ok {
			d.DisplayName = dt.DisplayName
			d.VideoAllowed = dt.VideoAllowed
			d.VideoOnly = dt.VideoOnly
			if !d.RequiredOverridden {
				d.Required = required
			}
			if err := s.docs.Update(ctx, d); err != nil {
				return err
			}
			continue
		}
		if err := s.docs.Create(ctx, &Document{
			RequestID:    requestID,
			DocType:      dt.Name,
			DisplayName:  dt.DisplayName,
			Required:     required,
			VideoAllowed: dt.VideoAllowed,
			VideoOnly:    dt.VideoOnly,
		}); err != nil {
			return err
		}
	}
	return nil
}

// IsComplete reports whether every required document is satisfied.
func (s *Service) IsComplete(ctx context.Context, requestID uuid.UUID) (bool, error) {
	docs, err := s.docs.ListByRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	for _, d := range docs {
		if d.Required && !d.Satisfied {
			return false, nil
		}
	}
	return true, nil
}

// Get returns a request with its documents. Soft-deleted requests are
// hidden from hospitals but visible to staff.
func (s *Service) Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Detail, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundf("request %s", id)
	}
	if req.Lifecycle() == LifecycleDeleted && !includeDeleted {
		return nil, apperr.NotFoundf("request %s", id)
	}
	docs, err := s.docs.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	complete := true
	for _, d := range docs {
		if d.Required && !d.Satisfied {
			complete = false
			break
		}
	}
	return &Detail{Request: req, Documents: docs, Complete: complete}, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Request, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Submit moves a hospital-editable request to the first configured status.
// It is the only hospital-initiated transition and is gated on document
// completeness.
func (s *Service) Submit(ctx context.Context, requestID uuid.UUID) (*Request, error) {
	req, err := s.activeRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	editable, err := s.registry.HospitalEditable(ctx)
	if err != nil {
		return nil, err
	}
	if !editable[req.Status] {
		return nil, apperr.Forbiddenf("request in status %q cannot be submitted", req.Status)
	}
	complete, err := s.IsComplete(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, apperr.Validationf("required documents are missing")
	}
	first, err := s.registry.First(ctx)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, req, first)
}

// TransitionStatus moves a request to any configured status. The transition
// graph is unconstrained; closure bookkeeping is derived uniformly.
func (s *Service) TransitionStatus(ctx context.Context, requestID uuid.UUID, newStatus string) (*Request, error) {
	req, err := s.activeRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	known, err := s.registry.IsKnown(ctx, newStatus)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, apperr.Validationf("unknown status %q", newStatus)
	}
	return s.transition(ctx, req, newStatus)
}

func (s *Service) transition(ctx context.Context, req *Request, newStatus string) (*Request, error) {
	behavior, err := s.registry.Behavior(ctx, newStatus)
	if err != nil {
		return nil, err
	}
	now := s.now()
	req.ClosedAt = deriveClosedAt(req.ClosedAt, req.Status == newStatus, behavior.IsFinalState, now)
	req.Status = newStatus
	req.UpdatedAt = now
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// HospitalMayEdit reports whether the owning hospital can still act on the
// request in its current status.
func (s *Service) HospitalMayEdit(ctx context.Context, req *Request) (bool, error) {
	editable, err := s.registry.HospitalEditable(ctx)
	if err != nil {
		return false, err
	}
	return editable[req.Status], nil
}

// UploadDocument stores a file against a document slot and marks it
// satisfied. A wrong extension rejects before any state changes. A failed
// database write removes the freshly stored file and leaves any earlier
// upload in place, so the recorded path stays downloadable. The old file of
// a cross-extension re-upload is removed only after the row points at the
// new one.
func (s *Service) UploadDocument(ctx context.Context, requestID uuid.UUID, docType, filename string, content io.Reader) (*Document, error) {
	req, err := s.activeRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	doc, err := s.docs.Get(ctx, requestID, docType)
	if err != nil {
		return nil, apperr.NotFoundf("document %q on request %s", docType, requestID)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if err := checkExtension(doc, ext); err != nil {
		return nil, err
	}

	path, err := s.files.Save(ctx, req.HospitalID, requestID, docType, ext, content)
	if err != nil {
		return nil, apperr.Storagef("store %s: %v", filename, err)
	}

	now := s.now()
	var oldPath string
	if doc.FilePath != nil {
		oldPath = *doc.FilePath
	}
	doc.FilePath = &path
	doc.UploadedAt = &now
	doc.Satisfied = true
	if err := s.docs.Update(ctx, doc); err != nil {
		if path != oldPath {
			s.files.Delete(ctx, path)
		}
		return nil, err
	}
	if oldPath != "" && oldPath != path {
		s.files.Delete(ctx, oldPath)
	}
	return doc, nil
}

func checkExtension(doc *Document, ext string) error {
	switch {
	case doc.VideoOnly:
		if !videoExts[ext] {
			return apperr.Validationf("document %q accepts video files only", doc.DocType)
		}
	case doc.VideoAllowed:
		if ext != pdfExt && !videoExts[ext] {
			return apperr.Validationf("document %q accepts PDF or video files", doc.DocType)
		}
	default:
		if ext != pdfExt {
			return apperr.Validationf("document %q accepts PDF files only", doc.DocType)
		}
	}
	return nil
}

// OpenDocument returns a reader over the stored file for download.
func (s *Service) OpenDocument(ctx context.Context, requestID uuid.UUID, docType string) (io.ReadCloser, string, error) {
	doc, err := s.docs.Get(ctx, requestID, docType)
	if err != nil {
		return nil, "", apperr.NotFoundf("document %q on request %s", docType, requestID)
	}
	if doc.FilePath == nil {
		return nil, "", apperr.NotFoundf("document %q has no file", docType)
	}
	rc, err := s.files.Open(ctx, *doc.FilePath)
	if err != nil {
		return nil, "", apperr.Storagef("open %s: %v", *doc.FilePath, err)
	}
	return rc, *doc.FilePath, nil
}

// DocumentPatch carries the reviewer-editable fields of a document slot.
// Nil fields are left unchanged.
type DocumentPatch struct {
	Satisfied    *bool   `json:"satisfied"`
	Required     *bool   `json:"required"`
	AdminComment *string `json:"admin_comment"`
}

// PatchDocument applies reviewer overrides. Setting Required marks the slot
// overridden so catalog resyncs leave it alone. Satisfied may be toggled
// independent of file presence.
func (s *Service) PatchDocument(ctx context.Context, requestID uuid.UUID, docType string, patch DocumentPatch) (*Document, error) {
	if _, err := s.activeRequest(ctx, requestID); err != nil {
		return nil, err
	}
	doc, err := s.docs.Get(ctx, requestID, docType)
	if err != nil {
		return nil, apperr.NotFoundf("document %q on request %s", docType, requestID)
	}
	if patch.Satisfied != nil {
		doc.Satisfied = *patch.Satisfied
	}
	if patch.Required != nil {
		doc.Required = *patch.Required
		doc.RequiredOverridden = true
	}
	if patch.AdminComment != nil {
		doc.AdminComment = *patch.AdminComment
	}
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SoftDelete moves a request to the trash. Status and files stay; the pair
// is immediately freed for a new request because deleted requests are
// excluded from every eligibility check.
func (s *Service) SoftDelete(ctx context.Context, requestID uuid.UUID) error {
	if _, err := s.activeRequest(ctx, requestID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, requestID, s.now())
}

// HardDelete removes the request, its document rows, and its files. Only
// allowed while the request is still hospital-editable.
func (s *Service) HardDelete(ctx context.Context, requestID uuid.UUID) error {
	req, err := s.activeRequest(ctx, requestID)
	if err != nil {
		return err
	}
	editable, err := s.registry.HospitalEditable(ctx)
	if err != nil {
		return err
	}
	if !editable[req.Status] {
		return apperr.Forbiddenf("request in status %q cannot be deleted", req.Status)
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.docs.DeleteByRequest(ctx, requestID); err != nil {
			return err
		}
		return s.repo.HardDelete(ctx, requestID)
	})
	if err != nil {
		return err
	}
	if err := s.files.DeleteRequest(ctx, req.HospitalID, requestID); err != nil {
		return apperr.Storagef("delete request files: %v", err)
	}
	return nil
}

func (s *Service) activeRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundf("request %s", id)
	}
	if req.Lifecycle() == LifecycleDeleted {
		return nil, apperr.NotFoundf("request %s", id)
	}
	return req, nil
}
