package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/auth"
	"github.com/spec-kit/schedulo/internal/config"
	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/importer"
	"github.com/spec-kit/schedulo/internal/mail"
	"github.com/spec-kit/schedulo/internal/observability"
	"github.com/spec-kit/schedulo/internal/repository"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

const generatedPasswordSuffixLen = 3

// ImportService creates faculty accounts and staging records from roster files.
type ImportService struct {
	resolver       *IdentityResolver
	faculty        repository.CredentialRepository
	uploads        repository.FacultyUploadRepository
	mailer         mail.Mailer
	passwordPrefix string
	bcryptCost     int
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// ImportDependencies encapsulates the stores the import flow touches.
type ImportDependencies struct {
	Resolver *IdentityResolver
	Faculty  repository.CredentialRepository
	Uploads  repository.FacultyUploadRepository
	Mailer   mail.Mailer
}

// NewImportService builds the service.
func NewImportService(cfg config.Config, deps ImportDependencies, logger *zap.Logger, metrics *observability.Metrics) *ImportService {
	return &ImportService{
		resolver:       deps.Resolver,
		faculty:        deps.Faculty,
		uploads:        deps.Uploads,
		mailer:         deps.Mailer,
		passwordPrefix: cfg.Import.PasswordPrefix,
		bcryptCost:     cfg.Auth.BcryptCost,
		logger:         logger,
		metrics:        metrics,
	}
}

// CreatedEntry is an account created from a roster row.
type CreatedEntry struct {
	Row        int            `json:"row"`
	Profile    domain.Profile `json:"profile"`
	EmailSent  bool           `json:"emailSent"`
	EmailError string         `json:"emailError,omitempty"`
}

// DuplicateEntry is a row whose email or employee id already belongs to an account.
type DuplicateEntry struct {
	Row          int             `json:"row"`
	Reason       string          `json:"reason"`
	UploadData   importer.Row    `json:"uploadData"`
	ExistingData *domain.Profile `json:"existingData,omitempty"`
}

// InvalidEntry is a row rejected by validation.
type InvalidEntry struct {
	Row    int               `json:"row"`
	Data   importer.Row      `json:"data"`
	Errors map[string]string `json:"errors"`
}

// FailedEntry is a valid row that was not stored, either because the store
// rejected it or because the batch was interrupted before reaching it.
type FailedEntry struct {
	Row    int          `json:"row"`
	Data   importer.Row `json:"data"`
	Reason string       `json:"reason"`
}

const (
	failureInterrupted = "import interrupted before this row was processed"
	failureStore       = "row could not be stored"
)

// ImportResult summarizes a credential import.
type ImportResult struct {
	Created    []CreatedEntry   `json:"created"`
	Duplicates []DuplicateEntry `json:"duplicates"`
	Invalid    []InvalidEntry   `json:"invalid"`
	Failed     []FailedEntry    `json:"failed"`
}

// UploadResult summarizes a staging import.
type UploadResult struct {
	Upserted int            `json:"upserted"`
	Invalid  []InvalidEntry `json:"invalid"`
	Failed   []FailedEntry  `json:"failed"`
}

// Preview parses a roster without touching any store.
func (s *ImportService) Preview(filename string, r io.Reader) ([]importer.Row, error) {
	return readRoster(filename, r)
}

// Commit creates a faculty account for every valid, previously unseen row and mails each
// new account its generated password. Mail failures are reported per row. Rows the store
// rejects, and rows left unprocessed when ctx ends, are reported as failed; the rows
// handled before that stay in the result.
func (s *ImportService) Commit(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	rows, err := readRoster(filename, r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Created:    []CreatedEntry{},
		Duplicates: []DuplicateEntry{},
		Invalid:    []InvalidEntry{},
		Failed:     []FailedEntry{},
	}
	for _, row := range rows {
		if !row.Valid {
			result.Invalid = append(result.Invalid, InvalidEntry{Row: row.Line, Data: row, Errors: row.Errors})
			continue
		}
		if ctx.Err() != nil {
			result.Failed = append(result.Failed, FailedEntry{Row: row.Line, Data: row, Reason: failureInterrupted})
			continue
		}

		created, dup, err := s.importRow(ctx, row)
		switch {
		case err != nil:
			result.Failed = append(result.Failed, s.failedRow(ctx, row, err))
		case dup != nil:
			result.Duplicates = append(result.Duplicates, *dup)
		default:
			result.Created = append(result.Created, *created)
		}
	}

	s.metrics.RecordImportRows("created", len(result.Created))
	s.metrics.RecordImportRows("duplicate", len(result.Duplicates))
	s.metrics.RecordImportRows("invalid", len(result.Invalid))
	s.metrics.RecordImportRows("failed", len(result.Failed))
	s.logger.Info("faculty credentials imported",
		zap.String("file", filename),
		zap.Int("created", len(result.Created)),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Int("invalid", len(result.Invalid)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, row importer.Row) (*CreatedEntry, *DuplicateEntry, error) {
	dup, err := s.findDuplicate(ctx, row)
	if err != nil || dup != nil {
		return nil, dup, err
	}
	return s.createAccount(ctx, row)
}

func (s *ImportService) failedRow(ctx context.Context, row importer.Row, err error) FailedEntry {
	reason := failureStore
	if ctx.Err() != nil {
		reason = failureInterrupted
	} else {
		s.logger.Warn("roster row failed", zap.Int("row", row.Line), zap.String("employee_id", row.EmployeeID), zap.Error(err))
	}
	return FailedEntry{Row: row.Line, Data: row, Reason: reason}
}

func (s *ImportService) findDuplicate(ctx context.Context, row importer.Row) (*DuplicateEntry, error) {
	if existing, err := s.resolver.FindByEmail(ctx, row.Email); err == nil {
		return duplicateOf(row, repository.FieldEmail, existing), nil
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return nil, err
	}
	if existing, err := s.resolver.FindByEmployeeID(ctx, row.EmployeeID); err == nil {
		return duplicateOf(row, repository.FieldEmployeeID, existing), nil
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return nil, err
	}
	return nil, nil
}

func (s *ImportService) createAccount(ctx context.Context, row importer.Row) (*CreatedEntry, *DuplicateEntry, error) {
	password, err := auth.GeneratePassword(s.passwordPrefix, generatedPasswordSuffixLen)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	cred := &domain.Credential{
		Name:         row.Name,
		Email:        row.Email,
		EmployeeID:   row.EmployeeID,
		PasswordHash: hash,
		Department:   row.Department,
		Campus:       row.Campus,
		Phone:        row.Phone,
		Subject:      row.Subject,
		Subjects:     row.Subjects,
		Active:       true,
	}
	if err := s.faculty.Create(ctx, cred); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return nil, &DuplicateEntry{Row: row.Line, Reason: conflict.Field, UploadData: row}, nil
		}
		return nil, nil, err
	}

	entry := &CreatedEntry{Row: row.Line, Profile: cred.Profile(), EmailSent: true}
	msg, err := mail.FacultyCredentials(cred.Name, cred.Email, cred.EmployeeID, password)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Warn("credentials email failed", zap.String("employee_id", cred.EmployeeID), zap.Error(err))
		entry.EmailSent = false
		entry.EmailError = "credentials email could not be sent"
	}
	return entry, nil, nil
}

// CommitFacultyUploads upserts staging records keyed by employee id.
func (s *ImportService) CommitFacultyUploads(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	rows, err := readRoster(filename, r)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{Invalid: []InvalidEntry{}, Failed: []FailedEntry{}}
	now := time.Now().UTC()
	for _, row := range rows {
		if !row.Valid {
			result.Invalid = append(result.Invalid, InvalidEntry{Row: row.Line, Data: row, Errors: row.Errors})
			continue
		}
		if ctx.Err() != nil {
			result.Failed = append(result.Failed, FailedEntry{Row: row.Line, Data: row, Reason: failureInterrupted})
			continue
		}
		hours := row.MaxHoursPerDay
		if hours == 0 {
			hours = domain.DefaultMaxHoursPerDay
		}
		upload := &domain.FacultyUpload{
			Name:           row.Name,
			Email:          row.Email,
			EmployeeID:     row.EmployeeID,
			Department:     row.Department,
			Subject:        row.Subject,
			Subjects:       row.Subjects,
			Campus:         row.Campus,
			Phone:          row.Phone,
			MaxHoursPerDay: hours,
			Active:         true,
			UploadedAt:     now,
		}
		if err := s.uploads.Upsert(ctx, upload); err != nil {
			result.Failed = append(result.Failed, s.failedRow(ctx, row, err))
			continue
		}
		result.Upserted++
	}
	s.logger.Info("faculty roster uploaded",
		zap.String("file", filename),
		zap.Int("upserted", result.Upserted),
		zap.Int("invalid", len(result.Invalid)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func duplicateOf(row importer.Row, reason string, existing *Identity) *DuplicateEntry {
	profile := existing.Credential.Profile()
	return &DuplicateEntry{Row: row.Line, Reason: reason, UploadData: row, ExistingData: &profile}
}

func readRoster(filename string, r io.Reader) ([]importer.Row, error) {
	rows, err := importer.Read(filename, r)
	if err == nil {
		return rows, nil
	}
	var missing *importer.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"missingColumns": missing.Columns})
	case errors.Is(err, importer.ErrUnsupportedFormat), errors.Is(err, importer.ErrEmptyFile):
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	return nil, apperrors.NewValidationError("could not parse file", map[string]any{"file": err.Error()})
}
