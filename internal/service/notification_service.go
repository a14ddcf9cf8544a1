package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/events"
	"github.com/spec-kit/schedulo/internal/mail"
	"github.com/spec-kit/schedulo/internal/repository"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// NotificationService tells faculty about their invigilation duties over sockets and email.
type NotificationService struct {
	allocations repository.AllocationRepository
	faculty     repository.CredentialRepository
	uploads     repository.FacultyUploadRepository
	dispatcher  events.Dispatcher
	mailer      mail.Mailer
	logger      *zap.Logger
}

// NotificationDependencies encapsulates repo requirements for the notification service.
type NotificationDependencies struct {
	Allocations repository.AllocationRepository
	Faculty     repository.CredentialRepository
	Uploads     repository.FacultyUploadRepository
	Dispatcher  events.Dispatcher
	Mailer      mail.Mailer
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		allocations: deps.Allocations,
		faculty:     deps.Faculty,
		uploads:     deps.Uploads,
		dispatcher:  deps.Dispatcher,
		mailer:      deps.Mailer,
		logger:      logger,
	}
}

// NotifyFailure explains why an allocation was not fully notified.
type NotifyFailure struct {
	AllocationID string `json:"allocationId"`
	Reason       string `json:"reason"`
}

// NotifyResult summarizes a notification run.
type NotifyResult struct {
	Notified   int             `json:"notified"`
	EmailsSent int             `json:"emailsSent"`
	Skipped    int             `json:"skipped"`
	Failures   []NotifyFailure `json:"failures"`
}

// recipient is who an allocation is addressed to. Rooms covers both the id the allocation
// names and the credential id the faculty member logs in with.
type recipient struct {
	name  string
	email string
	rooms []string
}

// NotifyAllocations publishes an event per allocation to its faculty member, emails them,
// and finally tells admins and HODs the run is complete.
func (s *NotificationService) NotifyAllocations(ctx context.Context, allocationIDs []string, updated bool) (*NotifyResult, error) {
	if len(allocationIDs) == 0 {
		return nil, apperrors.NewValidationError("allocationIds is required", map[string]any{"allocationIds": "required"})
	}

	eventType := events.EventAllocationCreated
	if updated {
		eventType = events.EventAllocationUpdated
	}

	result := &NotifyResult{Failures: []NotifyFailure{}}
	for _, id := range allocationIDs {
		alloc, err := s.allocations.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			result.Skipped++
			result.Failures = append(result.Failures, NotifyFailure{AllocationID: id, Reason: "allocation not found"})
			continue
		}
		if err != nil {
			return nil, err
		}

		rcpt, err := s.recipientFor(ctx, alloc.FacultyID)
		if err != nil {
			return nil, err
		}

		event := events.Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			Rooms:     rcpt.rooms,
			Timestamp: time.Now().UTC(),
			Payload: events.AllocationPayload{
				AllocationID: alloc.ID,
				FacultyID:    alloc.FacultyID,
				ExamName:     alloc.ExamName,
				ExamDate:     alloc.ExamDate,
				Room:         alloc.Room,
				Shift:        alloc.Shift,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("allocation event not published", zap.String("allocation_id", alloc.ID), zap.Error(err))
			result.Failures = append(result.Failures, NotifyFailure{AllocationID: alloc.ID, Reason: "realtime publish failed"})
		} else {
			result.Notified++
		}

		if rcpt.email == "" {
			result.Failures = append(result.Failures, NotifyFailure{AllocationID: alloc.ID, Reason: "no email on record"})
			continue
		}
		if err := s.sendNotice(ctx, rcpt, alloc, updated); err != nil {
			s.logger.Warn("allocation email failed", zap.String("allocation_id", alloc.ID), zap.String("to", mail.MaskAddress(rcpt.email)), zap.Error(err))
			result.Failures = append(result.Failures, NotifyFailure{AllocationID: alloc.ID, Reason: "email failed"})
			continue
		}
		result.EmailsSent++
	}

	complete := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAllocationComplete,
		Rooms:     []string{events.RoleRoom(domain.RoleAdmin), events.RoleRoom(domain.RoleHOD)},
		Timestamp: time.Now().UTC(),
		Payload:   events.AllocationCompletePayload{Notified: result.Notified, Skipped: result.Skipped},
	}
	if err := s.dispatcher.Publish(ctx, complete); err != nil {
		s.logger.Warn("allocation-complete event not published", zap.Error(err))
	}
	return result, nil
}

func (s *NotificationService) recipientFor(ctx context.Context, facultyID string) (*recipient, error) {
	rcpt := &recipient{rooms: []string{events.UserRoom(facultyID)}}

	cred, err := s.faculty.GetByID(ctx, facultyID)
	if err == nil {
		rcpt.name, rcpt.email = cred.Name, cred.Email
		return rcpt, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	upload, err := s.uploads.GetByID(ctx, facultyID)
	if errors.Is(err, repository.ErrNotFound) {
		return rcpt, nil
	}
	if err != nil {
		return nil, err
	}
	rcpt.name, rcpt.email = upload.Name, NormalizeEmail(upload.Email)

	cred, err = s.faculty.GetByEmail(ctx, rcpt.email)
	if err == nil {
		rcpt.rooms = append(rcpt.rooms, events.UserRoom(cred.ID))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return rcpt, nil
}

func (s *NotificationService) sendNotice(ctx context.Context, rcpt *recipient, alloc *domain.Allocation, updated bool) error {
	msg, err := mail.AllocationNotice(rcpt.name, rcpt.email, alloc.ExamName, alloc.ExamDate, alloc.Room, alloc.Shift, updated)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}
