package meeting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/entity"
	"resido/internal/core/id"
	"resido/internal/core/tx"
	"resido/pkg/logger"
)

// Repository persists meeting requests.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetForUpdate(ctx context.Context, requestID id.ID) (*Request, error)
	SaveDecision(ctx context.Context, r *Request) error
	// List returns requests newest first; a nil residentID lists everyone's.
	List(ctx context.Context, residentID *id.ID, status Status) ([]*Request, error)
}

// Service manages meeting requests.
type Service struct {
	repo      Repository
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates the meeting service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txManager: txm, now: time.Now}
}

func principalID(ctx context.Context) (id.ID, error) {
	u := appctx.GetUser(ctx)
	if u == nil {
		return id.Nil(), apperror.NewUnauthorized("authentication required")
	}
	principal, err := id.Parse(u.UserID)
	if err != nil {
		return id.Nil(), apperror.NewUnauthorized("invalid principal")
	}
	return principal, nil
}

// RequestInput is what a resident submits.
type RequestInput struct {
	Subject      string
	Message      string
	RequestedFor time.Time
}

// Request files a meeting request for the calling resident.
func (s *Service) Request(ctx context.Context, in RequestInput) (*Request, error) {
	if appctx.GetClass(ctx) != appctx.ClassResident {
		return nil, apperror.NewForbidden("only residents can request meetings")
	}
	residentID, err := principalID(ctx)
	if err != nil {
		return nil, err
	}

	r := &Request{
		Base:         entity.NewBase(),
		ResidentID:   residentID,
		Subject:      strings.TrimSpace(in.Subject),
		Message:      strings.TrimSpace(in.Message),
		RequestedFor: in.RequestedFor.UTC(),
		Status:       StatusPending,
	}
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}
	if !r.RequestedFor.After(s.now()) {
		return nil, apperror.NewValidation("requested time must be in the future").WithDetail("field", "requestedFor")
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create meeting request: %w", err)
	}
	logger.Info(ctx, "meeting requested", "request_id", r.ID.String(), "requested_for", r.RequestedFor)
	return r, nil
}

// List returns every request to administrators and their own to residents.
func (s *Service) List(ctx context.Context, status Status) ([]*Request, error) {
	if status != "" && status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, apperror.NewInvalidFilterValue("status", "status", string(status), "pending, approved or rejected")
	}

	switch appctx.GetClass(ctx) {
	case appctx.ClassAdmin:
		return s.repo.List(ctx, nil, status)
	case appctx.ClassResident:
		residentID, err := principalID(ctx)
		if err != nil {
			return nil, err
		}
		return s.repo.List(ctx, &residentID, status)
	}
	return nil, apperror.NewForbidden("meeting requests are visible to administrators and residents")
}

// Decide approves or rejects a pending request as the calling administrator.
func (s *Service) Decide(ctx context.Context, requestID id.ID, status Status, note string) (*Request, error) {
	if !appctx.HasClass(ctx, appctx.ClassAdmin) {
		return nil, apperror.NewForbidden("only administrators decide meeting requests")
	}
	adminID, err := principalID(ctx)
	if err != nil {
		return nil, err
	}

	var decided *Request
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := r.Decide(status, adminID, note, s.now().UTC()); err != nil {
			return err
		}
		if err := s.repo.SaveDecision(ctx, r); err != nil {
			return fmt.Errorf("save decision: %w", err)
		}
		decided = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "meeting request decided", "request_id", requestID.String(), "status", string(status))
	return decided, nil
}
