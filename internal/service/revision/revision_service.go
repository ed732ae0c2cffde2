package revision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Domenick1991/roombooking/internal/audit"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/service/booking"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RevisionUseCase interface {
	CreateRevision(ctx context.Context, input domain.RevisionInput, requester domain.Actor) (*domain.RevisionRequest, error)
	ListRevisions(ctx context.Context, filter domain.RevisionFilter) ([]domain.RevisionRequest, error)
	GetRevision(ctx context.Context, id string) (*domain.RevisionRequest, error)
	ApproveRevision(ctx context.Context, id string, approver domain.Actor) (*Approval, error)
	RejectRevision(ctx context.Context, id string, approver domain.Actor) (*domain.RevisionRequest, error)
}

// Approval is the outcome of approving a request. Merged is true when an
// existing booking was overwritten rather than a new one created.
type Approval struct {
	Request *domain.RevisionRequest `json:"request"`
	Booking *domain.Booking         `json:"booking"`
	Merged  bool                    `json:"merged"`
}

// SlotScope runs a booking write inside the (room, date) serialisation scope.
type SlotScope interface {
	Run(ctx context.Context, roomID, date string, fn repository.SlotTxFunc) error
}

type RevisionService struct {
	revisions repository.RevisionRepository
	scope     SlotScope
	resolver  booking.ConflictResolver
	audit     audit.Recorder
	log       logrus.FieldLogger
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

type RevisionServiceOption func(*RevisionService)

func WithAudit(recorder audit.Recorder) RevisionServiceOption {
	return func(s *RevisionService) {
		s.audit = recorder
	}
}

func WithLogger(log logrus.FieldLogger) RevisionServiceOption {
	return func(s *RevisionService) {
		s.log = log
	}
}

// WithRequestTimeout bounds calls whose context has no deadline.
func WithRequestTimeout(timeout time.Duration) RevisionServiceOption {
	return func(s *RevisionService) {
		s.timeout = timeout
	}
}

func NewRevisionService(revisions repository.RevisionRepository, scope SlotScope, opts ...RevisionServiceOption) *RevisionService {
	s := &RevisionService{
		revisions: revisions,
		scope:     scope,
		audit:     audit.Nop{},
		log:       logrus.StandardLogger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRevision registers a proposal. No conflict check runs here: contesting
// a held slot is the purpose of a revision request.
func (s *RevisionService) CreateRevision(ctx context.Context, input domain.RevisionInput, requester domain.Actor) (*domain.RevisionRequest, error) {
	if requester.ID == "" {
		return nil, domain.Unauthorized("")
	}
	if err := checkInput(input); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := booking.CheckSlotShape(input.TimeSlots); err != nil {
		return nil, err
	}
	date, err := domain.NormalizeDate(input.Date)
	if err != nil {
		return nil, err
	}

	req := &domain.RevisionRequest{
		ID:                s.newID(),
		RoomID:            input.RoomID,
		RoomNumber:        input.RoomNumber,
		RoomName:          strings.TrimSpace(input.RoomName),
		Date:              date,
		TimeSlots:         append([]string(nil), input.TimeSlots...),
		Responsible:       strings.TrimSpace(input.Responsible),
		ServiceType:       strings.TrimSpace(input.ServiceType),
		Justification:     strings.TrimSpace(input.Justification),
		RequestedByUserID: requester.ID,
		RequestedByName:   requester.Name,
		Status:            domain.RevisionStatusOpen,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.revisions.Create(ctx, req); err != nil {
		return nil, s.fail(err)
	}

	s.log.WithFields(logrus.Fields{
		"operation":   "create_revision",
		"revision_id": req.ID,
		"room_id":     req.RoomID,
		"date":        req.Date,
		"actor_id":    requester.ID,
	}).Info("revision request created")
	s.audit.Record(ctx, requester, domain.ActionCreateRevision,
		fmt.Sprintf("revision requested for %s on %s", req.RoomName, req.Date), fmt.Sprintf("Sala %d", req.RoomNumber))
	return req, nil
}

func (s *RevisionService) ListRevisions(ctx context.Context, filter domain.RevisionFilter) ([]domain.RevisionRequest, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	list, err := s.revisions.List(ctx, filter)
	if err != nil {
		return nil, s.fail(err)
	}
	return list, nil
}

func (s *RevisionService) GetRevision(ctx context.Context, id string) (*domain.RevisionRequest, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	req, err := s.revisions.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	return req, nil
}

// ApproveRevision is an administrative override. It does not run the booking
// validation pipeline: the first confirmed booking overlapping the proposal on
// its room and date is overwritten in place, otherwise a new confirmed booking
// is created. The request is claimed inside the same slot scope as the booking
// write, after the booking decision has been made.
func (s *RevisionService) ApproveRevision(ctx context.Context, id string, approver domain.Actor) (*Approval, error) {
	if err := requireAdmin(approver); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := s.revisions.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	if req.Status.Terminal() {
		return nil, alreadyClosed(req)
	}
	date, err := domain.NormalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	reviewedAt := s.now().UTC()
	result := &Approval{}
	err = s.scope.Run(ctx, req.RoomID, date, func(ctx context.Context, tx repository.BookingRepository) error {
		existing, err := tx.ListByRoomAndDate(ctx, req.RoomID, date)
		if err != nil {
			return err
		}

		var write func(context.Context) error
		holder, _ := booking.FindConflict(existing, req.TimeSlots, "")
		if holder == nil {
			created := s.bookingFromRevision(req, date)
			result.Booking = created
			write = func(ctx context.Context) error { return tx.Create(ctx, created) }
		} else {
			if stored, err := domain.NormalizeDate(holder.Date); err != nil || stored != date {
				s.log.WithFields(logrus.Fields{
					"revision_id": id,
					"booking_id":  holder.ID,
					"stored_date": holder.Date,
					"date":        date,
				}).Warn("overlapping booking date does not match revision date")
			}
			// the merged slots must not reach into a third booking
			if err := s.resolver.Check(ctx, tx, req.RoomID, date, req.TimeSlots, holder.ID); err != nil {
				return err
			}

			merged := holder.Clone()
			merged.Date = date
			merged.TimeSlots = append([]string(nil), req.TimeSlots...)
			merged.Responsible = req.Responsible
			merged.ServiceType = req.ServiceType
			merged.Status = domain.BookingStatusConfirmed
			result.Booking = &merged
			result.Merged = true
			write = func(ctx context.Context) error { return tx.Update(ctx, &merged) }
		}

		claimed, err := s.revisions.Transition(ctx, id, domain.RevisionStatusOpen, domain.RevisionStatusApproved, approver.Name, &reviewedAt)
		if err != nil {
			return err
		}
		result.Request = claimed
		// once claimed the write is not abandoned on cancellation
		return write(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, s.closedOrFail(ctx, id, err)
	}

	s.log.WithFields(logrus.Fields{
		"operation":   "approve_revision",
		"revision_id": id,
		"booking_id":  result.Booking.ID,
		"merged":      result.Merged,
		"actor_id":    approver.ID,
	}).Info("revision request approved")
	s.audit.Record(ctx, approver, domain.ActionApproveRevision,
		fmt.Sprintf("revision %s approved for %s on %s", id, req.RoomName, date), fmt.Sprintf("Sala %d", req.RoomNumber))
	return result, nil
}

// RejectRevision closes the request without touching any booking.
func (s *RevisionService) RejectRevision(ctx context.Context, id string, approver domain.Actor) (*domain.RevisionRequest, error) {
	if err := requireAdmin(approver); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	reviewedAt := s.now().UTC()
	req, err := s.revisions.Transition(ctx, id, domain.RevisionStatusOpen, domain.RevisionStatusRejected, approver.Name, &reviewedAt)
	if err != nil {
		return nil, s.closedOrFail(ctx, id, err)
	}

	s.log.WithFields(logrus.Fields{"operation": "reject_revision", "revision_id": id, "actor_id": approver.ID}).Info("revision request rejected")
	s.audit.Record(ctx, approver, domain.ActionRejectRevision,
		fmt.Sprintf("revision %s rejected for %s on %s", id, req.RoomName, req.Date), fmt.Sprintf("Sala %d", req.RoomNumber))
	return req, nil
}

func (s *RevisionService) bookingFromRevision(req *domain.RevisionRequest, date string) *domain.Booking {
	return &domain.Booking{
		ID:          s.newID(),
		RoomID:      req.RoomID,
		RoomNumber:  req.RoomNumber,
		RoomName:    req.RoomName,
		Date:        date,
		TimeSlots:   append([]string(nil), req.TimeSlots...),
		Responsible: req.Responsible,
		ServiceType: req.ServiceType,
		CreatedBy:   req.RequestedByName,
		CreatedAt:   s.now().UTC(),
		Status:      domain.BookingStatusConfirmed,
	}
}

func (s *RevisionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *RevisionService) closedOrFail(ctx context.Context, id string, err error) error {
	if !errors.Is(err, repository.ErrRevisionClosed) {
		return s.fail(err)
	}
	current, findErr := s.revisions.FindByID(ctx, id)
	if findErr != nil {
		return s.fail(findErr)
	}
	return alreadyClosed(current)
}

func (s *RevisionService) fail(err error) error {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFound("revision request not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.Internal("request timed out", err)
	}
	s.log.WithError(err).Error("revision store failure")
	return domain.Internal("", err)
}

func requireAdmin(actor domain.Actor) error {
	if actor.ID == "" {
		return domain.Unauthorized("")
	}
	if !actor.HasRole(domain.RoleAdmin) {
		return domain.Forbidden("")
	}
	return nil
}

func alreadyClosed(req *domain.RevisionRequest) error {
	return domain.BadRequest(fmt.Sprintf("revision request already %s", req.Status), map[string]any{
		"revisionId": req.ID,
		"status":     req.Status,
	})
}

func checkInput(in domain.RevisionInput) error {
	var missing []string
	for field, value := range map[string]string{
		"roomId":        in.RoomID,
		"roomName":      in.RoomName,
		"date":          in.Date,
		"responsible":   in.Responsible,
		"serviceType":   in.ServiceType,
		"justification": in.Justification,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if in.RoomNumber <= 0 {
		missing = append(missing, "roomNumber")
	}
	if len(in.TimeSlots) == 0 {
		missing = append(missing, "timeSlots")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return domain.BadRequest("missing required fields", map[string]any{"fields": missing})
	}
	return nil
}

var _ RevisionUseCase = (*RevisionService)(nil)
