package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/models"
	"github.com/noah-isme/campus-gate-api/internal/observability"
	"github.com/noah-isme/campus-gate-api/internal/passtoken"
	"github.com/noah-isme/campus-gate-api/internal/repository"
)

var (
	// ErrInvalidCredential indicates a token that is malformed, forged or unknown.
	ErrInvalidCredential = errors.New("invalid gate pass")
	// ErrCredentialExpired indicates a gate pass whose validity window has closed.
	ErrCredentialExpired = errors.New("gate pass expired")
	// ErrAlreadyUsed indicates a gate pass that was already scanned.
	ErrAlreadyUsed = errors.New("gate pass already used")
	// ErrStatusMismatch indicates the pass action does not fit the student's campus status.
	ErrStatusMismatch = errors.New("gate pass does not match current campus status")
	// ErrDuplicatePendingPass indicates the student already holds a live pass.
	ErrDuplicatePendingPass = errors.New("a pending gate pass already exists")
	// ErrDestinationRequired indicates an exit pass was requested without a destination.
	ErrDestinationRequired = errors.New("destination is required to leave campus")
	// ErrHolderNotFound indicates the student does not exist or is inactive.
	ErrHolderNotFound = errors.New("student not found")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxRemarksLen   = 200

	defaultOverrideRemarks = "Manual override by admin"
)

// PassTokenCodec mints and verifies signed pass tokens.
type PassTokenCodec interface {
	Mint(claims passtoken.Claims, validity time.Duration) (string, passtoken.Claims, error)
	Verify(token string) (passtoken.Claims, error)
}

// QRRenderer renders a token as an image data URL.
type QRRenderer interface {
	DataURL(content string) (string, error)
}

// GatePassOptions carries the optional collaborators of the gate pass service.
type GatePassOptions struct {
	Validity time.Duration
	QR       QRRenderer
	Events   GateEventPublisher
	Activity ActivityRecorder
	Now      func() time.Time
}

// GatePassService issues, redeems and overrides campus gate passes.
type GatePassService interface {
	Issue(ctx context.Context, studentID uint, req dto.GatePassIssueRequest) (dto.GatePassIssueResponse, error)
	Redeem(ctx context.Context, operatorID uint, req dto.GatePassScanRequest) (dto.GateScanResponse, error)
	Override(ctx context.Context, actor ActivityActor, req dto.GateOverrideRequest) (dto.GatePassResponse, error)
	CurrentStatus(ctx context.Context, studentID uint) (dto.GateStatusResponse, error)
	ListMine(ctx context.Context, studentID uint, req dto.GatePassListRequest) (dto.GatePassListResponse, error)
	ListAll(ctx context.Context, req dto.GatePassListRequest) (dto.GatePassListResponse, error)
	ActiveStudents(ctx context.Context, req dto.ActiveStudentsRequest) (dto.ActiveStudentsResponse, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type gatePassService struct {
	passes    repository.GatePassRepository
	students  repository.StudentRepository
	holders   repository.HolderStatusRepository
	codec     PassTokenCodec
	validity  time.Duration
	qr        QRRenderer
	events    GateEventPublisher
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGatePassService constructs the gate pass service.
func NewGatePassService(
	passes repository.GatePassRepository,
	students repository.StudentRepository,
	holders repository.HolderStatusRepository,
	codec PassTokenCodec,
	validate *validator.Validate,
	logger zerolog.Logger,
	opts GatePassOptions,
) GatePassService {
	validity := opts.Validity
	if validity <= 0 {
		validity = 10 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &gatePassService{
		passes:    passes,
		students:  students,
		holders:   holders,
		codec:     codec,
		validity:  validity,
		qr:        opts.QR,
		events:    opts.Events,
		activity:  opts.Activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "gate_pass_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/campus-gate-api/internal/service/gate_pass"),
		now:       now,
	}
}

func (s *gatePassService) Issue(ctx context.Context, studentID uint, req dto.GatePassIssueRequest) (dto.GatePassIssueResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gate_pass.issue")
	defer span.End()
	span.SetAttributes(attribute.Int64("student.id", int64(studentID)))

	if err := s.validator.Struct(req); err != nil {
		return dto.GatePassIssueResponse{}, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GatePassIssueResponse{}, ErrHolderNotFound
		}
		return dto.GatePassIssueResponse{}, s.fail(span, "load student", err)
	}
	if !student.IsActive {
		return dto.GatePassIssueResponse{}, ErrHolderNotFound
	}

	action := models.ActionFor(student.Status())
	destination := models.EntryDestination
	if action == models.PassActionExit {
		destination = s.clean(req.Destination)
		if destination == "" {
			return dto.GatePassIssueResponse{}, ErrDestinationRequired
		}
	}
	span.SetAttributes(attribute.String("gate_pass.action", string(action)))

	now := s.now().UTC()

	existing, err := s.passes.FindPendingByStudent(ctx, student.ID)
	switch {
	case err == nil:
		if !existing.IsExpiredAt(now) {
			return dto.GatePassIssueResponse{}, ErrDuplicatePendingPass
		}
		if _, err := s.passes.MarkExpired(ctx, existing.ID); err != nil {
			return dto.GatePassIssueResponse{}, s.fail(span, "expire stale pass", err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.GatePassIssueResponse{}, s.fail(span, "find pending pass", err)
	}

	token, claims, err := s.codec.Mint(passtoken.Claims{
		HolderID:    student.ID,
		Action:      string(action),
		Destination: destination,
		IssuedAt:    now,
	}, s.validity)
	if err != nil {
		return dto.GatePassIssueResponse{}, s.fail(span, "mint token", err)
	}

	pass := models.GatePass{
		StudentID:   student.ID,
		Holder:      student.Snapshot(),
		Destination: destination,
		Action:      action,
		Status:      models.PassStatusPending,
		Token:       token,
		IssuedAt:    claims.IssuedAt,
		ExpiresAt:   claims.ExpiresAt,
	}
	if err := s.passes.Create(ctx, &pass); err != nil {
		if errors.Is(err, repository.ErrPendingPassExists) {
			return dto.GatePassIssueResponse{}, ErrDuplicatePendingPass
		}
		return dto.GatePassIssueResponse{}, s.fail(span, "persist pass", err)
	}

	response := dto.GatePassIssueResponse{
		Pass:            dto.NewGatePassResponse(pass),
		Token:           token,
		ValidForSeconds: int(s.validity / time.Second),
	}
	if s.qr != nil {
		qr, err := s.qr.DataURL(token)
		if err != nil {
			s.logger.Warn().Err(err).Uint("pass_id", pass.ID).Msg("failed to render gate pass qr")
		} else {
			response.QRCode = qr
		}
	}

	observability.GatePassesIssued().WithLabelValues(string(action)).Inc()
	s.notify(ctx, GateEvent{
		Type:        GateEventIssued,
		PassID:      pass.ID,
		StudentID:   pass.StudentID,
		Action:      pass.Action,
		Destination: pass.Destination,
		Status:      student.Status(),
		OccurredAt:  now,
	})
	s.logger.Info().
		Uint("pass_id", pass.ID).
		Uint("student_id", student.ID).
		Str("action", string(action)).
		Time("expires_at", pass.ExpiresAt).
		Msg("gate pass issued")

	return response, nil
}

func (s *gatePassService) Redeem(ctx context.Context, operatorID uint, req dto.GatePassScanRequest) (dto.GateScanResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gate_pass.redeem")
	defer span.End()
	span.SetAttributes(attribute.Int64("operator.id", int64(operatorID)))

	response, outcome, err := s.redeem(ctx, operatorID, req)
	observability.GatePassScans().WithLabelValues(outcome).Inc()
	if err != nil {
		span.SetStatus(codes.Error, outcome)
		s.logger.Warn().Err(err).Uint("operator_id", operatorID).Str("outcome", outcome).Msg("gate pass scan rejected")
		return dto.GateScanResponse{}, err
	}

	s.logger.Info().
		Uint("pass_id", response.Pass.ID).
		Uint("student_id", response.Student.ID).
		Uint("operator_id", operatorID).
		Str("event", response.Event).
		Msg("gate pass redeemed")
	return response, nil
}

func (s *gatePassService) redeem(ctx context.Context, operatorID uint, req dto.GatePassScanRequest) (dto.GateScanResponse, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GateScanResponse{}, "invalid", err
	}

	claims, err := s.codec.Verify(strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, passtoken.ErrExpired) {
			return dto.GateScanResponse{}, "expired", ErrCredentialExpired
		}
		return dto.GateScanResponse{}, "invalid", ErrInvalidCredential
	}

	pass, err := s.passes.FindByToken(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GateScanResponse{}, "invalid", ErrInvalidCredential
		}
		return dto.GateScanResponse{}, "error", fmt.Errorf("find pass: %w", err)
	}
	if pass.StudentID != claims.HolderID || string(pass.Action) != claims.Action {
		return dto.GateScanResponse{}, "invalid", ErrInvalidCredential
	}

	switch pass.Status {
	case models.PassStatusProcessed:
		return dto.GateScanResponse{}, "already_used", ErrAlreadyUsed
	case models.PassStatusExpired:
		return dto.GateScanResponse{}, "expired", ErrCredentialExpired
	}

	now := s.now().UTC()
	if pass.IsExpiredAt(now) {
		if _, err := s.passes.MarkExpired(ctx, pass.ID); err != nil {
			return dto.GateScanResponse{}, "error", fmt.Errorf("expire pass: %w", err)
		}
		return dto.GateScanResponse{}, "expired", ErrCredentialExpired
	}

	holder, err := s.holders.Get(ctx, pass.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GateScanResponse{}, "holder_missing", ErrHolderNotFound
		}
		return dto.GateScanResponse{}, "error", fmt.Errorf("load holder status: %w", err)
	}
	if !holder.IsActive {
		return dto.GateScanResponse{}, "holder_missing", ErrHolderNotFound
	}

	from := holder.CurrentStatus
	if models.ActionFor(from) != pass.Action {
		return s.resolveMismatch(ctx, pass.ID)
	}
	to := pass.Action.Target()

	remarks := truncate(s.clean(req.Remarks), maxRemarksLen)
	err = s.passes.Redeem(ctx, repository.RedeemParams{
		PassID:      pass.ID,
		StudentID:   pass.StudentID,
		From:        from,
		To:          to,
		ProcessedBy: operatorID,
		ProcessedAt: now,
		Remarks:     remarks,
	})
	switch {
	case errors.Is(err, repository.ErrPassNotPending):
		return s.resolveLostRace(ctx, pass.ID)
	case errors.Is(err, repository.ErrHolderStatusChanged):
		return s.resolveMismatch(ctx, pass.ID)
	case err != nil:
		return dto.GateScanResponse{}, "error", fmt.Errorf("redeem pass: %w", err)
	}

	pass.Status = models.PassStatusProcessed
	pass.ProcessedBy = &operatorID
	pass.ProcessedAt = &now
	pass.Remarks = remarks

	event := GateEventExit
	message := "Student exited campus"
	if pass.Action == models.PassActionEnter {
		event = GateEventEnter
		message = "Student entered campus"
	}

	s.notify(ctx, GateEvent{
		Type:        event,
		PassID:      pass.ID,
		StudentID:   pass.StudentID,
		Action:      pass.Action,
		Destination: pass.Destination,
		Status:      to,
		OperatorID:  &operatorID,
		OccurredAt:  now,
	})

	return dto.GateScanResponse{
		Event:   event,
		Message: message,
		Student: holderFromSnapshot(pass, to),
		Pass:    dto.NewGatePassResponse(pass),
	}, event, nil
}

// resolveLostRace classifies a redemption whose status-guarded update matched nothing.
func (s *gatePassService) resolveLostRace(ctx context.Context, passID uint) (dto.GateScanResponse, string, error) {
	current, err := s.passes.GetByID(ctx, passID)
	if err != nil {
		return dto.GateScanResponse{}, "error", fmt.Errorf("reload pass: %w", err)
	}
	if current.Status == models.PassStatusProcessed {
		return dto.GateScanResponse{}, "already_used", ErrAlreadyUsed
	}
	if _, err := s.passes.MarkExpired(ctx, passID); err != nil {
		return dto.GateScanResponse{}, "error", fmt.Errorf("expire pass: %w", err)
	}
	return dto.GateScanResponse{}, "expired", ErrCredentialExpired
}

// resolveMismatch reports AlreadyUsed when the holder moved because a concurrent scan
// of this very pass won, and StatusMismatch otherwise.
func (s *gatePassService) resolveMismatch(ctx context.Context, passID uint) (dto.GateScanResponse, string, error) {
	current, err := s.passes.GetByID(ctx, passID)
	if err != nil {
		return dto.GateScanResponse{}, "error", fmt.Errorf("reload pass: %w", err)
	}
	if current.Status == models.PassStatusProcessed {
		return dto.GateScanResponse{}, "already_used", ErrAlreadyUsed
	}
	return dto.GateScanResponse{}, "status_mismatch", ErrStatusMismatch
}

func (s *gatePassService) Override(ctx context.Context, actor ActivityActor, req dto.GateOverrideRequest) (dto.GatePassResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gate_pass.override")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.GatePassResponse{}, err
	}
	span.SetAttributes(
		attribute.Int64("student.id", int64(req.StudentID)),
		attribute.String("gate_pass.action", req.Action),
	)

	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GatePassResponse{}, ErrHolderNotFound
		}
		return dto.GatePassResponse{}, s.fail(span, "load student", err)
	}
	if !student.IsActive {
		return dto.GatePassResponse{}, ErrHolderNotFound
	}

	action := models.PassAction(req.Action)
	destination := s.clean(req.Destination)
	if destination == "" {
		destination = models.OverrideDestination
	}
	remarks := truncate(s.clean(req.Remarks), maxRemarksLen)
	if remarks == "" {
		remarks = defaultOverrideRemarks
	}

	// An override supersedes whatever pass the student was still holding.
	if pending, err := s.passes.FindPendingByStudent(ctx, student.ID); err == nil {
		if _, err := s.passes.MarkExpired(ctx, pending.ID); err != nil {
			return dto.GatePassResponse{}, s.fail(span, "expire superseded pass", err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.GatePassResponse{}, s.fail(span, "find pending pass", err)
	}

	now := s.now().UTC()
	adminID := actor.ID
	pass := models.GatePass{
		StudentID:   student.ID,
		Holder:      student.Snapshot(),
		Destination: destination,
		Action:      action,
		Status:      models.PassStatusProcessed,
		Token:       models.OverrideTokenPrefix + uuid.NewString(),
		IssuedAt:    now,
		ExpiresAt:   now,
		ProcessedBy: &adminID,
		ProcessedAt: &now,
		Remarks:     remarks,
	}
	if err := s.passes.RecordOverride(ctx, &pass); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GatePassResponse{}, ErrHolderNotFound
		}
		return dto.GatePassResponse{}, s.fail(span, "record override", err)
	}

	if s.activity != nil {
		passID := pass.ID
		_, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActivityGateOverride,
			EntityType: models.ActivityEntityGatePass,
			EntityID:   &passID,
			Metadata: map[string]interface{}{
				"student_id":      student.ID,
				"action":          string(action),
				"previous_status": string(student.Status()),
				"new_status":      string(action.Target()),
				"remarks":         remarks,
			},
		})
		if err != nil {
			s.logger.Error().Err(err).Uint("pass_id", pass.ID).Msg("failed to audit gate override")
		}
	}

	s.notify(ctx, GateEvent{
		Type:        GateEventOverride,
		PassID:      pass.ID,
		StudentID:   student.ID,
		Action:      action,
		Destination: destination,
		Status:      action.Target(),
		OperatorID:  &adminID,
		OccurredAt:  now,
	})
	s.logger.Info().
		Uint("pass_id", pass.ID).
		Uint("student_id", student.ID).
		Uint("admin_id", actor.ID).
		Str("status", string(action.Target())).
		Msg("gate status overridden")

	return dto.NewGatePassResponse(pass), nil
}

func (s *gatePassService) CurrentStatus(ctx context.Context, studentID uint) (dto.GateStatusResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GateStatusResponse{}, ErrHolderNotFound
		}
		return dto.GateStatusResponse{}, err
	}

	response := dto.GateStatusResponse{CurrentStatus: string(student.Status())}

	latest, err := s.passes.LatestByStudent(ctx, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response, nil
		}
		return dto.GateStatusResponse{}, err
	}

	if latest.Status == models.PassStatusPending && latest.IsExpiredAt(s.now().UTC()) {
		if _, err := s.passes.MarkExpired(ctx, latest.ID); err != nil {
			return dto.GateStatusResponse{}, err
		}
		latest.Status = models.PassStatusExpired
	}

	pass := dto.NewGatePassResponse(latest)
	response.LastPass = &pass
	return response, nil
}

func (s *gatePassService) ListMine(ctx context.Context, studentID uint, req dto.GatePassListRequest) (dto.GatePassListResponse, error) {
	req.StudentID = &studentID
	req.Department = ""
	req.Year = ""
	return s.ListAll(ctx, req)
}

func (s *gatePassService) ListAll(ctx context.Context, req dto.GatePassListRequest) (dto.GatePassListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GatePassListResponse{}, err
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	passes, total, err := s.passes.List(ctx, repository.GatePassFilter{
		StudentID:  req.StudentID,
		Action:     models.PassAction(req.Action),
		Status:     models.PassStatus(req.Status),
		Department: strings.TrimSpace(req.Department),
		Year:       strings.TrimSpace(req.Year),
		IssuedFrom: req.IssuedFrom,
		IssuedTo:   req.IssuedTo,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return dto.GatePassListResponse{}, err
	}

	return dto.GatePassListResponse{
		Items:      dto.NewGatePassResponseSlice(passes),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *gatePassService) ActiveStudents(ctx context.Context, req dto.ActiveStudentsRequest) (dto.ActiveStudentsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActiveStudentsResponse{}, err
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	students, total, err := s.holders.List(ctx, repository.HolderStatusFilter{
		Status:     models.CampusStatusIn,
		Department: strings.TrimSpace(req.Department),
		Year:       strings.TrimSpace(req.Year),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return dto.ActiveStudentsResponse{}, err
	}

	items := make([]dto.HolderStatusResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewHolderStatusResponse(student))
	}

	return dto.ActiveStudentsResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

// ExpireStale sweeps pending passes whose validity window has closed.
func (s *gatePassService) ExpireStale(ctx context.Context) (int64, error) {
	expired, err := s.passes.ExpireStale(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info().Int64("expired", expired).Msg("expired stale gate passes")
	}
	return expired, nil
}

func (s *gatePassService) notify(ctx context.Context, event GateEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Uint("pass_id", event.PassID).Msg("failed to publish gate event")
	}
}

func (s *gatePassService) fail(span trace.Span, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	s.logger.Error().Err(err).Str("stage", stage).Msg("gate pass operation failed")
	return fmt.Errorf("%s: %w", stage, err)
}

// clean strips markup from free text while keeping literal characters such as '&'.
func (s *gatePassService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func holderFromSnapshot(pass models.GatePass, status models.CampusStatus) dto.HolderStatusResponse {
	return dto.HolderStatusResponse{
		ID:            pass.StudentID,
		Name:          pass.Holder.Name,
		RollNumber:    pass.Holder.RollNumber,
		StudentCode:   pass.Holder.StudentCode,
		Department:    pass.Holder.Department,
		Year:          pass.Holder.Year,
		Phone:         pass.Holder.Phone,
		CurrentStatus: string(status),
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
