package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/model"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/pkg/mailer"
	"metrocare-be/internal/repository/specification"
	"metrocare-be/internal/repository/unitofwork"
	"metrocare-be/pkg/events"
	pktNats "metrocare-be/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const notificationModule = "NotificationService"

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
	Broadcast(notification model.Notification)
}

type recipientTarget string

const (
	targetStaff    recipientTarget = "STAFF"
	targetReporter recipientTarget = "REPORTER"
)

type notificationRoute struct {
	target   recipientTarget
	title    string
	template string
}

var notificationRoutes = map[string]notificationRoute{
	events.ReportCreated: {
		target:   targetStaff,
		title:    "New report",
		template: "New {category} report submitted: {title}",
	},
	events.ReportStatusChanged: {
		target:   targetReporter,
		title:    "Report status updated",
		template: "Your report \"{title}\" moved from {old_status} to {new_status}",
	},
	events.ReportVoted: {
		target:   targetReporter,
		title:    "New upvote",
		template: "Your report \"{title}\" received an upvote ({upvotes} total)",
	},
}

type NotificationService struct {
	uowFactory   unitofwork.RepositoryFactory
	subscriber   *pktNats.Subscriber
	delivery     NotificationDelivery
	emailService mailer.IEmailService
	logger       logger.ILogger
}

// NewNotificationService wires the inbox. subscriber and emailService may be nil.
func NewNotificationService(
	uowFactory unitofwork.RepositoryFactory,
	sub *pktNats.Subscriber,
	delivery NotificationDelivery,
	emailService mailer.IEmailService,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		uowFactory:   uowFactory,
		subscriber:   sub,
		delivery:     delivery,
		emailService: emailService,
		logger:       log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Warn(notificationModule, "Event bus not configured, notifications disabled", nil)
		return nil
	}
	if err := s.subscriber.Subscribe(ctx, "events.>", "notif-service-worker", s.HandleEvent); err != nil {
		return fmt.Errorf("start notification subscriber: %w", err)
	}
	s.logger.Info(notificationModule, "Notification service started, listening to events.>", nil)
	return nil
}

// HandleEvent persists one inbox entry per recipient and pushes it live.
// The actor of an event is never notified about their own action.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	route, ok := notificationRoutes[typeCode]
	if !ok {
		s.logger.Debug(notificationModule, "No route for event", map[string]interface{}{"type": typeCode})
		return nil
	}
	if typeCode == events.ReportVoted {
		if voted, _ := event.Payload()["voted"].(bool); !voted {
			return nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	recipients, err := s.resolveRecipients(ctx, uow, route, event)
	if err != nil {
		s.logger.Error(notificationModule, "Error resolving recipients", map[string]interface{}{
			"type":  typeCode,
			"error": err.Error(),
		})
		return err
	}

	for _, userID := range recipients {
		notif := s.buildNotification(userID, typeCode, route, event)

		if err := uow.NotificationRepository().CreateNotification(ctx, &notif); err != nil {
			s.logger.Error(notificationModule, "Error saving notification", map[string]interface{}{
				"user_id": userID.String(),
				"error":   err.Error(),
			})
			continue
		}

		if s.delivery != nil {
			s.delivery.Send(userID, notif)
		}
	}

	if typeCode == events.ReportStatusChanged {
		s.emailReporter(ctx, uow, event)
	}

	return nil
}

func (s *NotificationService) resolveRecipients(ctx context.Context, uow unitofwork.UnitOfWork, route notificationRoute, event events.Event) ([]uuid.UUID, error) {
	actorID, _ := uuid.Parse(events.String(event, "actor_id"))

	var candidates []uuid.UUID
	switch route.target {
	case targetStaff:
		staff, err := uow.NotificationRepository().GetUserIDsByRoles(ctx,
			string(entity.UserRoleAdmin), string(entity.UserRoleModerator))
		if err != nil {
			return nil, err
		}
		candidates = staff
	case targetReporter:
		reporterID, err := uuid.Parse(events.String(event, "reporter_id"))
		if err != nil {
			s.logger.Warn(notificationModule, "Event without reporter_id", map[string]interface{}{"type": event.EventType()})
			return nil, nil
		}
		candidates = []uuid.UUID{reporterID}
	}

	recipients := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	return recipients, nil
}

func (s *NotificationService) buildNotification(userID uuid.UUID, typeCode string, route notificationRoute, event events.Event) model.Notification {
	payload := event.Payload()

	msg := route.template
	for k, v := range payload {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%s}", k), fmt.Sprintf("%v", v))
	}

	var actorID *uuid.UUID
	if aid, err := uuid.Parse(events.String(event, "actor_id")); err == nil {
		actorID = &aid
	}

	var entityID *uuid.UUID
	metaMap := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		metaMap[k] = v
	}
	if rid, err := uuid.Parse(events.String(event, "report_id")); err == nil {
		entityID = &rid
		metaMap["action_url"] = fmt.Sprintf("/reports/%s", rid.String())
	}
	metaJSON, _ := json.Marshal(metaMap)

	return model.Notification{
		ID:         uuid.New(),
		UserID:     userID,
		ActorID:    actorID,
		TypeCode:   typeCode,
		EntityType: "report",
		EntityID:   entityID,
		Title:      route.title,
		Message:    msg,
		Metadata:   datatypes.JSON(metaJSON),
		IsRead:     false,
		CreatedAt:  time.Now(),
	}
}

func (s *NotificationService) emailReporter(ctx context.Context, uow unitofwork.UnitOfWork, event events.Event) {
	if s.emailService == nil {
		return
	}
	reporterID, err := uuid.Parse(events.String(event, "reporter_id"))
	if err != nil || events.String(event, "actor_id") == reporterID.String() {
		return
	}

	reporter, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: reporterID})
	if err != nil || reporter == nil || reporter.Email == nil || *reporter.Email == "" {
		return
	}

	// Delivery failures are logged by the mailer; the inbox entry already exists.
	_ = s.emailService.SendStatusUpdate(*reporter.Email, mailer.StatusUpdateMail{
		ReportId:    events.String(event, "report_id"),
		ReportTitle: events.String(event, "title"),
		OldStatus:   events.String(event, "old_status"),
		NewStatus:   events.String(event, "new_status"),
		Message:     events.String(event, "message"),
	})
}

// GetNotifications fetches notifications for a user.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().GetNotificationsByUserID(ctx, userID, limit, offset)
}

// GetUnreadCount fetches unread count.
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().GetUnreadCount(ctx, userID)
}

// MarkAsRead marks one of the user's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().MarkAsRead(ctx, userID, id)
}

// MarkAllAsRead marks all notifications as read for a user.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().MarkAllAsRead(ctx, userID)
}

// Broadcast pushes a live system message to every connected client. It is not
// stored in any inbox.
func (s *NotificationService) Broadcast(title, message string) model.Notification {
	notif := model.Notification{
		ID:        uuid.New(),
		TypeCode:  "SYSTEM_BROADCAST",
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if s.delivery != nil {
		s.delivery.Broadcast(notif)
	}
	return notif
}
