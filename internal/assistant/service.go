package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/logger"
)

// Actor identifies the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ChatReply is the response body of a chat turn.
type ChatReply struct {
	Reply string `json:"reply"`
}

// Service answers chat messages with order context for the caller.
type Service interface {
	Chat(ctx context.Context, actor Actor, sessionID, message string) (*ChatReply, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type orderReader interface {
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]orders.OrderDTO, error)
	Stats(ctx context.Context) (orders.Stats, error)
}

type conversationMemory interface {
	Load(ctx context.Context, userID, sessionID string) ([]Message, error)
	Append(ctx context.Context, userID, sessionID string, messages ...Message) error
}

type chatClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ServiceParams bundles the assistant dependencies. Client may be nil when no API key is configured.
type ServiceParams struct {
	Users  userLoader
	Orders orderReader
	Memory conversationMemory
	Client chatClient
	Logger *logger.Logger
}

type service struct {
	users  userLoader
	orders orderReader
	memory conversationMemory
	client chatClient
	logg   *logger.Logger
}

// NewService validates dependencies and returns an assistant service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user loader is required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reader is required")
	}
	if params.Memory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation memory is required")
	}
	return &service{
		users:  params.Users,
		orders: params.Orders,
		memory: params.Memory,
		client: params.Client,
		logg:   params.Logger,
	}, nil
}

func (s *service) Chat(ctx context.Context, actor Actor, sessionID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Empty message")
	}
	if s.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assistant unavailable")
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	system, err := s.systemPrompt(ctx, actor, user)
	if err != nil {
		return nil, err
	}

	userKey := actor.UserID.String()
	history, err := s.memory.Load(ctx, userKey, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: message})

	start := time.Now()
	reply, err := s.client.Complete(ctx, messages)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assistant unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assistant provider failed")
	}

	if err := s.memory.Append(ctx, userKey, sessionID,
		Message{Role: RoleUser, Content: message},
		Message{Role: RoleAssistant, Content: reply},
	); err != nil {
		// the reply is still returned; the turn is only missing from history
		s.warn(ctx, "assistant.memory_append_failed", err)
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"history_len": len(history),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		s.logg.Info(logCtx, "assistant.replied")
	}
	return &ChatReply{Reply: reply}, nil
}

// systemPrompt gives order statistics to admins only; staff and customers get
// the customer prompt with their own recent orders.
func (s *service) systemPrompt(ctx context.Context, actor Actor, user *models.User) (string, error) {
	if actor.Role == enums.UserRoleAdmin {
		stats, err := s.orders.Stats(ctx)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order stats")
		}
		return AdminPrompt(user, stats), nil
	}
	recent, err := s.orders.Recent(ctx, actor.UserID, CustomerRecentOrders)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent orders")
	}
	return CustomerPrompt(user, recent), nil
}

func (s *service) warn(ctx context.Context, event string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "error", fmt.Sprint(err))
	s.logg.Warn(ctx, event)
}
