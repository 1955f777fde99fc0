package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/authz"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/textnorm"
)

const (
	MsgEmptyQuery = "Me diga o que você quer saber. Ex: 'pedidos pendentes'."
	MsgForbidden  = "A IA do SmartBiz está disponível apenas para usuários ADMIN."
)

var ErrForbidden = errors.New("assistant: forbidden")

type Authorizer interface {
	Allows(roleSlug string, tenantID string, object string, action string) (bool, error)
}

type ChatService struct {
	Extractor *Extractor
	Composer  *Composer
	Authz     Authorizer
	Logger    *slog.Logger
}

func NewChatService(ex *Extractor, co *Composer, az Authorizer) *ChatService {
	return &ChatService{Extractor: ex, Composer: co, Authz: az, Logger: slog.New(slog.DiscardHandler)}
}

func (s *ChatService) Chat(ctx context.Context, tenantID string, role string, message string) (types.Answer, error) {
	in, err := s.Extractor.Extract(message)
	if errors.Is(err, ErrEmptyQuery) {
		return types.Answer{}, err
	}

	if s.Authz != nil {
		ok, azErr := s.Authz.Allows(role, tenantID, authz.ObjectAssistantChat, authz.ActionUse)
		if azErr != nil {
			return types.Answer{}, fmt.Errorf("assistant: authorize: %w", azErr)
		}
		if !ok {
			return types.Answer{}, ErrForbidden
		}
	}

	if errors.Is(err, ErrNoIntent) {
		s.Logger.InfoContext(ctx, "assistant: no intent", "tenant_id", tenantID)
		return types.Answer{Answer: HelpText()}, nil
	}

	answer, err := s.Composer.Compose(ctx, tenantID, in)
	if err != nil {
		s.Logger.ErrorContext(ctx, "assistant: compose failed", "tenant_id", tenantID, "error", err)
		return types.Answer{}, err
	}
	s.Logger.InfoContext(ctx, "assistant: answered",
		"tenant_id", tenantID,
		"domains", s.Extractor.Lexicon.Matched(textnorm.Normalize(message)),
		"status_filter", string(in.StatusFilter),
		"stock_limit", in.StockLimit,
	)
	return types.Answer{Answer: answer}, nil
}
