package moderation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/models"
	"go.uber.org/zap"
)

// Admin notices inserted as regular messages by the warn-capable actions.
const (
	noticeUnblocked = "AVISO: Tu cuenta ha sido desbloqueada por el administrador. " +
		"Tu acceso a la plataforma ha sido restituido. Sin embargo, tienes prohibido " +
		"comunicarte con el otro participante de la conversacion infractora. " +
		"Cualquier reincidencia tendra consecuencias disciplinarias graves."
	noticeChatDeleted = "AVISO: El historial de tu conversacion inapropiada ha sido " +
		"eliminado por el administrador. Tu cuenta ha sido desbloqueada, pero no " +
		"podras comunicarte con el otro participante."
	noticeWarning = "ADVERTENCIA: Un mensaje tuyo fue marcado por contenido " +
		"inapropiado y esta siendo revisado. Cuida el lenguaje que usas en la plataforma."
)

type UserStore interface {
	Unblock(id uuid.UUID) error
	UnblockMany(ids []uuid.UUID) error
}

type PairStore interface {
	Unblock(a, b uuid.UUID) error
}

type MessageStore interface {
	Create(message *models.Message) error
	DeleteConversation(a, b uuid.UUID) (int64, error)
}

type FlagStore interface {
	GetByID(id uuid.UUID) (*models.FlaggedMessage, error)
	MarkReviewed(id, reviewerID uuid.UUID) error
}

type Publisher interface {
	PublishMessage(message interface{}) error
	PublishBlock(update models.BlockUpdate) error
}

// Actions are the admin-invoked transitions on a flagged message. Each
// variant is a compound operation over user blocks, the pair block, the
// message store and the flag's review metadata, and each one finishes by
// marking the flag reviewed. Sub-operation failures are collected and
// reported together rather than assumed to have succeeded.
type Actions struct {
	users     UserStore
	pairs     PairStore
	messages  MessageStore
	flags     FlagStore
	publisher Publisher
	logger    *zap.Logger
}

func NewActions(
	users UserStore,
	pairs PairStore,
	messages MessageStore,
	flags FlagStore,
	publisher Publisher,
	logger *zap.Logger,
) *Actions {
	return &Actions{
		users:     users,
		pairs:     pairs,
		messages:  messages,
		flags:     flags,
		publisher: publisher,
		logger:    logger,
	}
}

// UnblockSender releases only the sender's account. Used when a single
// party was auto-blocked and the conversation itself is not the problem.
func (a *Actions) UnblockSender(flagID, adminID uuid.UUID) error {
	flag, err := a.flags.GetByID(flagID)
	if err != nil {
		return err
	}

	var errs []error
	if err := a.users.Unblock(flag.SenderID); err != nil {
		errs = append(errs, fmt.Errorf("unblock sender: %w", err))
	} else {
		a.publishUnblock(flag.SenderID)
	}

	return a.finish(flagID, adminID, errs)
}

// UnblockBoth releases both accounts but leaves the pair block standing:
// both regain platform access and still cannot message each other. Each
// party receives the admin notice.
func (a *Actions) UnblockBoth(flagID, adminID uuid.UUID) error {
	flag, err := a.flags.GetByID(flagID)
	if err != nil {
		return err
	}

	var errs []error
	if err := a.users.UnblockMany([]uuid.UUID{flag.SenderID, flag.ReceiverID}); err != nil {
		errs = append(errs, fmt.Errorf("unblock users: %w", err))
	} else {
		a.publishUnblock(flag.SenderID)
		a.publishUnblock(flag.ReceiverID)
	}

	errs = append(errs, a.notifyBoth(adminID, flag, noticeUnblocked)...)

	return a.finish(flagID, adminID, errs)
}

// DeleteConversationAndUnblock wipes the entire message history between the
// pair (both orderings), then releases both accounts. The pair block stays.
func (a *Actions) DeleteConversationAndUnblock(flagID, adminID uuid.UUID) error {
	flag, err := a.flags.GetByID(flagID)
	if err != nil {
		return err
	}

	var errs []error
	deleted, err := a.messages.DeleteConversation(flag.SenderID, flag.ReceiverID)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete conversation: %w", err))
	} else {
		a.logger.Info("conversation deleted by moderation",
			zap.String("flag_id", flagID.String()),
			zap.Int64("messages_deleted", deleted),
		)
	}

	if err := a.users.UnblockMany([]uuid.UUID{flag.SenderID, flag.ReceiverID}); err != nil {
		errs = append(errs, fmt.Errorf("unblock users: %w", err))
	} else {
		a.publishUnblock(flag.SenderID)
		a.publishUnblock(flag.ReceiverID)
	}

	errs = append(errs, a.notifyBoth(adminID, flag, noticeChatDeleted)...)

	return a.finish(flagID, adminID, errs)
}

// FalseAlarm fully restores the pair: both accounts unblocked and the pair
// block removed, so they may freely resume messaging.
func (a *Actions) FalseAlarm(flagID, adminID uuid.UUID) error {
	flag, err := a.flags.GetByID(flagID)
	if err != nil {
		return err
	}

	var errs []error
	if err := a.users.UnblockMany([]uuid.UUID{flag.SenderID, flag.ReceiverID}); err != nil {
		errs = append(errs, fmt.Errorf("unblock users: %w", err))
	} else {
		a.publishUnblock(flag.SenderID)
		a.publishUnblock(flag.ReceiverID)
	}

	if err := a.pairs.Unblock(flag.SenderID, flag.ReceiverID); err != nil {
		errs = append(errs, fmt.Errorf("unblock pair: %w", err))
	}

	return a.finish(flagID, adminID, errs)
}

// Warn inserts the warning notice to the sender without changing any block
// state. Purely additive.
func (a *Actions) Warn(flagID, adminID uuid.UUID) error {
	flag, err := a.flags.GetByID(flagID)
	if err != nil {
		return err
	}

	if err := a.notify(adminID, flag.SenderID, noticeWarning); err != nil {
		return fmt.Errorf("send warning: %w", err)
	}

	return a.finish(flagID, adminID, nil)
}

// MarkReviewed records the review with no other action.
func (a *Actions) MarkReviewed(flagID, adminID uuid.UUID) error {
	return a.finish(flagID, adminID, nil)
}

func (a *Actions) finish(flagID, adminID uuid.UUID, errs []error) error {
	if err := a.flags.MarkReviewed(flagID, adminID); err != nil {
		errs = append(errs, fmt.Errorf("mark reviewed: %w", err))
	}
	return errors.Join(errs...)
}

func (a *Actions) notifyBoth(adminID uuid.UUID, flag *models.FlaggedMessage, content string) []error {
	var errs []error
	for _, target := range []uuid.UUID{flag.SenderID, flag.ReceiverID} {
		if err := a.notify(adminID, target, content); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", target, err))
		}
	}
	return errs
}

func (a *Actions) notify(adminID, receiverID uuid.UUID, content string) error {
	message := &models.Message{
		ID:         uuid.New(),
		SenderID:   adminID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	if err := a.messages.Create(message); err != nil {
		return err
	}

	if err := a.publisher.PublishMessage(models.WSMessage{
		Event:   models.EventMessageNew,
		Payload: message,
	}); err != nil {
		a.logger.Warn("failed to publish admin notice", zap.Error(err))
	}

	return nil
}

func (a *Actions) publishUnblock(userID uuid.UUID) {
	if err := a.publisher.PublishBlock(models.BlockUpdate{
		UserID:    userID,
		Blocked:   false,
		ChangedAt: time.Now(),
	}); err != nil {
		a.logger.Warn("failed to publish unblock event", zap.Error(err))
	}
}
