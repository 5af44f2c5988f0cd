package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/team-registration/internal/auth"
	"github.com/Shivanand-hulikatti/team-registration/internal/model"
	"github.com/Shivanand-hulikatti/team-registration/internal/quota"
	"github.com/Shivanand-hulikatti/team-registration/internal/repository"
	"github.com/Shivanand-hulikatti/team-registration/internal/service"
)

// Reply texts.
const (
	replyUsage = "Invalid format. Please use: `!reg #TeamName #NumberOfParticipants`\n" +
		"Example: `!reg #TeamAwesome #4`"
	replyBadCount = "The number of participants must be a positive number."
	replyFailed   = "An error occurred while processing your registration. Please try again later."
)

// Registrar is the slice of the registration engine the chat handler uses.
type Registrar interface {
	Create(ctx context.Context, p service.CreateParams) (*model.Registration, error)
	Update(ctx context.Context, id int64, count int) (*model.Registration, error)
	FindByName(name string) (*model.Registration, error)
	Stats() model.Stats
	UpdateConfig(ctx context.Context, patch model.EventConfigPatch) (model.EventConfig, error)
}

// Roles resolves a chat author to an identity.
type Roles interface {
	Resolve(ownerID, ownerLabel string) auth.Identity
}

// Message is an incoming chat message.
type Message struct {
	AuthorID    string
	AuthorLabel string
	Content     string
}

// Handler answers registration commands.
type Handler struct {
	engine Registrar
	roles  Roles
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(engine Registrar, roles Roles, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, roles: roles, logger: logger}
}

// Handle processes one message. ok is false when the message is not a
// registration command and should be ignored.
func (h *Handler) Handle(ctx context.Context, msg Message) (reply string, ok bool) {
	cmd, err := Parse(msg.Content)
	switch {
	case errors.Is(err, ErrNotCommand):
		return "", false
	case errors.Is(err, ErrBadCount):
		return replyBadCount, true
	case err != nil:
		return replyUsage, true
	}

	who := h.roles.Resolve(msg.AuthorID, msg.AuthorLabel)

	// A name the author already holds is an update; any other name is a
	// create, which the engine rejects if someone else holds it.
	if existing, err := h.engine.FindByName(cmd.Name); err == nil && existing.OwnerID == who.OwnerID {
		return h.update(ctx, existing, cmd.Count), true
	}
	return h.create(ctx, who, cmd), true
}

// Ready records the chat server the gateway connected to.
func (h *Handler) Ready(ctx context.Context, serverID, serverLabel string) error {
	if _, err := h.engine.UpdateConfig(ctx, model.EventConfigPatch{
		ServerID:    &serverID,
		ServerLabel: &serverLabel,
	}); err != nil {
		return fmt.Errorf("record chat server: %w", err)
	}
	h.logger.Info("chat gateway ready", "server_id", serverID, "server_label", serverLabel)
	return nil
}

func (h *Handler) create(ctx context.Context, who auth.Identity, cmd Command) string {
	reg, err := h.engine.Create(ctx, service.CreateParams{
		Name:       cmd.Name,
		Count:      cmd.Count,
		OwnerID:    who.OwnerID,
		OwnerLabel: who.OwnerLabel,
		Privileged: who.Privileged,
	})
	if err != nil {
		if errors.Is(err, quota.ErrDuplicateName) {
			return fmt.Sprintf("A team with the name %q is already registered by another user.", cmd.Name)
		}
		return h.failure("create", cmd.Name, err)
	}

	stats := h.engine.Stats()
	return fmt.Sprintf("Successfully registered team %q with %d participants.\nRemaining spots: %d/%d",
		reg.Name, reg.Count, stats.AvailableSpots, stats.MaxCapacity)
}

func (h *Handler) update(ctx context.Context, existing *model.Registration, count int) string {
	reg, err := h.engine.Update(ctx, existing.ID, count)
	if err != nil {
		return h.failure("update", existing.Name, err)
	}
	return fmt.Sprintf("Updated registration for team %q from %d to %d participants.",
		reg.Name, existing.Count, reg.Count)
}

func (h *Handler) failure(op, name string, err error) string {
	if rej, ok := quota.AsRejection(err); ok {
		return rej.Detail
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Sprintf("The team %q no longer exists.", name)
	}
	if errors.Is(err, service.ErrInvalidInput) {
		return replyUsage
	}
	h.logger.Error("chat registration failed", "op", op, "name", name, "error", err)
	return replyFailed
}
