package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/team-registration/internal/auth"
	"github.com/Shivanand-hulikatti/team-registration/internal/logging"
	"github.com/Shivanand-hulikatti/team-registration/internal/model"
	"github.com/Shivanand-hulikatti/team-registration/internal/repository"
	"github.com/Shivanand-hulikatti/team-registration/internal/service"
)

func TestParse(t *testing.T) {
	tests := []struct {
		content string
		want    Command
		wantErr error
	}{
		{content: "!reg #TeamAwesome #4", want: Command{Name: "TeamAwesome", Count: 4}},
		{content: "  !reg   #Owls\t#18  ", want: Command{Name: "Owls", Count: 18}},
		{content: "!reg #Owls #0", wantErr: ErrBadCount},
		{content: "!reg #Owls #99999999999999999999999", wantErr: ErrBadCount},
		{content: "!reg #Owls #-3", wantErr: ErrBadFormat},
		{content: "!reg Owls 3", wantErr: ErrBadFormat},
		{content: "!reg #Night Owls #3", wantErr: ErrBadFormat},
		{content: "!reg #Owls #3 extra", wantErr: ErrBadFormat},
		{content: "!reg", wantErr: ErrBadFormat},
		{content: "!register #Owls #3", wantErr: ErrNotCommand},
		{content: "hello there", wantErr: ErrNotCommand},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got, err := Parse(tt.content)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func setupHandler(t *testing.T, maxCapacity int, admins ...string) (*Handler, *service.RegistrationEngine) {
	t.Helper()
	engine := service.NewRegistrationEngine(
		repository.NewRegistrationStore(nil),
		repository.NewActivityLog(nil),
		model.EventConfig{MaxCapacity: maxCapacity},
	)
	return NewHandler(engine, auth.NewDirectory(admins), logging.Discard()), engine
}

func send(t *testing.T, h *Handler, author, content string) string {
	t.Helper()
	reply, ok := h.Handle(context.Background(), Message{AuthorID: author, AuthorLabel: author + "#0001", Content: content})
	require.True(t, ok, "message should be handled")
	return reply
}

func TestHandler_CreateAndUpdate(t *testing.T) {
	h, engine := setupHandler(t, 96)

	reply := send(t, h, "u1", "!reg #Owls #4")
	assert.Equal(t, "Successfully registered team \"Owls\" with 4 participants.\nRemaining spots: 92/96", reply)

	reg, err := engine.FindByName("owls")
	require.NoError(t, err)
	assert.Equal(t, "u1#0001", reg.OwnerLabel)

	reply = send(t, h, "u1", "!reg #OWLS #6")
	assert.Equal(t, "Updated registration for team \"Owls\" from 4 to 6 participants.", reply)
	assert.Equal(t, 6, engine.Stats().CurrentCount)
	assert.Len(t, engine.List(), 1)
}

func TestHandler_NameHeldByAnotherUser(t *testing.T) {
	h, engine := setupHandler(t, 96)
	send(t, h, "u1", "!reg #Owls #4")

	reply := send(t, h, "u2", "!reg #owls #2")
	assert.Equal(t, "A team with the name \"owls\" is already registered by another user.", reply)
	assert.Equal(t, 4, engine.Stats().CurrentCount)
}

func TestHandler_Rejections(t *testing.T) {
	h, _ := setupHandler(t, 10, "admin")

	assert.Equal(t, "Participant count must be between 1 and 18", send(t, h, "u1", "!reg #Big #19"))

	send(t, h, "u1", "!reg #Owls #6")
	assert.Equal(t, "Non-admin users can only register one team", send(t, h, "u1", "!reg #Larks #1"))
	assert.Equal(t, "Cannot register 5 participants. Only 4 spots available.", send(t, h, "u2", "!reg #Larks #5"))

	send(t, h, "admin", "!reg #A1 #2")
	assert.Contains(t, send(t, h, "admin", "!reg #A2 #1"), "Successfully registered team \"A2\"")
}

func TestHandler_BadInput(t *testing.T) {
	h, _ := setupHandler(t, 96)

	assert.Equal(t, replyUsage, send(t, h, "u1", "!reg Owls 4"))
	assert.Equal(t, replyBadCount, send(t, h, "u1", "!reg #Owls #0"))

	_, ok := h.Handle(context.Background(), Message{AuthorID: "u1", Content: "good morning"})
	assert.False(t, ok)
}

func TestHandler_Ready(t *testing.T) {
	h, engine := setupHandler(t, 96)

	require.NoError(t, h.Ready(context.Background(), "srv-1", "Gamers"))
	cfg := engine.Config()
	assert.Equal(t, "srv-1", cfg.ServerID)
	assert.Equal(t, "Gamers", cfg.ServerLabel)
	assert.Equal(t, 96, cfg.MaxCapacity)
}
