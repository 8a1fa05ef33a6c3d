package moderation

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	blocked    map[uuid.UUID]bool
	unblockErr error
}

func (f *fakeUsers) Unblock(id uuid.UUID) error {
	if f.unblockErr != nil {
		return f.unblockErr
	}
	f.blocked[id] = false
	return nil
}

func (f *fakeUsers) UnblockMany(ids []uuid.UUID) error {
	if f.unblockErr != nil {
		return f.unblockErr
	}
	for _, id := range ids {
		f.blocked[id] = false
	}
	return nil
}

type fakePairs struct {
	blocked map[[2]uuid.UUID]bool
	err     error
}

func (f *fakePairs) Unblock(a, b uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	x, y := models.NormalizePair(a, b)
	delete(f.blocked, [2]uuid.UUID{x, y})
	return nil
}

func (f *fakePairs) isBlocked(a, b uuid.UUID) bool {
	x, y := models.NormalizePair(a, b)
	return f.blocked[[2]uuid.UUID{x, y}]
}

type fakeMessages struct {
	store     []*models.Message
	createErr error
}

func (f *fakeMessages) Create(m *models.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.store = append(f.store, m)
	return nil
}

func (f *fakeMessages) DeleteConversation(a, b uuid.UUID) (int64, error) {
	var kept []*models.Message
	var deleted int64
	for _, m := range f.store {
		between := (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
		if between {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	f.store = kept
	return deleted, nil
}

type fakeFlags struct {
	flags       map[uuid.UUID]*models.FlaggedMessage
	reviewedErr error
}

func (f *fakeFlags) GetByID(id uuid.UUID) (*models.FlaggedMessage, error) {
	flag, ok := f.flags[id]
	if !ok {
		return nil, errors.New("flagged message not found")
	}
	return flag, nil
}

func (f *fakeFlags) MarkReviewed(id, reviewerID uuid.UUID) error {
	if f.reviewedErr != nil {
		return f.reviewedErr
	}
	flag := f.flags[id]
	flag.Reviewed = true
	flag.ReviewedBy = &reviewerID
	return nil
}

type fakePublisher struct {
	messages []interface{}
	blocks   []models.BlockUpdate
}

func (f *fakePublisher) PublishMessage(m interface{}) error { f.messages = append(f.messages, m); return nil }
func (f *fakePublisher) PublishBlock(b models.BlockUpdate) error {
	f.blocks = append(f.blocks, b)
	return nil
}

type fixture struct {
	actions   *Actions
	users     *fakeUsers
	pairs     *fakePairs
	messages  *fakeMessages
	flags     *fakeFlags
	publisher *fakePublisher
	flagID    uuid.UUID
	adminID   uuid.UUID
	sender    uuid.UUID
	receiver  uuid.UUID
}

// newFixture reproduces the state right after the gate flagged a message:
// both parties blocked, pair blocked, conversation history present.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	sender := uuid.New()
	receiver := uuid.New()
	flagID := uuid.New()
	adminID := uuid.New()

	users := &fakeUsers{blocked: map[uuid.UUID]bool{sender: true, receiver: true}}

	a, b := models.NormalizePair(sender, receiver)
	pairs := &fakePairs{blocked: map[[2]uuid.UUID]bool{{a, b}: true}}

	messages := &fakeMessages{store: []*models.Message{
		{ID: uuid.New(), SenderID: sender, ReceiverID: receiver, Content: "hola"},
		{ID: uuid.New(), SenderID: receiver, ReceiverID: sender, Content: "hola!"},
		{ID: uuid.New(), SenderID: sender, ReceiverID: receiver, Content: "te amo"},
	}}

	flags := &fakeFlags{flags: map[uuid.UUID]*models.FlaggedMessage{
		flagID: {
			ID:           flagID,
			SenderID:     sender,
			ReceiverID:   receiver,
			Content:      "te amo",
			MatchedWords: []string{"te amo"},
			Category:     models.CategorySexual,
		},
	}}

	publisher := &fakePublisher{}

	return &fixture{
		actions:   NewActions(users, pairs, messages, flags, publisher, zap.NewNop()),
		users:     users,
		pairs:     pairs,
		messages:  messages,
		flags:     flags,
		publisher: publisher,
		flagID:    flagID,
		adminID:   adminID,
		sender:    sender,
		receiver:  receiver,
	}
}

func TestUnblockSender(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.actions.UnblockSender(f.flagID, f.adminID))

	assert.False(t, f.users.blocked[f.sender])
	assert.True(t, f.users.blocked[f.receiver], "receiver untouched")
	assert.True(t, f.pairs.isBlocked(f.sender, f.receiver), "pair block untouched")
	assert.True(t, f.flags.flags[f.flagID].Reviewed)
	assert.Equal(t, &f.adminID, f.flags.flags[f.flagID].ReviewedBy)
}

func TestUnblockBoth_KeepsPairBlocked(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.actions.UnblockBoth(f.flagID, f.adminID))

	assert.False(t, f.users.blocked[f.sender])
	assert.False(t, f.users.blocked[f.receiver])
	assert.True(t, f.pairs.isBlocked(f.sender, f.receiver), "pair must stay blocked")
	assert.True(t, f.flags.flags[f.flagID].Reviewed)

	// Both parties got the admin notice.
	notices := 0
	for _, m := range f.messages.store {
		if m.SenderID == f.adminID {
			notices++
		}
	}
	assert.Equal(t, 2, notices)
}

func TestDeleteConversationAndUnblock(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.actions.DeleteConversationAndUnblock(f.flagID, f.adminID))

	// Only the two admin notices remain between the users.
	for _, m := range f.messages.store {
		pairMsg := m.SenderID != f.adminID &&
			((m.SenderID == f.sender && m.ReceiverID == f.receiver) ||
				(m.SenderID == f.receiver && m.ReceiverID == f.sender))
		assert.False(t, pairMsg, "conversation history must be gone, found %q", m.Content)
	}

	assert.False(t, f.users.blocked[f.sender])
	assert.False(t, f.users.blocked[f.receiver])
	assert.True(t, f.pairs.isBlocked(f.sender, f.receiver), "pair block persists")
	assert.True(t, f.flags.flags[f.flagID].Reviewed)
}

func TestFalseAlarm_RestoresEverything(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.actions.FalseAlarm(f.flagID, f.adminID))

	assert.False(t, f.users.blocked[f.sender])
	assert.False(t, f.users.blocked[f.receiver])
	assert.False(t, f.pairs.isBlocked(f.sender, f.receiver), "pair block removed")
	assert.True(t, f.flags.flags[f.flagID].Reviewed)
}

func TestWarn_OnlyAddsNotice(t *testing.T) {
	f := newFixture(t)
	before := len(f.messages.store)

	require.NoError(t, f.actions.Warn(f.flagID, f.adminID))

	assert.Len(t, f.messages.store, before+1)
	assert.True(t, f.users.blocked[f.sender], "warn does not unblock")
	assert.True(t, f.pairs.isBlocked(f.sender, f.receiver))
	assert.True(t, f.flags.flags[f.flagID].Reviewed)
}

func TestMarkReviewed_BookkeepingOnly(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.actions.MarkReviewed(f.flagID, f.adminID))

	assert.True(t, f.flags.flags[f.flagID].Reviewed)
	assert.True(t, f.users.blocked[f.sender])
	assert.True(t, f.pairs.isBlocked(f.sender, f.receiver))
}

func TestUnblockBoth_PartialFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.users.unblockErr = errors.New("db down")

	err := f.actions.UnblockBoth(f.flagID, f.adminID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unblock users")

	// Review still recorded so the admin sees the combined failure, not a
	// silently half-applied action.
	assert.True(t, f.flags.flags[f.flagID].Reviewed)
}

func TestActions_UnknownFlag(t *testing.T) {
	f := newFixture(t)

	err := f.actions.FalseAlarm(uuid.New(), f.adminID)
	assert.Error(t, err)
}

func TestUnblockEvents_Published(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.actions.FalseAlarm(f.flagID, f.adminID))

	require.Len(t, f.publisher.blocks, 2)
	for _, b := range f.publisher.blocks {
		assert.False(t, b.Blocked)
	}
}
