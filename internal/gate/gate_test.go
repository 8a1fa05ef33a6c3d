package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// In-memory fakes standing in for the Postgres-backed stores.

type fakeUsers struct {
	users map[uuid.UUID]*models.User
	err   error
}

func (f *fakeUsers) GetByID(id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

type fakePairs struct {
	blocked map[[2]uuid.UUID]bool
	err     error
}

func (f *fakePairs) IsBlocked(a, b uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	x, y := models.NormalizePair(a, b)
	return f.blocked[[2]uuid.UUID{x, y}], nil
}

func (f *fakePairs) block(a, b uuid.UUID) {
	x, y := models.NormalizePair(a, b)
	f.blocked[[2]uuid.UUID{x, y}] = true
}

type fakeMessages struct {
	created []*models.Message
	err     error
}

func (f *fakeMessages) Create(m *models.Message) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, m)
	return nil
}

// fakeViolations mimics the transactional write: on success it mutates the
// user map and pair set the way the real transaction would.
type fakeViolations struct {
	users    *fakeUsers
	pairs    *fakePairs
	messages *fakeMessages
	flags    []*models.FlaggedMessage
	err      error
}

func (f *fakeViolations) Record(_ context.Context, m *models.Message, flag *models.FlaggedMessage, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.messages.created = append(f.messages.created, m)
	f.flags = append(f.flags, flag)
	u := f.users.users[m.SenderID]
	u.Blocked = true
	u.BlockedReason = &reason
	f.pairs.block(m.SenderID, m.ReceiverID)
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
	gate      *Gate
	users     *fakeUsers
	pairs     *fakePairs
	messages  *fakeMessages
	flags     *fakeViolations
	publisher *fakePublisher
	sender    uuid.UUID
	receiver  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sender := uuid.New()
	receiver := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		sender:   {ID: sender, Email: "alumno@colprovidencia.cl", Role: models.RoleEstudiante},
		receiver: {ID: receiver, Email: "alumna@colprovidencia.cl", Role: models.RoleEstudiante},
	}}
	pairs := &fakePairs{blocked: map[[2]uuid.UUID]bool{}}
	messages := &fakeMessages{}
	violations := &fakeViolations{users: users, pairs: pairs, messages: messages}
	publisher := &fakePublisher{}

	return &fixture{
		gate:      NewGate(users, pairs, messages, violations, publisher, zap.NewNop()),
		users:     users,
		pairs:     pairs,
		messages:  messages,
		flags:     violations,
		publisher: publisher,
		sender:    sender,
		receiver:  receiver,
	}
}

func TestSend_CleanMessageAccepted(t *testing.T) {
	f := newFixture(t)

	res, err := f.gate.Send(context.Background(), f.sender, f.receiver, "hola, como estas?")
	require.NoError(t, err)

	assert.Equal(t, Accepted, res.Outcome)
	require.Len(t, f.messages.created, 1)
	assert.Equal(t, "hola, como estas?", f.messages.created[0].Content)
	assert.Empty(t, f.flags.flags, "clean message must not be flagged")
	assert.False(t, f.users.users[f.sender].Blocked, "sender must stay unblocked")
	assert.Len(t, f.publisher.messages, 1, "accepted message is broadcast")
}

func TestSend_KeywordMatchFlagsAndBlocks(t *testing.T) {
	f := newFixture(t)

	res, err := f.gate.Send(context.Background(), f.sender, f.receiver, "te amo")
	require.NoError(t, err)

	assert.Equal(t, RejectedAndFlagged, res.Outcome)
	assert.Equal(t, "te amo", res.MatchedWord)

	// The offending message is persisted as evidence, not dropped.
	require.Len(t, f.messages.created, 1)
	assert.Equal(t, "te amo", f.messages.created[0].Content)

	require.Len(t, f.flags.flags, 1)
	assert.Equal(t, "te amo", f.flags.flags[0].Content)
	assert.Contains(t, f.flags.flags[0].MatchedWords, "te amo")
	assert.Equal(t, models.CategorySexual, f.flags.flags[0].Category)

	assert.True(t, f.users.users[f.sender].Blocked, "sender is auto-blocked")

	blocked, err := f.pairs.IsBlocked(f.sender, f.receiver)
	require.NoError(t, err)
	assert.True(t, blocked, "pair is blocked alongside the sender")

	require.Len(t, f.publisher.blocks, 1)
	assert.Equal(t, f.sender, f.publisher.blocks[0].UserID)
	assert.True(t, f.publisher.blocks[0].Blocked)
}

func TestSend_BlockedSenderRejected(t *testing.T) {
	f := newFixture(t)
	f.users.users[f.sender].Blocked = true

	res, err := f.gate.Send(context.Background(), f.sender, f.receiver, "hola")
	require.NoError(t, err)

	assert.Equal(t, RejectedBlocked, res.Outcome)
	assert.Empty(t, f.messages.created, "no message persisted for a blocked sender")
}

func TestSend_BlockedPairRejected(t *testing.T) {
	f := newFixture(t)
	f.pairs.block(f.sender, f.receiver)

	res, err := f.gate.Send(context.Background(), f.sender, f.receiver, "hola")
	require.NoError(t, err)

	assert.Equal(t, RejectedPairBlocked, res.Outcome)
	assert.Empty(t, f.messages.created, "no message persisted for a blocked pair")
}

func TestSend_PairBlockIsPairScoped(t *testing.T) {
	f := newFixture(t)
	f.pairs.block(f.sender, f.receiver)

	third := uuid.New()
	f.users.users[third] = &models.User{ID: third, Role: models.RoleEstudiante}

	res, err := f.gate.Send(context.Background(), f.sender, third, "hola")
	require.NoError(t, err)

	assert.Equal(t, Accepted, res.Outcome, "block applies only to the pair, not the sender")
	assert.Len(t, f.messages.created, 1)
}

func TestSend_PairBlockSymmetric(t *testing.T) {
	f := newFixture(t)
	// Block with the arguments in one order, send in the other.
	f.pairs.block(f.receiver, f.sender)

	res, err := f.gate.Send(context.Background(), f.sender, f.receiver, "hola")
	require.NoError(t, err)

	assert.Equal(t, RejectedPairBlocked, res.Outcome)
}

func TestSend_StoreFailureFailsWholeSend(t *testing.T) {
	f := newFixture(t)
	f.flags.err = errors.New("connection reset")

	_, err := f.gate.Send(context.Background(), f.sender, f.receiver, "te amo")
	require.Error(t, err)

	// Nothing partial: the fake transaction failed before mutating anything.
	assert.Empty(t, f.messages.created)
	assert.False(t, f.users.users[f.sender].Blocked)
}

func TestSend_SelfMessageRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.gate.Send(context.Background(), f.sender, f.sender, "hola")
	assert.ErrorIs(t, err, ErrSelfMessage)
}

func TestSend_EmptyContentRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.gate.Send(context.Background(), f.sender, f.receiver, "")
	assert.ErrorIs(t, err, ErrEmptyBody)
}
