package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
	"word-garden/internal/pkg/db/dbtest"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(dbtest.Setup(t))
}

func mustLogin(t *testing.T, s *Store, nickname string) *model.User {
	t.Helper()
	u, _, err := s.Users.Login(context.Background(), nickname)
	require.NoError(t, err)
	return u
}

func firstWord(t *testing.T, s *Store) *model.Word {
	t.Helper()
	words, err := s.Words.List(context.Background(), WordFilter{Limit: 1})
	require.NoError(t, err)
	require.NotEmpty(t, words)
	return words[0]
}

// ============================================================================
// Migrations
// ============================================================================

func TestMigrate_Idempotent(t *testing.T) {
	pool := dbtest.Setup(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx, pool))

	s := NewStore(pool)
	chars, err := s.Catalog.List(ctx, model.ItemCharacter)
	require.NoError(t, err)
	assert.Len(t, chars, 8)

	garden, err := s.Catalog.List(ctx, model.ItemGarden)
	require.NoError(t, err)
	assert.Len(t, garden, 10)
	for i := 1; i < len(garden); i++ {
		assert.LessOrEqual(t, garden[i-1].Price, garden[i].Price, "catalog sorted by price")
	}

	achievements, err := s.Achievements.ListCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, achievements, 8)

	words, err := s.Words.List(ctx, WordFilter{})
	require.NoError(t, err)
	assert.Len(t, words, 14)
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_Login(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	user, created, err := s.Users.Login(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice", user.Nickname)
	assert.Zero(t, user.Points)
	assert.Nil(t, user.TelegramID)
	assert.False(t, user.CreatedAt.IsZero())

	again, created, err := s.Users.Login(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
}

func TestUserRepository_Get(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "bob")

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Nickname)

	got, err = s.Users.GetByNickname(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Users.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Users.GetByNickname(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	exists, err := s.Users.Exists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Users.Exists(ctx, 99999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_AddPoints(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "carol")

	points, err := s.Users.AddPoints(ctx, u.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), points)

	points, err = s.Users.AddPoints(ctx, u.ID, -40)
	require.NoError(t, err)
	assert.Equal(t, int64(60), points)

	_, err = s.Users.AddPoints(ctx, u.ID, -61)
	assert.ErrorIs(t, err, ErrNegativeBalance)

	_, err = s.Users.AddPoints(ctx, u.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidBalanceDiff)

	_, err = s.Users.AddPoints(ctx, 99999, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Points)
}

func TestUserRepository_LinkTelegram(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a := mustLogin(t, s, "dave")
	b := mustLogin(t, s, "erin")

	require.NoError(t, s.Users.LinkTelegram(ctx, a.ID, 777))

	got, err := s.Users.GetByTelegramID(ctx, 777)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	assert.ErrorIs(t, s.Users.LinkTelegram(ctx, b.ID, 777), ErrTelegramLinked)
	assert.ErrorIs(t, s.Users.LinkTelegram(ctx, 99999, 888), ErrUserNotFound)

	// Relinking the same chat is a no-op; moving the user to another chat is refused.
	require.NoError(t, s.Users.LinkTelegram(ctx, a.ID, 777))
	assert.ErrorIs(t, s.Users.LinkTelegram(ctx, a.ID, 888), ErrTelegramLinked)

	_, err = s.Users.GetByTelegramID(ctx, 888)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetTopUsers(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for nickname, points := range map[string]int64{"u1": 100, "u2": 500, "u3": 300} {
		u := mustLogin(t, s, nickname)
		_, err := s.Users.AddPoints(ctx, u.ID, points)
		require.NoError(t, err)
	}

	top, err := s.Users.GetTopUsers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(500), top[0].Points)
	assert.Equal(t, int64(300), top[1].Points)
}

// ============================================================================
// Store transactions
// ============================================================================

func TestStore_InTxRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "frank")

	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.Users.AddPoints(ctx, u.ID, 50); err != nil {
			return err
		}
		_, err := tx.Users.AddPoints(ctx, u.ID, -100)
		return err
	})
	assert.ErrorIs(t, err, ErrNegativeBalance)

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Points, "failed transaction must leave no trace")
}

// ============================================================================
// TransactionRepository Tests
// ============================================================================

func TestTransactionRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "henry")

	desc := "first word"
	tx, err := s.Transactions.Create(ctx, u.ID, 10, model.CauseLearn, &desc)
	require.NoError(t, err)
	assert.Equal(t, int64(10), tx.Amount)
	assert.Equal(t, model.CauseLearn, tx.Cause)
	require.NotNil(t, tx.Description)
	assert.Equal(t, desc, *tx.Description)

	_, err = s.Transactions.Create(ctx, u.ID, 5, model.CauseReview, nil)
	require.NoError(t, err)
	_, err = s.Transactions.Create(ctx, u.ID, 2, model.CauseReview, nil)
	require.NoError(t, err)

	list, err := s.Transactions.GetByUserID(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].Amount, "newest first")

	all, err := s.Transactions.GetByUserID(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// ============================================================================
// Words and mastery
// ============================================================================

func TestWordRepository_Upsert(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	w := &model.Word{Word: "Lantern", Meaning: "灯笼", Difficulty: "medium", Category: "object"}
	created, err := s.Words.Upsert(ctx, w)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, w.ID)

	update := &model.Word{Word: "lantern", Meaning: "提灯", Difficulty: "easy", Category: "object"}
	created, err = s.Words.Upsert(ctx, update)
	require.NoError(t, err)
	assert.False(t, created, "match is case-insensitive")
	assert.Equal(t, w.ID, update.ID)

	got, err := s.Words.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lantern", got.Word)
	assert.Equal(t, "提灯", got.Meaning)

	_, err = s.Words.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrWordNotFound)

	objects, err := s.Words.List(ctx, WordFilter{Category: "object"})
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestMasteryRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "iris")
	w := firstWord(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.Mastery.Get(ctx, u.ID, w.ID)
	assert.ErrorIs(t, err, ErrMasteryNotFound)

	rec, inserted, err := s.Mastery.InsertFirst(ctx, u.ID, w.ID, now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Zero(t, rec.MasteryLevel)

	_, inserted, err = s.Mastery.InsertFirst(ctx, u.ID, w.ID, now, now)
	require.NoError(t, err)
	assert.False(t, inserted, "a pair is inserted once")

	due, err := s.Mastery.ListDue(ctx, u.ID, now, 20)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, w.ID, due[0].ID)

	updated, err := s.Mastery.UpdateState(ctx, rec.ID, 3, now.AddDate(0, 0, 7), true)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.MasteryLevel)
	assert.Equal(t, 1, updated.ReviewCount)

	due, err = s.Mastery.ListDue(ctx, u.ID, now, 20)
	require.NoError(t, err)
	assert.Empty(t, due)

	n, err := s.Mastery.CountLearned(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	since, err := s.Mastery.CountLearnedSince(ctx, u.ID, now.Add(time.Second))
	require.NoError(t, err)
	assert.Zero(t, since)

	notLearned, err := s.Words.ListNotLearned(ctx, u.ID, 100)
	require.NoError(t, err)
	assert.Len(t, notLearned, 13)
}

func TestMasteryRepository_ListReminderTargets(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	linked := mustLogin(t, s, "jack")
	unlinked := mustLogin(t, s, "kate")
	require.NoError(t, s.Users.LinkTelegram(ctx, linked.ID, 1001))

	w := firstWord(t, s)
	past := time.Now().Add(-time.Hour)
	for _, u := range []*model.User{linked, unlinked} {
		_, _, err := s.Mastery.InsertFirst(ctx, u.ID, w.ID, past, past)
		require.NoError(t, err)
	}

	targets, err := s.Mastery.ListReminderTargets(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, linked.ID, targets[0].UserID)
	assert.Equal(t, int64(1001), targets[0].TelegramID)
	assert.Equal(t, 1, targets[0].DueCount)
}

func TestRecordRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "liam")
	w := firstWord(t, s)

	for _, rt := range []model.RecordType{model.RecordLearn, model.RecordReview, model.RecordReview} {
		require.NoError(t, s.Records.Append(ctx, &model.LearningRecord{
			UserID: u.ID, WordID: w.ID, RecordType: rt, Result: model.OutcomeCorrect, TimeSpent: 3,
		}))
	}

	reviews, err := s.Records.CountByType(ctx, u.ID, model.RecordReview)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reviews)

	history, err := s.Records.History(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, w.Word, history[0].Word)

	session := &model.PracticeSession{UserID: u.ID, SessionType: "quiz", TotalQuestions: 4, CorrectAnswers: 3, PointsEarned: 15}
	require.NoError(t, s.Records.CreatePracticeSession(ctx, session))
	assert.NotZero(t, session.ID)
}

// ============================================================================
// Achievements and goals
// ============================================================================

func TestAchievementRepository_Unlock(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "mia")

	locked, err := s.Achievements.ListLocked(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, locked, 8)

	inserted, err := s.Achievements.Unlock(ctx, u.ID, locked[0].ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Achievements.Unlock(ctx, u.ID, locked[0].ID)
	require.NoError(t, err)
	assert.False(t, inserted, "second unlock is a no-op")

	locked, err = s.Achievements.ListLocked(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, locked, 7)

	unlocked, err := s.Achievements.ListUnlocked(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.False(t, unlocked[0].UnlockedAt.IsZero())
}

func TestGoalRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "noah")
	week := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	g, err := s.Goals.GetOrCreate(ctx, u.ID, week, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, g.TargetWords)
	assert.Nil(t, g.PenaltyAppliedAt)

	same, err := s.Goals.GetOrCreate(ctx, u.ID, week, 99)
	require.NoError(t, err)
	assert.Equal(t, g.ID, same.ID)
	assert.Equal(t, 30, same.TargetWords, "existing goal keeps its target")

	done, err := s.Goals.IsCompleted(ctx, u.ID, week)
	require.NoError(t, err)
	assert.False(t, done)

	g, err = s.Goals.SetProgress(ctx, g.ID, 30, true)
	require.NoError(t, err)
	assert.True(t, g.IsCompleted)

	done, err = s.Goals.IsCompleted(ctx, u.ID, week)
	require.NoError(t, err)
	assert.True(t, done)

	marked, err := s.Goals.MarkPenalized(ctx, g.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = s.Goals.MarkPenalized(ctx, g.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, marked)

	_, err = s.Goals.Get(ctx, u.ID, week.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, ErrGoalNotFound)

	_, err = s.Goals.GetOrCreate(ctx, 99999, week, 30)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// ============================================================================
// Inventory and garden
// ============================================================================

func TestInventoryRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "olivia")

	chars, err := s.Catalog.List(ctx, model.ItemCharacter)
	require.NoError(t, err)

	item, err := s.Catalog.Get(ctx, model.ItemCharacter, chars[0].ID)
	require.NoError(t, err)
	assert.Equal(t, chars[0].Name, item.Name)

	_, err = s.Catalog.Get(ctx, model.ItemGarden, 99999)
	assert.ErrorIs(t, err, ErrItemNotFound)

	first, err := s.Inventory.Add(ctx, u.ID, chars[0].ID, model.ItemCharacter)
	require.NoError(t, err)
	_, err = s.Inventory.Add(ctx, u.ID, chars[0].ID, model.ItemCharacter)
	assert.ErrorIs(t, err, ErrItemAlreadyOwned)
	_, err = s.Inventory.Add(ctx, u.ID, chars[1].ID, model.ItemCharacter)
	require.NoError(t, err)

	owns, err := s.Inventory.Owns(ctx, u.ID, chars[0].ID, model.ItemCharacter)
	require.NoError(t, err)
	assert.True(t, owns)

	assert.ErrorIs(t, s.Inventory.Equip(ctx, u.ID, chars[2].ID, model.ItemCharacter), ErrItemNotOwned)
	require.NoError(t, s.Inventory.Equip(ctx, u.ID, chars[0].ID, model.ItemCharacter))
	require.NoError(t, s.Inventory.Equip(ctx, u.ID, chars[1].ID, model.ItemCharacter))

	items, err := s.Inventory.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID, "oldest purchase first")
	assert.False(t, items[0].IsEquipped)
	assert.True(t, items[1].IsEquipped)
	assert.NotEmpty(t, items[0].Name)

	require.NoError(t, s.Inventory.Delete(ctx, first.ID))
	assert.ErrorIs(t, s.Inventory.Delete(ctx, first.ID), ErrItemNotOwned)
}

func TestGardenRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustLogin(t, s, "pat")

	garden, err := s.Catalog.List(ctx, model.ItemGarden)
	require.NoError(t, err)
	itemID := garden[0].ID

	p, err := s.Garden.Place(ctx, u.ID, itemID, 1, 2)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	removed, err := s.Garden.Deactivate(ctx, u.ID, itemID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Garden.Deactivate(ctx, u.ID, itemID)
	require.NoError(t, err)
	assert.False(t, removed)

	active, err := s.Garden.ListActive(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	again, err := s.Garden.Place(ctx, u.ID, itemID, 7, 8)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID, "placing again reactivates the same row")
	assert.Equal(t, 7, again.PositionX)

	active, err = s.Garden.ListActive(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.NotEmpty(t, active[0].Name)
}
