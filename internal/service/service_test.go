package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"word-garden/internal/achievement"
	"word-garden/internal/apperr"
	"word-garden/internal/model"
	"word-garden/internal/pkg/db/dbtest"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/repository"
)

type testEnv struct {
	store        *repository.Store
	accounts     *AccountService
	learning     *LearningService
	words        *WordService
	goals        *GoalService
	achievements *AchievementService
	shop         *ShopService
	ranking      *RankingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewStore(dbtest.Setup(t))
	locks := lock.NewUserLock(10 * time.Second)
	ledger := NewLedger()

	return &testEnv{
		store:        store,
		accounts:     NewAccountService(store, locks, ledger),
		learning:     NewLearningService(store, locks, ledger, nil),
		words:        NewWordService(store),
		goals:        NewGoalService(store, locks, NewPenaltyEngine(), time.UTC, DefaultWeeklyTarget, nil),
		achievements: NewAchievementService(store, locks, ledger, achievement.NewDefaultRegistry(), time.UTC, nil),
		shop:         NewShopService(store, locks, ledger),
		ranking:      NewRankingService(store),
	}
}

func (e *testEnv) user(t *testing.T, nickname string, points int64) *model.User {
	t.Helper()
	u, err := e.accounts.Login(context.Background(), nickname)
	require.NoError(t, err)
	if points > 0 {
		u.Points, err = e.accounts.AdjustPoints(context.Background(), u.ID, points, OpAdd)
		require.NoError(t, err)
	}
	return u
}

// wordIDs returns n catalog word IDs, adding words when the seed is short.
func (e *testEnv) wordIDs(t *testing.T, n int) []int64 {
	t.Helper()
	ctx := context.Background()

	for i := 0; ; i++ {
		words, err := e.store.Words.List(ctx, repository.WordFilter{Limit: n})
		require.NoError(t, err)
		if len(words) >= n {
			ids := make([]int64, n)
			for j := range ids {
				ids[j] = words[j].ID
			}
			return ids
		}
		_, err = e.store.Words.Upsert(ctx, &model.Word{
			Word:       fmt.Sprintf("extra-%d", i),
			Meaning:    "extra",
			Difficulty: "easy",
			Category:   "test",
		})
		require.NoError(t, err)
	}
}

func (e *testEnv) learnAll(t *testing.T, userID int64, wordIDs []int64) {
	t.Helper()
	for _, id := range wordIDs {
		_, err := e.learning.Learn(context.Background(), userID, id, model.OutcomeCorrect, 10)
		require.NoError(t, err)
	}
}

// ============================================================================
// Learning
// ============================================================================

func TestLearningService_LearnAndReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice", 0)
	wordID := env.wordIDs(t, 1)[0]

	first, err := env.learning.Learn(ctx, u.ID, wordID, model.OutcomeCorrect, 30)
	require.NoError(t, err)
	assert.True(t, first.FirstTime)
	assert.Equal(t, 0, first.MasteryLevel)
	assert.Equal(t, PointsLearnFirst, first.PointsEarned)
	assert.Equal(t, int64(10), first.Points)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 1), first.NextReviewAt, time.Minute)

	again, err := env.learning.Learn(ctx, u.ID, wordID, model.OutcomeCorrect, 30)
	require.NoError(t, err)
	assert.False(t, again.FirstTime)
	assert.Zero(t, again.PointsEarned)
	assert.Equal(t, int64(10), again.Points)
	assert.Equal(t, 1, again.MasteryLevel)

	rec, err := env.store.Mastery.Get(ctx, u.ID, wordID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ReviewCount, "learn must not count as a review")

	review, err := env.learning.Review(ctx, u.ID, wordID, model.OutcomeCorrect, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, review.MasteryLevel)
	assert.Equal(t, PointsReviewCorrect, review.PointsEarned)
	assert.Equal(t, int64(15), review.Points)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 4), review.NextReviewAt, time.Minute)

	miss, err := env.learning.Review(ctx, u.ID, wordID, model.OutcomeIncorrect, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, miss.MasteryLevel)
	assert.Equal(t, PointsReviewIncorrect, miss.PointsEarned)
	assert.Equal(t, int64(17), miss.Points)

	rec, err = env.store.Mastery.Get(ctx, u.ID, wordID)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.ReviewCount)

	history, err := env.learning.History(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, model.RecordReview, history[0].RecordType)
	assert.NotEmpty(t, history[0].Word)

	txs, err := env.accounts.Transactions(ctx, u.ID, 0)
	require.NoError(t, err)
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	assert.Equal(t, int64(17), sum, "ledger rows must add up to the balance")
}

func TestLearningService_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "bob", 0)
	wordID := env.wordIDs(t, 1)[0]

	_, err := env.learning.Review(ctx, u.ID, wordID, model.OutcomeCorrect, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "reviewing an unlearned word")

	_, err = env.learning.Learn(ctx, u.ID, 999999, model.OutcomeCorrect, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.learning.Learn(ctx, 999999, wordID, model.OutcomeCorrect, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.learning.Learn(ctx, u.ID, wordID, "maybe", 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = env.learning.Learn(ctx, u.ID, wordID, model.OutcomeCorrect, -1)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = env.learning.History(ctx, 999999, 10)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	user, err := env.accounts.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, user.Points, "failed operations must not change points")
}

func TestLearningService_Practice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "carol", 0)

	session, err := env.learning.Practice(ctx, u.ID, PracticeInput{TotalQuestions: 10, CorrectAnswers: 7, TimeSpent: 60})
	require.NoError(t, err)
	assert.Equal(t, int64(14), session.PointsEarned)
	assert.Equal(t, "quiz", session.SessionType)
	assert.NotZero(t, session.ID)

	empty, err := env.learning.Practice(ctx, u.ID, PracticeInput{SessionType: "spelling"})
	require.NoError(t, err)
	assert.Zero(t, empty.PointsEarned)

	_, err = env.learning.Practice(ctx, u.ID, PracticeInput{TotalQuestions: 3, CorrectAnswers: 4})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = env.learning.Practice(ctx, u.ID, PracticeInput{TotalQuestions: -1})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	user, err := env.accounts.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(14), user.Points)
}

func TestLearningService_ReviewDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "dave", 0)
	ids := env.wordIDs(t, 3)
	env.learnAll(t, u.ID, ids)

	due, err := env.learning.ReviewDue(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, due, "freshly learned words are due tomorrow")

	later := NewLearningService(env.store, lock.NewUserLock(0), NewLedger(), func() time.Time {
		return time.Now().AddDate(0, 0, 2)
	})
	due, err = later.ReviewDue(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, due, 3)
}

// ============================================================================
// Words
// ============================================================================

func TestWordService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "erin", 0)
	ids := env.wordIDs(t, 2)

	w, err := env.words.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.NotEmpty(t, w.Word)

	_, err = env.words.Get(ctx, 999999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	env.learnAll(t, u.ID, ids[:1])

	learned, err := env.words.Learned(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, learned, 1)
	assert.Equal(t, ids[0], learned[0].ID)

	fresh, err := env.words.New(ctx, u.ID, 100)
	require.NoError(t, err)
	for _, w := range fresh {
		assert.NotEqual(t, ids[0], w.ID, "learned word offered as new")
	}

	easy, err := env.words.List(ctx, repository.WordFilter{Difficulty: "easy"})
	require.NoError(t, err)
	for _, w := range easy {
		assert.Equal(t, "easy", w.Difficulty)
	}
}

// ============================================================================
// Achievements
// ============================================================================

func TestAchievementService_UnlockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "frank", 0)

	none, err := env.achievements.CheckAndUnlock(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, none.Unlocked)

	wordID := env.wordIDs(t, 1)[0]
	env.learnAll(t, u.ID, []int64{wordID})

	res, err := env.achievements.CheckAndUnlock(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, model.ConditionWordsLearned, res.Unlocked[0].ConditionType)
	assert.Equal(t, PointsLearnFirst+res.Unlocked[0].RewardPoints, res.Points)

	again, err := env.achievements.CheckAndUnlock(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Unlocked)
	assert.Equal(t, res.Points, again.Points)

	// Learning the same word again adds no bonus and unlocks nothing new.
	relearn, err := env.learning.Learn(ctx, u.ID, wordID, model.OutcomeCorrect, 10)
	require.NoError(t, err)
	assert.Zero(t, relearn.PointsEarned)
	assert.Equal(t, res.Points, relearn.Points)

	afterRelearn, err := env.achievements.CheckAndUnlock(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, afterRelearn.Unlocked)
	assert.Equal(t, res.Points, afterRelearn.Points)

	unlocked, err := env.achievements.Unlocked(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, unlocked, 1)

	catalog, err := env.achievements.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 8)
}

func TestAchievementService_ConcurrentChecksCreditOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "grace", 0)
	env.learnAll(t, u.ID, env.wordIDs(t, 1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.achievements.CheckAndUnlock(ctx, u.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	txs, err := env.store.Transactions.GetByUserID(ctx, u.ID, 100)
	require.NoError(t, err)
	var sum int64
	for _, tx := range txs {
		if tx.Cause == model.CauseAchievement {
			sum += tx.Amount
		}
	}
	assert.Equal(t, int64(50), sum)
}

// ============================================================================
// Weekly goals and penalty
// ============================================================================

func TestGoalService_CompletionBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.wordIDs(t, DefaultWeeklyTarget)

	done := env.user(t, "henry", 0)
	short := env.user(t, "iris", 0)
	env.learnAll(t, done.ID, ids)
	env.learnAll(t, short.ID, ids[:DefaultWeeklyTarget-1])

	g, err := env.goals.Recompute(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultWeeklyTarget, g.LearnedWords)
	assert.True(t, g.IsCompleted)

	g, err = env.goals.Recompute(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultWeeklyTarget-1, g.LearnedWords)
	assert.False(t, g.IsCompleted)

	again, err := env.goals.Recompute(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, g, again, "recompute must be idempotent")

	res, err := env.goals.Check(ctx, done.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Revoked)
	assert.Nil(t, res.Goal.PenaltyAppliedAt)
}

func TestGoalService_GetOrCreateCurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "jack", 0)

	g, err := env.goals.GetOrCreateCurrent(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultWeeklyTarget, g.TargetWords)
	assert.Zero(t, g.LearnedWords)
	assert.False(t, g.IsCompleted)
	assert.True(t, env.goals.currentWeekStart().Equal(g.WeekStart))

	same, err := env.goals.GetOrCreateCurrent(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, same.ID)

	_, err = env.goals.GetOrCreateCurrent(ctx, 999999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func buy(t *testing.T, env *testEnv, userID int64, item *model.CatalogItem) {
	t.Helper()
	_, err := env.shop.Purchase(context.Background(), userID, item.ID, item.ItemType)
	require.NoError(t, err)
}

func TestGoalService_PenaltyRevokesOldestUnequipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "kate", 10000)

	garden, err := env.shop.Items(ctx, model.ItemGarden)
	require.NoError(t, err)
	chars, err := env.shop.Items(ctx, model.ItemCharacter)
	require.NoError(t, err)

	g0, g1, g2 := garden[0], garden[1], garden[2]
	c0, c1 := chars[0], chars[1]
	for _, it := range []*model.CatalogItem{g0, g1, c0, c1, g2} {
		buy(t, env, u.ID, it)
	}
	require.NoError(t, env.shop.Equip(ctx, u.ID, g0.ID, model.ItemGarden))
	_, err = env.shop.Place(ctx, u.ID, g1.ID, 3, 4)
	require.NoError(t, err)

	res, err := env.goals.Check(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, res.Goal.IsCompleted)
	require.NotNil(t, res.Goal.PenaltyAppliedAt)
	require.Len(t, res.Revoked, PenaltyItemCount)
	assert.Equal(t, g1.ID, res.Revoked[0].ItemID)
	assert.Equal(t, model.ItemGarden, res.Revoked[0].ItemType)
	assert.Equal(t, c0.ID, res.Revoked[1].ItemID)
	assert.Equal(t, model.ItemCharacter, res.Revoked[1].ItemType)

	placed, err := env.shop.Garden(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, placed, "revoked garden item must leave the garden")

	left, err := env.shop.Inventory(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, left, 3)

	second, err := env.goals.Check(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, second.Revoked, "a week is penalized once")

	left, err = env.shop.Inventory(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, left, 3)
}

func TestGoalService_ConcurrentChecksPenalizeOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "liam", 10000)

	garden, err := env.shop.Items(ctx, model.ItemGarden)
	require.NoError(t, err)
	for _, it := range garden[:4] {
		buy(t, env, u.ID, it)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		revoked int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.goals.Check(ctx, u.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			revoked += len(res.Revoked)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, PenaltyItemCount, revoked)

	left, err := env.shop.Inventory(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestRunLocked_BusyUserIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "quinn", 0)

	locks := lock.NewUserLock(50 * time.Millisecond)
	accounts := NewAccountService(env.store, locks, NewLedger())

	require.NoError(t, locks.Lock(ctx, u.ID))
	_, err := accounts.AdjustPoints(ctx, u.ID, 10, OpAdd)
	locks.Unlock(u.ID)

	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Another operation for this user is in progress, try again", apperr.MessageOf(err))

	balance, err := accounts.AdjustPoints(ctx, u.ID, 10, OpAdd)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}

// ============================================================================
// Shop and garden
// ============================================================================

func TestShopService_Purchase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	broke := env.user(t, "mia", 0)
	items, err := env.shop.Items(ctx, model.ItemCharacter)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	item := items[0]

	_, err = env.shop.Purchase(ctx, broke.ID, item.ID, model.ItemCharacter)
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	inv, err := env.shop.Inventory(ctx, broke.ID)
	require.NoError(t, err)
	assert.Empty(t, inv)

	rich := env.user(t, "noah", item.Price)
	res, err := env.shop.Purchase(ctx, rich.ID, item.ID, model.ItemCharacter)
	require.NoError(t, err)
	assert.Zero(t, res.Points)
	assert.Equal(t, item.ID, res.Owned.ItemID)

	_, err = env.accounts.AdjustPoints(ctx, rich.ID, 1000, OpAdd)
	require.NoError(t, err)
	_, err = env.shop.Purchase(ctx, rich.ID, item.ID, model.ItemCharacter)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = env.shop.Purchase(ctx, rich.ID, 999999, model.ItemGarden)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.shop.Purchase(ctx, rich.ID, item.ID, "hat")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = env.shop.Items(ctx, "hat")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestShopService_PurchaseWithLearnedPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "piper", 0)

	items, err := env.shop.Items(ctx, model.ItemCharacter)
	require.NoError(t, err)
	var dress *model.CatalogItem
	for _, it := range items {
		if it.Name == "粉色连衣裙" {
			dress = it
		}
	}
	require.NotNil(t, dress)
	require.Equal(t, int64(100), dress.Price)

	_, err = env.shop.Purchase(ctx, u.ID, dress.ID, model.ItemCharacter)
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	env.learnAll(t, u.ID, env.wordIDs(t, 10))

	res, err := env.shop.Purchase(ctx, u.ID, dress.ID, model.ItemCharacter)
	require.NoError(t, err)
	assert.Zero(t, res.Points)

	after, err := env.accounts.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, after.Points)
}

func TestShopService_EquipAndGarden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "olivia", 10000)

	chars, err := env.shop.Items(ctx, model.ItemCharacter)
	require.NoError(t, err)
	garden, err := env.shop.Items(ctx, model.ItemGarden)
	require.NoError(t, err)

	err = env.shop.Equip(ctx, u.ID, chars[0].ID, model.ItemCharacter)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "equip requires ownership")

	buy(t, env, u.ID, chars[0])
	buy(t, env, u.ID, chars[1])
	require.NoError(t, env.shop.Equip(ctx, u.ID, chars[0].ID, model.ItemCharacter))
	require.NoError(t, env.shop.Equip(ctx, u.ID, chars[1].ID, model.ItemCharacter))

	inv, err := env.shop.Inventory(ctx, u.ID)
	require.NoError(t, err)
	equipped := 0
	for _, it := range inv {
		if it.IsEquipped {
			equipped++
			assert.Equal(t, chars[1].ID, it.ItemID)
		}
	}
	assert.Equal(t, 1, equipped, "one equipped item per type")

	_, err = env.shop.Place(ctx, u.ID, garden[0].ID, 1, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "placing requires ownership")

	buy(t, env, u.ID, garden[0])
	p, err := env.shop.Place(ctx, u.ID, garden[0].ID, 1, 2)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	moved, err := env.shop.Place(ctx, u.ID, garden[0].ID, 5, 6)
	require.NoError(t, err)
	assert.Equal(t, p.ID, moved.ID)
	assert.Equal(t, 5, moved.PositionX)

	placed, err := env.shop.Garden(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, placed, 1)

	require.NoError(t, env.shop.Remove(ctx, u.ID, garden[0].ID))
	assert.ErrorIs(t, env.shop.Remove(ctx, u.ID, garden[0].ID), apperr.ErrNotFound)

	placed, err = env.shop.Garden(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, placed)
}

// ============================================================================
// Accounts and ranking
// ============================================================================

func TestAccountService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.accounts.Login(ctx, "  pat  ")
	require.NoError(t, err)
	assert.Equal(t, "pat", u.Nickname)
	assert.Zero(t, u.Points)

	again, err := env.accounts.Login(ctx, "pat")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.False(t, again.LastLogin.Before(u.LastLogin))

	_, err = env.accounts.Login(ctx, "   ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	long := make([]rune, MaxNicknameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = env.accounts.Login(ctx, string(long))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = env.accounts.GetUser(ctx, 999999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAccountService_AdjustPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "quinn", 0)

	balance, err := env.accounts.AdjustPoints(ctx, u.ID, 100, OpAdd)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	balance, err = env.accounts.AdjustPoints(ctx, u.ID, 30, OpSubtract)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)

	balance, err = env.accounts.AdjustPoints(ctx, u.ID, 500, OpSubtract)
	require.NoError(t, err)
	assert.Zero(t, balance, "subtract clamps at zero")

	_, err = env.accounts.AdjustPoints(ctx, u.ID, 0, OpAdd)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = env.accounts.AdjustPoints(ctx, u.ID, 5, "multiply")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = env.accounts.AdjustPoints(ctx, 999999, 5, OpAdd)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAccountService_LinkTelegram(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.accounts.LinkTelegram(ctx, 4242, "rose")
	require.NoError(t, err)
	require.NotNil(t, u.TelegramID)
	assert.Equal(t, int64(4242), *u.TelegramID)

	found, err := env.accounts.GetByTelegramID(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = env.accounts.LinkTelegram(ctx, 4242, "sam")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	again, err := env.accounts.LinkTelegram(ctx, 4242, "rose")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = env.accounts.LinkTelegram(ctx, 5353, "rose")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	still, err := env.accounts.GetByTelegramID(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, u.ID, still.ID)

	_, err = env.accounts.GetByTelegramID(ctx, 5353)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAccountService_Stats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "tina", 0)
	ids := env.wordIDs(t, 2)
	env.learnAll(t, u.ID, ids)
	_, err := env.learning.Review(ctx, u.ID, ids[0], model.OutcomeCorrect, 3)
	require.NoError(t, err)

	stats, err := env.accounts.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalWords)
	assert.Equal(t, int64(1), stats.Reviews)
}

func TestRankingService_TopUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "low", 10)
	env.user(t, "high", 300)
	env.user(t, "mid", 100)

	top, err := env.ranking.TopUsers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Nickname)
	assert.Equal(t, "mid", top[1].Nickname)
}
