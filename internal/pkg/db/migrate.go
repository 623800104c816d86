package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// migration is a single idempotent schema step.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "users table",
		sql: `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			nickname VARCHAR(64) NOT NULL UNIQUE,
			points BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
			telegram_id BIGINT UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC);`,
	},
	{
		name: "point_transactions table",
		sql: `
		CREATE TABLE IF NOT EXISTS point_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			cause VARCHAR(32) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_point_transactions_user_time ON point_transactions(user_id, created_at DESC);`,
	},
	{
		name: "words table",
		sql: `
		CREATE TABLE IF NOT EXISTS words (
			id BIGSERIAL PRIMARY KEY,
			word VARCHAR(128) NOT NULL,
			phonetic VARCHAR(128) NOT NULL DEFAULT '',
			meaning TEXT NOT NULL,
			example TEXT NOT NULL DEFAULT '',
			example_translation TEXT NOT NULL DEFAULT '',
			context_description TEXT NOT NULL DEFAULT '',
			difficulty VARCHAR(16) NOT NULL DEFAULT 'easy',
			category VARCHAR(64) NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_words_word ON words(LOWER(word));`,
	},
	{
		name: "user_words table",
		sql: `
		CREATE TABLE IF NOT EXISTS user_words (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			word_id BIGINT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
			mastery_level INT NOT NULL DEFAULT 0 CHECK (mastery_level >= 0),
			review_count INT NOT NULL DEFAULT 0,
			next_review_at TIMESTAMPTZ NOT NULL,
			learned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, word_id)
		);
		CREATE INDEX IF NOT EXISTS idx_user_words_due ON user_words(user_id, next_review_at);
		CREATE INDEX IF NOT EXISTS idx_user_words_learned ON user_words(user_id, learned_at);`,
	},
	{
		name: "learning_records table",
		sql: `
		CREATE TABLE IF NOT EXISTS learning_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			word_id BIGINT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
			record_type VARCHAR(16) NOT NULL CHECK (record_type IN ('learn', 'review')),
			result VARCHAR(16) NOT NULL CHECK (result IN ('correct', 'incorrect')),
			time_spent INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_learning_records_user_time ON learning_records(user_id, created_at DESC);`,
	},
	{
		name: "practice_sessions table",
		sql: `
		CREATE TABLE IF NOT EXISTS practice_sessions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			session_type VARCHAR(32) NOT NULL,
			total_questions INT NOT NULL,
			correct_answers INT NOT NULL,
			time_spent INT NOT NULL DEFAULT 0,
			points_earned BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	},
	{
		name: "achievements tables",
		sql: `
		CREATE TABLE IF NOT EXISTS achievements (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(64) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			condition_type VARCHAR(32) NOT NULL,
			condition_value BIGINT NOT NULL,
			reward_points BIGINT NOT NULL CHECK (reward_points >= 0)
		);
		CREATE TABLE IF NOT EXISTS user_achievements (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			achievement_id BIGINT NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
			unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, achievement_id)
		);`,
	},
	{
		name: "weekly_goals table",
		sql: `
		CREATE TABLE IF NOT EXISTS weekly_goals (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			week_start TIMESTAMPTZ NOT NULL,
			target_words INT NOT NULL DEFAULT 30,
			learned_words INT NOT NULL DEFAULT 0,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			penalty_applied_at TIMESTAMPTZ,
			UNIQUE (user_id, week_start)
		);`,
	},
	{
		name: "shop catalog tables",
		sql: `
		CREATE TABLE IF NOT EXISTS character_items (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(64) NOT NULL UNIQUE,
			type VARCHAR(32) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL CHECK (price >= 0),
			is_default BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE TABLE IF NOT EXISTS garden_items (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(64) NOT NULL UNIQUE,
			type VARCHAR(32) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL CHECK (price >= 0)
		);`,
	},
	{
		name: "inventory and garden tables",
		sql: `
		CREATE TABLE IF NOT EXISTS user_inventory (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			item_id BIGINT NOT NULL,
			item_type VARCHAR(16) NOT NULL CHECK (item_type IN ('character', 'garden')),
			is_equipped BOOLEAN NOT NULL DEFAULT FALSE,
			purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, item_id, item_type)
		);
		CREATE INDEX IF NOT EXISTS idx_user_inventory_fifo ON user_inventory(user_id, purchased_at, id);
		CREATE TABLE IF NOT EXISTS user_garden (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			garden_item_id BIGINT NOT NULL REFERENCES garden_items(id) ON DELETE CASCADE,
			position_x INT NOT NULL DEFAULT 0,
			position_y INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, garden_item_id)
		);`,
	},
}

// Migrate creates the schema and seeds the static catalogs.
// Every step is idempotent and safe to run on each start.
func Migrate(ctx context.Context, q Querier) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := q.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Debug().Int("step", i+1).Str("name", m.name).Msg("Migration applied")
	}

	if err := seed(ctx, q); err != nil {
		return fmt.Errorf("failed to seed catalogs: %w", err)
	}

	log.Info().Int("steps", len(migrations)).Msg("All migrations completed successfully")
	return nil
}

// ========== Seed data ==========

type seedItem struct {
	name, itemType, description string
	price                       int64
}

var characterSeed = []seedItem{
	{"粉色连衣裙", "clothing", "可爱的粉色连衣裙", 100},
	{"蓝色帽子", "accessory", "漂亮的蓝色帽子", 80},
	{"彩虹围巾", "accessory", "美丽的彩虹围巾", 120},
	{"花朵发卡", "accessory", "可爱的花朵发卡", 60},
	{"小熊背包", "accessory", "可爱的小熊背包", 150},
	{"蝴蝶结", "accessory", "漂亮的蝴蝶结", 70},
	{"星星发饰", "accessory", "闪亮的星星发饰", 90},
	{"月亮项链", "accessory", "神秘的月亮项链", 110},
}

var gardenSeed = []seedItem{
	{"向日葵", "flower", "明亮的向日葵", 50},
	{"玫瑰", "flower", "美丽的玫瑰", 60},
	{"郁金香", "flower", "优雅的郁金香", 55},
	{"小树", "plant", "可爱的小树", 80},
	{"灌木", "plant", "茂盛的灌木", 40},
	{"喷泉", "decoration", "漂亮的喷泉", 200},
	{"小桥", "decoration", "可爱的小桥", 150},
	{"长椅", "furniture", "舒适的长椅", 100},
	{"路灯", "decoration", "温暖的路灯", 90},
	{"小鸟屋", "decoration", "可爱的小鸟屋", 120},
}

var achievementSeed = []struct {
	name, description, conditionType string
	conditionValue, reward           int64
}{
	{"初学者", "学习第一个单词", "words_learned", 1, 50},
	{"勤奋学生", "学习10个单词", "words_learned", 10, 100},
	{"单词达人", "学习50个单词", "words_learned", 50, 300},
	{"单词大师", "学习100个单词", "words_learned", 100, 500},
	{"坚持一周", "连续学习7天", "consecutive_days", 7, 200},
	{"坚持一月", "连续学习30天", "consecutive_days", 30, 500},
	{"完美周", "一周内完成学习目标", "weekly_goal", 1, 150},
	{"复习专家", "复习100次", "review_count", 100, 200},
}

var wordSeed = []struct {
	word, phonetic, meaning, example, translation, difficulty, category string
}{
	{"garden", "/ˈɡɑːrdn/", "花园", "The garden is full of beautiful flowers.", "花园里开满了美丽的花。", "easy", "nature"},
	{"flower", "/ˈflaʊər/", "花", "I love to pick flowers in the garden.", "我喜欢在花园里摘花。", "easy", "nature"},
	{"sun", "/sʌn/", "太阳", "The sun shines brightly in the sky.", "太阳在天空中明亮地照耀着。", "easy", "nature"},
	{"moon", "/muːn/", "月亮", "The moon is bright tonight.", "今晚的月亮很亮。", "easy", "nature"},
	{"star", "/stɑːr/", "星星", "I can see many stars in the night sky.", "我能在夜空中看到很多星星。", "easy", "nature"},
	{"rainbow", "/ˈreɪnboʊ/", "彩虹", "Look at the beautiful rainbow!", "看那美丽的彩虹！", "easy", "nature"},
	{"butterfly", "/ˈbʌtərflaɪ/", "蝴蝶", "The butterfly is flying in the garden.", "蝴蝶在花园里飞舞。", "medium", "animal"},
	{"bird", "/bɜːrd/", "鸟", "The bird is singing a beautiful song.", "鸟儿在唱着动听的歌。", "easy", "animal"},
	{"tree", "/triː/", "树", "The tree is very tall.", "这棵树很高。", "easy", "nature"},
	{"grass", "/ɡræs/", "草", "The grass is green and soft.", "草是绿色的，很柔软。", "easy", "nature"},
	{"happy", "/ˈhæpi/", "快乐的", "I am very happy today.", "我今天很开心。", "easy", "emotion"},
	{"friend", "/frend/", "朋友", "She is my best friend.", "她是我最好的朋友。", "easy", "relationship"},
	{"dance", "/dæns/", "跳舞", "They are dancing in the garden.", "他们在花园里跳舞。", "medium", "action"},
	{"adventure", "/ədˈventʃər/", "冒险", "Let's go on an adventure!", "让我们去冒险吧！", "medium", "action"},
}

// seed inserts catalog rows. Conflicts on the unique name columns are ignored,
// so re-running never duplicates.
func seed(ctx context.Context, q Querier) error {
	for i, it := range characterSeed {
		_, err := q.Exec(ctx, `
			INSERT INTO character_items (name, type, description, price, is_default)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO NOTHING`,
			it.name, it.itemType, it.description, it.price, i == 0)
		if err != nil {
			return fmt.Errorf("character item %q: %w", it.name, err)
		}
	}

	for _, it := range gardenSeed {
		_, err := q.Exec(ctx, `
			INSERT INTO garden_items (name, type, description, price)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING`,
			it.name, it.itemType, it.description, it.price)
		if err != nil {
			return fmt.Errorf("garden item %q: %w", it.name, err)
		}
	}

	for _, a := range achievementSeed {
		_, err := q.Exec(ctx, `
			INSERT INTO achievements (name, description, condition_type, condition_value, reward_points)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO NOTHING`,
			a.name, a.description, a.conditionType, a.conditionValue, a.reward)
		if err != nil {
			return fmt.Errorf("achievement %q: %w", a.name, err)
		}
	}

	for _, w := range wordSeed {
		_, err := q.Exec(ctx, `
			INSERT INTO words (word, phonetic, meaning, example, example_translation, difficulty, category)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT DO NOTHING`,
			w.word, w.phonetic, w.meaning, w.example, w.translation, w.difficulty, w.category)
		if err != nil {
			return fmt.Errorf("word %q: %w", w.word, err)
		}
	}

	return nil
}
