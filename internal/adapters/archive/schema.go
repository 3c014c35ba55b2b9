package archive

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL,
		recipe_id TEXT,
		ingredients TEXT NOT NULL,
		techniques TEXT NOT NULL,
		rating REAL NOT NULL,
		complexity REAL NOT NULL,
		novel BOOLEAN NOT NULL,
		feedback TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_event_id ON feedback(event_id)`,
	`CREATE TABLE IF NOT EXISTS learning_progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TIMESTAMP NOT NULL,
		skill_level INTEGER NOT NULL,
		overall_mastery REAL NOT NULL,
		known_ingredients INTEGER NOT NULL,
		known_techniques INTEGER NOT NULL,
		successful_combinations INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ingredient_compatibility (
		ingredient1 TEXT NOT NULL,
		ingredient2 TEXT NOT NULL,
		compatibility_score REAL NOT NULL,
		confidence_score INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (ingredient1, ingredient2)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS feedback (
		id BIGSERIAL PRIMARY KEY,
		event_id TEXT NOT NULL,
		recipe_id TEXT,
		ingredients JSONB NOT NULL,
		techniques JSONB NOT NULL,
		rating DOUBLE PRECISION NOT NULL,
		complexity DOUBLE PRECISION NOT NULL,
		novel BOOLEAN NOT NULL,
		feedback TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_event_id ON feedback(event_id)`,
	`CREATE TABLE IF NOT EXISTS learning_progress (
		id BIGSERIAL PRIMARY KEY,
		recorded_at TIMESTAMPTZ NOT NULL,
		skill_level INTEGER NOT NULL,
		overall_mastery DOUBLE PRECISION NOT NULL,
		known_ingredients INTEGER NOT NULL,
		known_techniques INTEGER NOT NULL,
		successful_combinations INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ingredient_compatibility (
		ingredient1 TEXT NOT NULL,
		ingredient2 TEXT NOT NULL,
		compatibility_score DOUBLE PRECISION NOT NULL,
		confidence_score INTEGER NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (ingredient1, ingredient2)
	)`,
}

const (
	insertFeedback = `INSERT INTO feedback
		(event_id, recipe_id, ingredients, techniques, rating, complexity, novel, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertProgress = `INSERT INTO learning_progress
		(recorded_at, skill_level, overall_mastery, known_ingredients, known_techniques, successful_combinations)
		VALUES (?, ?, ?, ?, ?, ?)`

	upsertCompatibility = `INSERT INTO ingredient_compatibility
		(ingredient1, ingredient2, compatibility_score, confidence_score, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (ingredient1, ingredient2) DO UPDATE SET
			compatibility_score = excluded.compatibility_score,
			confidence_score = excluded.confidence_score,
			updated_at = excluded.updated_at`
)
