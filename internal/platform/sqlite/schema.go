package sqlite

// schema is applied on every Open. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS review_cards (
    item_id        TEXT PRIMARY KEY,
    owner_id       TEXT NOT NULL,
    item_key       TEXT NOT NULL,
    payload        TEXT,
    state          TEXT NOT NULL DEFAULT 'new'
                   CHECK (state IN ('new', 'learning', 'review', 'relearning')),
    stability      REAL NOT NULL DEFAULT 0,
    difficulty     REAL NOT NULL DEFAULT 0,
    elapsed_days   REAL NOT NULL DEFAULT 0 CHECK (elapsed_days >= 0),
    scheduled_days INTEGER NOT NULL DEFAULT 0 CHECK (scheduled_days >= 0),
    reps           INTEGER NOT NULL DEFAULT 0 CHECK (reps >= 0),
    lapses         INTEGER NOT NULL DEFAULT 0 CHECK (lapses >= 0),
    last_review    INTEGER,
    due_at         INTEGER NOT NULL,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL,
    UNIQUE (owner_id, item_key)
);

CREATE INDEX IF NOT EXISTS idx_review_cards_owner_due ON review_cards (owner_id, due_at, item_id);

CREATE TABLE IF NOT EXISTS review_logs (
    id             TEXT PRIMARY KEY,
    item_id        TEXT NOT NULL REFERENCES review_cards (item_id) ON DELETE CASCADE,
    owner_id       TEXT NOT NULL,
    rating         INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 4),
    state_before   TEXT NOT NULL,
    state_after    TEXT NOT NULL,
    elapsed_days   REAL NOT NULL DEFAULT 0,
    scheduled_days INTEGER NOT NULL DEFAULT 0,
    reviewed_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_logs_item ON review_logs (item_id, reviewed_at);
`
