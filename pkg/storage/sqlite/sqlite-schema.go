package sqlite

const schema = `
BEGIN TRANSACTION;

CREATE TABLE
	IF NOT EXISTS users (
		username TEXT UNIQUE PRIMARY KEY COLLATE NOCASE,
		password TEXT NOT NULL,
		avatar TEXT
	);

CREATE TABLE
	IF NOT EXISTS sessions (
		sessionid TEXT UNIQUE PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		FOREIGN KEY (username) REFERENCES users (username)
	);

CREATE TABLE
	IF NOT EXISTS posts (
		id INTEGER UNIQUE PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		url TEXT,
		image TEXT,
		content TEXT,
		username TEXT NOT NULL,
		timestamp TEXT DEFAULT CURRENT_TIMESTAMP NOT NULL,
		FOREIGN KEY (username) REFERENCES users (username)
	);

CREATE TABLE
	IF NOT EXISTS comments (
		id INTEGER UNIQUE PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		username TEXT NOT NULL,
		post_id INTEGER NOT NULL,
		parent_id INTEGER,
		timestamp TEXT DEFAULT CURRENT_TIMESTAMP NOT NULL,
		FOREIGN KEY (username) REFERENCES users (username),
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
	);

CREATE TABLE
	IF NOT EXISTS post_votes (
		post_id INTEGER,
		username TEXT NOT NULL,
		up INTEGER DEFAULT 0,
		down INTEGER DEFAULT 0,
		PRIMARY KEY (post_id, username),
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE,
		FOREIGN KEY (username) REFERENCES users (username)
	);

CREATE TABLE
	IF NOT EXISTS comment_votes (
		comment_id INTEGER,
		username TEXT NOT NULL,
		up INTEGER DEFAULT 0,
		down INTEGER DEFAULT 0,
		PRIMARY KEY (comment_id, username),
		FOREIGN KEY (comment_id) REFERENCES comments (id) ON DELETE CASCADE,
		FOREIGN KEY (username) REFERENCES users (username)
	);

CREATE TABLE
	IF NOT EXISTS keywords (
		id INTEGER PRIMARY KEY,
		keyword TEXT NOT NULL UNIQUE
	);

CREATE TABLE
	IF NOT EXISTS post_keywords (
		post_id INTEGER NOT NULL,
		keyword_id INTEGER NOT NULL,
		PRIMARY KEY (post_id, keyword_id),
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE,
		FOREIGN KEY (keyword_id) REFERENCES keywords (id)
	);

COMMIT;
`
