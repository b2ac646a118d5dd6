package posts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/makezi/aggregator/pkg/ntime"
	"github.com/mattn/go-sqlite3"
)

type PostRepository interface {
	ListPosts(viewer, filter string) ([]FeedRow, error)
	AddPost(data AddPostData, author string) (*Post, error)
	DeletePost(postId int64, author string) error

	ListComments(postId int64) ([]Comment, error)
	AddComment(postId int64, author string, data AddCommentData) (*Comment, error)

	CastPostVote(postId int64, voter string, direction VoteDirection) error
	CastCommentVote(commentId int64, voter string, direction VoteDirection) error
}

type Store struct {
	Connection *sql.DB
}

var (
	ErrNotFound = errors.New("not found")

	// ErrNotModified flags a vote identical to the one already recorded
	ErrNotModified = errors.New("not modified")
)

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

/*
ListPosts produces the ranked feed in one consistent read. For each post the
query aggregates:

  - the author's avatar reference
  - the comment count
  - the net score over all vote rows, normalised to zero when no votes exist
  - the viewer's own net vote, left null when the viewer never voted
  - the concatenated keyword list, later split into an ordered slice

The filter is matched as a case-insensitive substring against the title, the
author and the keyword list; any single match qualifies the post, and an
empty filter matches everything. Ordering is by score, ties broken by the
newest post id first.
*/
func (ps *Store) ListPosts(viewer, filter string) ([]FeedRow, error) {

	var pattern = "%" + filter + "%"

	rows, err := ps.Connection.Query(`
		SELECT p.id, p.title, p.url, p.image, p.content, p.username, p.timestamp, u.avatar,
			(SELECT COUNT(*)
				FROM comments
				WHERE post_id = p.id) AS comments,
			(SELECT COALESCE(SUM(up) - SUM(down), 0)
				FROM post_votes
				WHERE post_id = p.id) AS score,
			(SELECT SUM(up + -down)
				FROM post_votes
				WHERE post_id = p.id
				AND username = ?) AS viewer_vote,
			GROUP_CONCAT(k.keyword)
		FROM posts p
		JOIN users u ON u.username = p.username
		LEFT OUTER JOIN post_keywords pk ON p.id = pk.post_id
		LEFT OUTER JOIN keywords k ON pk.keyword_id = k.id
		GROUP BY p.id
		HAVING (p.title LIKE ? OR p.username LIKE ? OR GROUP_CONCAT(k.keyword) LIKE ?)
		ORDER BY score DESC, p.id DESC`,
		viewer, pattern, pattern, pattern,
	)
	if err != nil {
		return nil, err
	}

	defer closeRows(rows)

	// initialise an empty slice to avoid null serialisation
	var feed = make([]FeedRow, 0)

	for rows.Next() {
		var (
			row      FeedRow
			posted   ntime.NTime
			vote     sql.NullInt64
			keywords sql.NullString
		)
		if err = rows.Scan(
			&row.Id,
			&row.Title,
			&row.Url,
			&row.Image,
			&row.Content,
			&row.Author,
			&posted,
			&row.Avatar,
			&row.Comments,
			&row.Score,
			&vote,
			&keywords,
		); err != nil {
			return feed, err
		}

		row.Posted = posted.Formatted()
		if vote.Valid {
			row.ViewerVote = &vote.Int64
		}
		row.Keywords = splitKeywords(keywords)

		feed = append(feed, row)
	}

	return feed, rows.Err()
}

// splitKeywords turns the query's concatenated keyword column into an ordered
// slice, preserving the aggregation order.
func splitKeywords(concatenated sql.NullString) []string {
	var keywords = make([]string, 0)
	if !concatenated.Valid {
		return keywords
	}
	for _, keyword := range strings.Split(concatenated.String, ",") {
		keywords = append(keywords, strings.TrimSpace(keyword))
	}
	return keywords
}

// AddPost inserts a post, its keywords and the links between them in a single
// transaction; the creation timestamp is assigned by the store.
func (ps *Store) AddPost(data AddPostData, author string) (*Post, error) {
	tx, err := ps.Connection.Begin()
	if err != nil {
		return nil, err
	}

	// rolling back after a transaction commit will result in a safe NOP
	defer tx.Rollback()

	result, err := tx.Exec(
		"INSERT INTO posts (title, url, image, content, username) VALUES (?, ?, ?, ?, ?)",
		data.Title, nullable(data.Url), nullable(data.Image), nullable(data.Content), author,
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't add post %q: %w", data.Title, err)
	}

	postId, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, keyword := range data.Keywords {
		keyword = strings.TrimSpace(keyword)

		// keywords are shared across posts; reuse existing rows
		if _, err = tx.Exec(
			"INSERT INTO keywords (keyword) VALUES (?) ON CONFLICT (keyword) DO NOTHING",
			keyword,
		); err != nil {
			return nil, err
		}
		if _, err = tx.Exec(`
			INSERT INTO post_keywords (post_id, keyword_id)
			SELECT ?, id FROM keywords WHERE keyword = ?
			ON CONFLICT (post_id, keyword_id) DO NOTHING`,
			postId, keyword,
		); err != nil {
			return nil, err
		}
	}

	// read back the store assigned timestamp
	var posted ntime.NTime
	if err = tx.QueryRow("SELECT timestamp FROM posts WHERE id = ?", postId).Scan(&posted); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &Post{
		Id:     postId,
		Title:  data.Title,
		Author: author,
		Posted: posted.Formatted(),
	}, nil
}

// DeletePost removes a post owned by the author; comments, votes and keyword
// links follow through the schema's cascading deletes.
func (ps *Store) DeletePost(postId int64, author string) error {
	result, err := ps.Connection.Exec(
		"DELETE FROM posts WHERE id = ? AND username = ?",
		postId, author,
	)
	if err != nil {
		return err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// ListComments returns a post's comments in insertion order, parent references
// included; threading structure is the presentation layer's concern.
func (ps *Store) ListComments(postId int64) ([]Comment, error) {
	var comments = make([]Comment, 0)
	rows, err := ps.Connection.Query(`
		SELECT id, content, username, post_id, parent_id, timestamp
		FROM comments
		WHERE post_id = ?
		ORDER BY id`,
		postId,
	)
	if err != nil {
		return nil, err
	}

	defer closeRows(rows)

	for rows.Next() {
		var (
			comment Comment
			posted  ntime.NTime
		)
		if err = rows.Scan(
			&comment.Id,
			&comment.Content,
			&comment.Author,
			&comment.PostId,
			&comment.ParentId,
			&posted,
		); err != nil {
			return comments, err
		}
		comment.Posted = posted.Formatted()
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

func (ps *Store) AddComment(postId int64, author string, data AddCommentData) (*Comment, error) {
	result, err := ps.Connection.Exec(
		"INSERT INTO comments (content, username, post_id, parent_id) VALUES (?, ?, ?, ?)",
		data.Content, author, postId, data.ParentId,
	)

	// a foreign key violation signals the target post doesn't exist
	if isForeignKeyViolation(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	commentId, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	var posted ntime.NTime
	if err = ps.Connection.QueryRow(
		"SELECT timestamp FROM comments WHERE id = ?", commentId,
	).Scan(&posted); err != nil {
		return nil, err
	}

	return &Comment{
		Id:       commentId,
		Content:  data.Content,
		Author:   author,
		PostId:   postId,
		ParentId: data.ParentId,
		Posted:   posted.Formatted(),
	}, nil
}

// CastPostVote records the voter's stance on a post. The relation keys on
// (post, voter), so repeated votes update the single existing row, resetting
// the opposing counter; re-submitting an identical vote yields ErrNotModified.
func (ps *Store) CastPostVote(postId int64, voter string, direction VoteDirection) error {
	return ps.castVote(`
		INSERT INTO post_votes (post_id, username, up, down)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (post_id, username) DO UPDATE SET up = excluded.up, down = excluded.down
		WHERE up != excluded.up OR down != excluded.down`,
		postId, voter, direction,
	)
}

func (ps *Store) CastCommentVote(commentId int64, voter string, direction VoteDirection) error {
	return ps.castVote(`
		INSERT INTO comment_votes (comment_id, username, up, down)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (comment_id, username) DO UPDATE SET up = excluded.up, down = excluded.down
		WHERE up != excluded.up OR down != excluded.down`,
		commentId, voter, direction,
	)
}

func (ps *Store) castVote(query string, subjectId int64, voter string, direction VoteDirection) error {
	var up, down int
	switch direction {
	case Up:
		up, down = 1, 0
	case Down:
		up, down = 0, 1
	default:
		return fmt.Errorf("unknown vote direction %q", direction)
	}

	result, err := ps.Connection.Exec(query, subjectId, voter, up, down)

	// the vote's subject doesn't exist
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if changed, e := result.RowsAffected(); e != nil {
		return e
	} else if changed == 0 {
		return ErrNotModified
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// nullable maps empty optional attributes to store level nulls.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}
