package sqlite

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// avatarSite mirrors the derivation the users package applies on registration.
const avatarSite = "http://api.adorable.io/avatars/16/"

// Seed wipes the database and loads a small fixture: three users, three
// posts, a comment thread and a handful of votes and keywords. Meant for
// development and demonstration, never for production data.
func (s *Storage) Seed() error {
	tx, err := s.Connection.Begin()
	if err != nil {
		return err
	}

	// rolling back after a commit is a safe NOP
	defer tx.Rollback()

	for _, table := range []string{"post_keywords", "keywords", "comment_votes", "post_votes", "comments", "posts", "sessions", "users"} {
		if _, err = tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return err
		}
	}

	users := []struct{ username, password string }{
		{"Jim", "jim123"},
		{"Bruce", "bruce123"},
		{"Wally", "wally123"},
	}
	for _, user := range users {
		digest, e := bcrypt.GenerateFromPassword([]byte(user.password), bcrypt.DefaultCost)
		if e != nil {
			return e
		}
		if _, err = tx.Exec(
			"INSERT INTO users (username, password, avatar) VALUES (?, ?, ?)",
			user.username, string(digest), avatarSite+user.username,
		); err != nil {
			return err
		}
	}

	posts := []struct {
		title, username, timestamp string
		url, image, content        any
	}{
		{"City Light at Night", "Bruce", "2015-01-15 01:45:06", nil, "skyline.jpg", nil},
		{"KUNG FURY", "Wally", "2015-04-21 00:54:53", "https://www.youtube.com/watch?v=bS5P_LAqiVg", nil, "10/10"},
		{"What is the thin buzzing sound that I hear when it's really quiet?", "Jim", "2015-05-03 22:24:14", nil, nil, nil},
	}
	for _, post := range posts {
		if _, err = tx.Exec(
			"INSERT INTO posts (title, url, image, content, username, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
			post.title, post.url, post.image, post.content, post.username, post.timestamp,
		); err != nil {
			return err
		}
	}

	comments := []struct {
		content, username string
		postId            int64
		parentId          any
		timestamp         string
	}{
		{"I've been waiting for this moment ever since the Kickstarter came up!", "Bruce", 2, nil, "2015-04-21 00:55:27"},
		{"Pretty good", "Jim", 2, nil, "2015-04-21 00:57:12"},
		{"Yep, 10/10", "Wally", 2, 1, "2015-04-21 00:58:05"},
		{"Agreed.", "Bruce", 2, 3, "2015-04-21 00:59:05"},
		{"Very pretty!", "Jim", 1, nil, "2015-01-15 01:59:06"},
		{"I believe it is called 'Urban Static'. You will notice it goes away during heavy snow storms since the snow starts adsorbing distant sounds.", "Bruce", 3, nil, "2015-05-03 22:26:24"},
		{"I love when it snows a lot because of how quiet the world becomes, it goes away for me during heavy snow.", "Wally", 3, 6, "2015-05-03 22:27:34"},
	}
	for _, comment := range comments {
		if _, err = tx.Exec(
			"INSERT INTO comments (content, username, post_id, parent_id, timestamp) VALUES (?, ?, ?, ?, ?)",
			comment.content, comment.username, comment.postId, comment.parentId, comment.timestamp,
		); err != nil {
			return err
		}
	}

	postVotes := []struct {
		postId   int64
		username string
		up, down int
	}{
		{3, "Jim", 0, 1},
		{2, "Bruce", 1, 0},
		{2, "Wally", 1, 0},
	}
	for _, vote := range postVotes {
		if _, err = tx.Exec(
			"INSERT INTO post_votes (post_id, username, up, down) VALUES (?, ?, ?, ?)",
			vote.postId, vote.username, vote.up, vote.down,
		); err != nil {
			return err
		}
	}

	commentVotes := []struct {
		commentId int64
		username  string
		up, down  int
	}{
		{1, "Jim", 1, 0},
		{1, "Bruce", 1, 0},
	}
	for _, vote := range commentVotes {
		if _, err = tx.Exec(
			"INSERT INTO comment_votes (comment_id, username, up, down) VALUES (?, ?, ?, ?)",
			vote.commentId, vote.username, vote.up, vote.down,
		); err != nil {
			return err
		}
	}

	keywords := []struct {
		id      int64
		keyword string
	}{
		{1, "science"}, {2, "funny"}, {3, "news"}, {4, "serious"}, {5, "relaxing"},
	}
	for _, keyword := range keywords {
		if _, err = tx.Exec("INSERT INTO keywords (id, keyword) VALUES (?, ?)", keyword.id, keyword.keyword); err != nil {
			return err
		}
	}

	postKeywords := [][2]int64{{1, 5}, {2, 2}, {2, 3}, {3, 3}}
	for _, link := range postKeywords {
		if _, err = tx.Exec("INSERT INTO post_keywords (post_id, keyword_id) VALUES (?, ?)", link[0], link[1]); err != nil {
			return err
		}
	}

	return tx.Commit()
}
