package posts

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/makezi/aggregator/pkg/storage/sqlite"
	"github.com/makezi/aggregator/pkg/users"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

func newTestStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	storage, err := sqlite.New(logger, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func registerUsers(t *testing.T, storage *sqlite.Storage, usernames ...string) {
	t.Helper()
	repository := users.NewRepository(storage.Connection)
	for _, username := range usernames {
		if _, err := repository.Register(users.RegisterData{Username: username, Password: username + "123"}); err != nil {
			t.Fatalf("register %s: %v", username, err)
		}
	}
}

func addTestPost(t *testing.T, store *Store, author, title string, keywords ...string) int64 {
	t.Helper()
	post, err := store.AddPost(AddPostData{Title: title, Keywords: keywords}, author)
	if err != nil {
		t.Fatalf("add post %q: %v", title, err)
	}
	return post.Id
}

func feedRow(t *testing.T, feed []FeedRow, postId int64) FeedRow {
	t.Helper()
	for _, row := range feed {
		if row.Id == postId {
			return row
		}
	}
	t.Fatalf("post %d missing from feed", postId)
	return FeedRow{}
}

func TestFeedScores(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Bruce", "Wally")
	store := NewStore(storage.Connection)

	voted := addTestPost(t, store, "Wally", "KUNG FURY")
	unvoted := addTestPost(t, store, "Bruce", "City Light at Night")

	if err := store.CastPostVote(voted, "Jim", Up); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := store.CastPostVote(voted, "Bruce", Up); err != nil {
		t.Fatalf("vote: %v", err)
	}

	feed, err := store.ListPosts("Wally", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if score := feedRow(t, feed, voted).Score; score != 2 {
		t.Fatalf("score %d, want 2", score)
	}

	// the absence of votes normalises to zero, never to null
	if score := feedRow(t, feed, unvoted).Score; score != 0 {
		t.Fatalf("score %d, want 0", score)
	}
}

func TestViewerVote(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Bruce")
	store := NewStore(storage.Connection)

	postId := addTestPost(t, store, "Bruce", "What is the thin buzzing sound?")
	if err := store.CastPostVote(postId, "Jim", Down); err != nil {
		t.Fatalf("vote: %v", err)
	}

	feed, err := store.ListPosts("Jim", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	vote := feedRow(t, feed, postId).ViewerVote
	if vote == nil || *vote != -1 {
		t.Fatalf("viewer vote %v, want -1", vote)
	}

	// Bruce never voted: nil, not zero
	feed, err = store.ListPosts("Bruce", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if vote = feedRow(t, feed, postId).ViewerVote; vote != nil {
		t.Fatalf("viewer vote %v, want nil for a non voter", *vote)
	}

	// same for an anonymous viewer
	feed, err = store.ListPosts("", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if vote = feedRow(t, feed, postId).ViewerVote; vote != nil {
		t.Fatalf("viewer vote %v, want nil for an anonymous viewer", *vote)
	}
}

func TestFeedFilter(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Wally")
	store := NewStore(storage.Connection)

	funny := addTestPost(t, store, "Wally", "KUNG FURY", "funny", "news")
	buzzing := addTestPost(t, store, "Jim", "What is the thin buzzing sound?", "news")
	plain := addTestPost(t, store, "Jim", "City Light at Night")

	cases := []struct {
		filter string
		want   []int64
	}{
		{"", []int64{funny, buzzing, plain}},
		{"fun", []int64{funny}},       // keyword substring
		{"FURY", []int64{funny}},      // title
		{"buzzing", []int64{buzzing}}, // title
		{"BUZZING", []int64{buzzing}}, // case-insensitive
		{"wally", []int64{funny}},     // author
		{"news", []int64{funny, buzzing}},
		{"nothing matches this", nil},
	}
	for _, c := range cases {
		feed, err := store.ListPosts("Jim", c.filter)
		if err != nil {
			t.Fatalf("list %q: %v", c.filter, err)
		}
		if len(feed) != len(c.want) {
			t.Fatalf("filter %q returned %d posts, want %d", c.filter, len(feed), len(c.want))
		}
		for _, id := range c.want {
			feedRow(t, feed, id)
		}
	}
}

func TestFeedOrdering(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Bruce", "Wally")
	store := NewStore(storage.Connection)

	first := addTestPost(t, store, "Jim", "first")
	second := addTestPost(t, store, "Bruce", "second")
	third := addTestPost(t, store, "Wally", "third")

	// third outscores the rest; first and second tie at zero
	if err := store.CastPostVote(third, "Jim", Up); err != nil {
		t.Fatalf("vote: %v", err)
	}

	feed, err := store.ListPosts("Jim", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	// ties resolve to the newest post id first
	want := []int64{third, second, first}
	for i, id := range want {
		if feed[i].Id != id {
			t.Fatalf("position %d holds post %d, want %d", i, feed[i].Id, id)
		}
	}
}

func TestVoteUpsert(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Bruce")
	store := NewStore(storage.Connection)

	postId := addTestPost(t, store, "Bruce", "KUNG FURY")

	if err := store.CastPostVote(postId, "Jim", Up); err != nil {
		t.Fatalf("vote: %v", err)
	}

	// switching direction resets the opposing counter
	if err := store.CastPostVote(postId, "Jim", Down); err != nil {
		t.Fatalf("vote switch: %v", err)
	}

	var up, down, count int
	if err := storage.Connection.QueryRow(
		"SELECT COUNT(*), SUM(up), SUM(down) FROM post_votes WHERE post_id = ?", postId,
	).Scan(&count, &up, &down); err != nil {
		t.Fatalf("inspect votes: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single vote row per (post, voter), found %d", count)
	}
	if up != 0 || down != 1 {
		t.Fatalf("counters (%d, %d), want (0, 1)", up, down)
	}

	// repeating the identical vote changes nothing
	if err := store.CastPostVote(postId, "Jim", Down); !errors.Is(err, ErrNotModified) {
		t.Fatalf("expected ErrNotModified, got %v", err)
	}
}

func TestVoteUnknownDirection(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Bruce")
	store := NewStore(storage.Connection)

	postId := addTestPost(t, store, "Bruce", "KUNG FURY")

	// the repository guards its own surface; validation at the handlers isn't enough
	if err := store.CastPostVote(postId, "Jim", "sideways"); err == nil {
		t.Fatal("expected an error for an unknown direction")
	}

	var count int
	if err := storage.Connection.QueryRow("SELECT COUNT(*) FROM post_votes").Scan(&count); err != nil {
		t.Fatalf("inspect votes: %v", err)
	}
	if count != 0 {
		t.Fatalf("a rejected vote should store nothing, found %d rows", count)
	}
}

func TestVoteUnknownSubject(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim")
	store := NewStore(storage.Connection)

	if err := store.CastPostVote(42, "Jim", Up); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing post, got %v", err)
	}
	if err := store.CastCommentVote(42, "Jim", Up); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing comment, got %v", err)
	}
}

func TestCommentVotes(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Bruce")
	store := NewStore(storage.Connection)

	postId := addTestPost(t, store, "Bruce", "City Light at Night")
	comment, err := store.AddComment(postId, "Jim", AddCommentData{Content: "Very pretty!"})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}

	if err = store.CastCommentVote(comment.Id, "Bruce", Up); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err = store.CastCommentVote(comment.Id, "Bruce", Up); !errors.Is(err, ErrNotModified) {
		t.Fatalf("expected ErrNotModified, got %v", err)
	}

	var count int
	if err = storage.Connection.QueryRow(
		"SELECT COUNT(*) FROM comment_votes WHERE comment_id = ?", comment.Id,
	).Scan(&count); err != nil {
		t.Fatalf("inspect votes: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single vote row per (comment, voter), found %d", count)
	}
}

func TestComments(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Bruce")
	store := NewStore(storage.Connection)

	postId := addTestPost(t, store, "Bruce", "KUNG FURY")

	root, err := store.AddComment(postId, "Jim", AddCommentData{Content: "Pretty good"})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if root.Posted == "" {
		t.Fatal("expected a store assigned timestamp")
	}

	reply, err := store.AddComment(postId, "Bruce", AddCommentData{Content: "Agreed.", ParentId: &root.Id})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.ParentId == nil || *reply.ParentId != root.Id {
		t.Fatal("reply should reference its parent")
	}

	comments, err := store.ListComments(postId)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("found %d comments, want 2", len(comments))
	}
	if comments[0].Id != root.Id || comments[0].ParentId != nil {
		t.Fatal("expected the root comment first, parentless")
	}
	if comments[1].ParentId == nil || *comments[1].ParentId != root.Id {
		t.Fatal("expected the reply's parent reference to survive the round trip")
	}

	if _, err = store.AddComment(42, "Jim", AddCommentData{Content: "into the void"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing post, got %v", err)
	}
}

func TestDeletePostCascades(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim", "Bruce")
	store := NewStore(storage.Connection)

	postId := addTestPost(t, store, "Bruce", "KUNG FURY", "funny")
	if _, err := store.AddComment(postId, "Jim", AddCommentData{Content: "Pretty good"}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := store.CastPostVote(postId, "Jim", Up); err != nil {
		t.Fatalf("vote: %v", err)
	}

	// the author can't be impersonated
	if err := store.DeletePost(postId, "Jim"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a non owner, got %v", err)
	}

	if err := store.DeletePost(postId, "Bruce"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, table := range []string{"comments", "post_votes", "post_keywords"} {
		var count int
		if err := storage.Connection.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("inspect %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("%s retained %d rows after the cascade", table, count)
		}
	}

	// the author's user row survives
	if !users.NewRepository(storage.Connection).ExistsUser("Bruce") {
		t.Fatal("deleting a post should never remove its author")
	}
}

func TestKeywordReuse(t *testing.T) {
	storage := newTestStorage(t)
	registerUsers(t, storage, "Jim")
	store := NewStore(storage.Connection)

	first := addTestPost(t, store, "Jim", "first", "news")
	second := addTestPost(t, store, "Jim", "second", "news", "science")

	var count int
	if err := storage.Connection.QueryRow("SELECT COUNT(*) FROM keywords WHERE keyword = 'news'").Scan(&count); err != nil {
		t.Fatalf("inspect keywords: %v", err)
	}
	if count != 1 {
		t.Fatalf("shared keywords should reuse a single row, found %d", count)
	}

	feed, err := store.ListPosts("Jim", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if keywords := feedRow(t, feed, first).Keywords; len(keywords) != 1 || keywords[0] != "news" {
		t.Fatalf("first post keywords %v", keywords)
	}
	if keywords := feedRow(t, feed, second).Keywords; len(keywords) != 2 {
		t.Fatalf("second post keywords %v", keywords)
	}
}

// TestSeededFeed exercises the ranked feed against the demonstration fixture:
// Wally's KUNG FURY post holds two up-votes, Jim's buzzing question his own
// down-vote.
func TestSeededFeed(t *testing.T) {
	storage := newTestStorage(t)
	if err := storage.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewStore(storage.Connection)

	feed, err := store.ListPosts("Jim", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(feed) != 3 {
		t.Fatalf("found %d posts, want 3", len(feed))
	}

	// score ordering: KUNG FURY (2), City Light (0), buzzing question (-1)
	kungFury, cityLight, buzzing := feed[0], feed[1], feed[2]

	if kungFury.Title != "KUNG FURY" || kungFury.Score != 2 || kungFury.Author != "Wally" {
		t.Fatalf("unexpected top post %+v", kungFury)
	}
	if kungFury.ViewerVote != nil {
		t.Fatal("Jim never voted on KUNG FURY")
	}
	if kungFury.Comments != 4 {
		t.Fatalf("KUNG FURY carries %d comments, want 4", kungFury.Comments)
	}
	if len(kungFury.Keywords) != 2 {
		t.Fatalf("KUNG FURY keywords %v", kungFury.Keywords)
	}
	if kungFury.Posted != "Apr 21, 2015 at 00:54" {
		t.Fatalf("formatted timestamp %q", kungFury.Posted)
	}

	if cityLight.Score != 0 || cityLight.Image == nil {
		t.Fatalf("unexpected middle post %+v", cityLight)
	}

	if buzzing.Score != -1 {
		t.Fatalf("buzzing post score %d, want -1", buzzing.Score)
	}
	if buzzing.ViewerVote == nil || *buzzing.ViewerVote != -1 {
		t.Fatal("Jim's own down-vote should surface as -1")
	}
	if buzzing.Avatar == nil || *buzzing.Avatar != "http://api.adorable.io/avatars/16/Jim" {
		t.Fatalf("avatar %v", buzzing.Avatar)
	}

	// substring filtering over the keyword list
	filtered, err := store.ListPosts("Jim", "fun")
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Title != "KUNG FURY" {
		t.Fatalf("filter 'fun' returned %d posts", len(filtered))
	}
}

func TestVoteDataValidation(t *testing.T) {
	if err := (VoteData{Direction: Up}).Validate(); err != nil {
		t.Fatalf("up should validate: %v", err)
	}
	if err := (VoteData{Direction: Down}).Validate(); err != nil {
		t.Fatalf("down should validate: %v", err)
	}
	if err := (VoteData{Direction: "sideways"}).Validate(); err == nil {
		t.Fatal("expected a validation error")
	}
	if err := (VoteData{}).Validate(); err == nil {
		t.Fatal("expected a validation error for a missing direction")
	}
}
