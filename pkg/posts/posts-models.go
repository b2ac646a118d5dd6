package posts

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// FeedRow is the aggregated, viewer-relative shape of a post in the ranked feed.
type FeedRow struct {
	Id      int64
	Title   string
	Url     *string
	Image   *string
	Content *string
	Author  string
	Avatar  *string

	// Posted renders the creation instant in a human readable form
	Posted string

	Comments int64

	// Score is the net vote total across all voters, zero when nobody voted
	Score int64

	// ViewerVote is the viewer's own net contribution; nil distinguishes
	// "never voted" from a net-zero vote
	ViewerVote *int64

	// Keywords follow the aggregation order of the underlying query
	Keywords []string
}

type Post struct {
	Id     int64
	Title  string
	Author string
	Posted string
}

type AddPostData struct {
	Title    string
	Url      string
	Image    string
	Content  string
	Keywords []string
}

func (data AddPostData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&data.Url, is.URL),
		validation.Field(&data.Keywords, validation.Each(validation.Required, validation.Length(1, 30))),
	)
}

// Comments

type Comment struct {
	Id       int64
	Content  string
	Author   string
	PostId   int64
	ParentId *int64
	Posted   string
}

type AddCommentData struct {
	Content  string
	ParentId *int64
}

func (data AddCommentData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Content, validation.Required, validation.Length(1, 3000)),
	)
}

// Votes

type VoteDirection string

const (
	Up   VoteDirection = "up"
	Down VoteDirection = "down"
)

var voteDirections = []interface{}{Up, Down}

type VoteData struct {
	Direction VoteDirection
}

func (data VoteData) Validate() error {
	return validation.ValidateStruct(&data, validation.Field(&data.Direction,
		validation.Required,
		validation.In(voteDirections...),
	))
}
