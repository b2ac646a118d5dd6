package posts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/makezi/aggregator/pkg/auth"
	JSON "github.com/makezi/aggregator/pkg/json-utilities"
	"github.com/makezi/aggregator/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, ps PostRepository, sr auth.SessionRepository) {
	engine.Get("/posts", getPosts(ps), auth.WithViewer(sr))
	engine.Post("/posts", addPost(ps), auth.RequireViewer(sr))
	engine.Delete("/posts/:postId", deletePost(ps), auth.RequireViewer(sr))

	engine.Get("/posts/:postId/comments", getComments(ps))
	engine.Post("/posts/:postId/comments", addComment(ps), auth.RequireViewer(sr))

	engine.Put("/posts/:postId/vote", votePost(ps), auth.RequireViewer(sr))
	engine.Put("/comments/:commentId/vote", voteComment(ps), auth.RequireViewer(sr))
}

// getPosts serves the ranked feed; anonymous viewers are welcome and simply
// lack per-viewer vote state.
func getPosts(ps PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var viewer, _ = auth.Viewer(request)
		var filter = request.URL.Query().Get("filter")

		feed, err := ps.ListPosts(viewer, filter)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, feed)
	}
}

func addPost(ps PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		data, err := JSON.DecodeValidate[AddPostData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		var author, _ = auth.Viewer(request)

		post, err := ps.AddPost(data, author)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Created(writer, post)
	}
}

func deletePost(ps PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		postId, err := pathId(request, "postId")
		if err != nil {
			JSON.BadRequestWithMessage(writer, "malformed identifier")
			return
		}

		var author, _ = auth.Viewer(request)

		// issues a bad request regardless of ownership issues to deny information about existing resources
		if err = ps.DeletePost(postId, author); err != nil {
			JSON.BadRequest(writer)
			return
		}
		JSON.NoContent(writer)
	}
}

func getComments(ps PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		postId, err := pathId(request, "postId")
		if err != nil {
			JSON.BadRequestWithMessage(writer, "malformed identifier")
			return
		}

		comments, err := ps.ListComments(postId)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, comments)
	}
}

func addComment(ps PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		postId, err := pathId(request, "postId")
		if err != nil {
			JSON.BadRequestWithMessage(writer, "malformed identifier")
			return
		}

		data, err := JSON.DecodeValidate[AddCommentData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		var author, _ = auth.Viewer(request)

		comment, err := ps.AddComment(postId, author, data)
		switch {
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "post not found")
		case err != nil:
			JSON.InternalServerError(writer, err)
		default:
			JSON.Created(writer, comment)
		}
	}
}

func votePost(ps PostRepository) http.HandlerFunc {
	return vote("postId", func(subjectId int64, voter string, direction VoteDirection) error {
		return ps.CastPostVote(subjectId, voter, direction)
	})
}

func voteComment(ps PostRepository) http.HandlerFunc {
	return vote("commentId", func(subjectId int64, voter string, direction VoteDirection) error {
		return ps.CastCommentVote(subjectId, voter, direction)
	})
}

// vote factors the two vote endpoints; only the path parameter and the target
// relation differ.
func vote(param string, cast func(int64, string, VoteDirection) error) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		subjectId, err := pathId(request, param)
		if err != nil {
			JSON.BadRequestWithMessage(writer, "malformed identifier")
			return
		}

		data, err := JSON.DecodeValidate[VoteData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		var voter, _ = auth.Viewer(request)

		switch err = cast(subjectId, voter, data.Direction); {
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "vote subject not found")
		case errors.Is(err, ErrNotModified):
			JSON.NoContent(writer)
		case err != nil:
			JSON.InternalServerError(writer, err)
		default:
			JSON.NoContent(writer)
		}
	}
}

func pathId(request *http.Request, param string) (int64, error) {
	return strconv.ParseInt(httprouter.ParamsFromContext(request.Context()).ByName(param), 10, 64)
}
