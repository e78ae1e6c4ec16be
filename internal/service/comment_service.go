package service

import (
	"context"
	"encoding/json"
	"fmt"

	"inkwell/internal/authz"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// CommentService implements the comment lifecycle: adding to a post's thread
// and owner-only deletion.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	notifier *notifications.Notifier
}

type AddCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

// CommentDeletionResult reports what happened to a delete request. A refusal
// for a non-owner is not an error: the caller redirects back to the post and
// shows the notice.
type CommentDeletionResult struct {
	Deleted    bool
	Notice     string
	RedirectTo string
}

// NewCommentService returns a new CommentService. notifier may be nil in tests.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, notifier *notifications.Notifier) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		notifier: notifier,
	}
}

func postPath(postID uint) string {
	return fmt.Sprintf("/posts/%d", postID)
}

// AddComment appends a comment to the post's thread, stamped with the acting
// user as its author. It returns the comment and the post page to return to.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, string, error) {
	if d := authz.CanCreate(in.UserID); !d.Allowed() {
		return nil, "", decisionError(d, "comment", "")
	}

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, "", err
	}

	if err := validation.ValidateCommentContent(in.Content); err != nil {
		return nil, "", models.NewFieldValidationError(map[string]string{"content": err.Error()})
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, "", err
	}

	observability.CommentsCreated.Inc()

	if s.notifier != nil {
		_ = s.notifier.PublishFeedEvent(ctx, notifications.FeedEvent{
			Type:    notifications.EventCommentCreated,
			PostID:  post.ID,
			ActorID: in.UserID,
			Title:   post.Title,
		})
		// Tell the post author directly unless they commented themselves.
		if post.UserID != in.UserID {
			payload, err := json.Marshal(map[string]any{
				"type":    "comment_on_your_post",
				"post_id": post.ID,
				"title":   post.Title,
			})
			if err == nil {
				_ = s.notifier.PublishUser(ctx, post.UserID, string(payload))
			}
		}
	}

	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, "", err
	}
	return created, postPath(post.ID), nil
}

// ListComments returns the post's thread, oldest first. The post must exist.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// DeleteComment removes a comment the actor owns. An authenticated non-owner
// is refused softly: no deletion, a notice, and a redirect back to the post.
// Anonymous callers get the usual sign-in response.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*CommentDeletionResult, error) {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	switch d := authz.CanModify(in.UserID, comment.UserID); d {
	case authz.DenyAnonymous:
		return nil, decisionError(d, "comment", "")
	case authz.DenyForbidden:
		observability.AuthorizationDenials.WithLabelValues("forbidden", "comment").Inc()
		return &CommentDeletionResult{
			Deleted:    false,
			Notice:     "You can only delete your own comments",
			RedirectTo: postPath(comment.PostID),
		}, nil
	}

	if err := s.comments.Delete(ctx, in.CommentID); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.PublishFeedEvent(ctx, notifications.FeedEvent{
			Type:    notifications.EventCommentDeleted,
			PostID:  comment.PostID,
			ActorID: in.UserID,
		})
	}

	return &CommentDeletionResult{
		Deleted:    true,
		RedirectTo: postPath(comment.PostID),
	}, nil
}
