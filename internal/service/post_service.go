package service

import (
	"context"

	"inkwell/internal/authz"
	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

const (
	// DefaultPageSize is the feed page size.
	DefaultPageSize = 5
	// MaxPageSize caps client-supplied page sizes.
	MaxPageSize = 50
)

// PageInfo describes one page of a listing.
type PageInfo struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type cachedPostPage struct {
	Posts []models.Post `json:"posts"`
	Total int64         `json:"total"`
}

// PostService implements the post lifecycle: creation, reads, owner-only
// edits and deletes.
type PostService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	notifier *notifications.Notifier
}

type CreatePostInput struct {
	UserID  uint
	Title   string
	Content string
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Title   string
	Content string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

type ListPostsInput struct {
	Page    int
	PerPage int
}

// NewPostService returns a new PostService. notifier may be nil in tests.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, notifier *notifications.Notifier) *PostService {
	return &PostService{
		posts:    posts,
		users:    users,
		notifier: notifier,
	}
}

// decisionError maps a deny decision onto the error taxonomy. The transport
// layer fills in the sign-in URL for anonymous callers.
func decisionError(d authz.Decision, resource, message string) error {
	switch d {
	case authz.DenyAnonymous:
		observability.AuthorizationDenials.WithLabelValues("anonymous", resource).Inc()
		return models.NewAuthRequiredError("")
	case authz.DenyForbidden:
		observability.AuthorizationDenials.WithLabelValues("forbidden", resource).Inc()
		return models.NewForbiddenError(message)
	}
	return nil
}

func normalizePage(in ListPostsInput) (page, perPage int) {
	page = in.Page
	if page < 1 {
		page = 1
	}
	perPage = in.PerPage
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}
	return page, perPage
}

func pageInfo(page, perPage int, total int64) *PageInfo {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

func (s *PostService) validatePostFields(title, content string) error {
	fields := map[string]string{}
	if err := validation.ValidatePostTitle(title); err != nil {
		fields["title"] = err.Error()
	}
	if err := validation.ValidatePostContent(content); err != nil {
		fields["content"] = err.Error()
	}
	if len(fields) > 0 {
		return models.NewFieldValidationError(fields)
	}
	return nil
}

// CreatePost publishes a new post stamped with the acting user as its author.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if d := authz.CanCreate(in.UserID); !d.Allowed() {
		return nil, decisionError(d, "post", "")
	}
	if err := s.validatePostFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	author, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		UserID:  in.UserID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	cache.InvalidatePattern(ctx, cache.PostListPattern())
	cache.InvalidatePattern(ctx, cache.AuthorPostsPattern(author.Username))
	observability.PostsCreated.Inc()

	if s.notifier != nil {
		_ = s.notifier.PublishFeedEvent(ctx, notifications.FeedEvent{
			Type:    notifications.EventPostCreated,
			PostID:  post.ID,
			ActorID: author.ID,
			Actor:   author.Username,
			Title:   post.Title,
		})
	}

	return s.posts.GetByID(ctx, post.ID)
}

// GetPost returns one post with its author. Reads are public.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// ListPosts returns the public feed, newest first.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]models.Post, *PageInfo, error) {
	page, perPage := normalizePage(in)
	offset := (page - 1) * perPage

	var cached cachedPostPage
	key := cache.PostListKey(page, perPage)
	err := cache.Aside(ctx, key, &cached, cache.PostListTTL, func() error {
		posts, total, err := s.posts.List(ctx, perPage, offset)
		if err != nil {
			return err
		}
		cached = cachedPostPage{Posts: posts, Total: total}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return cached.Posts, pageInfo(page, perPage, cached.Total), nil
}

// ListPostsByAuthor returns one author's posts, newest first. An unknown
// username is a not-found outcome, not an empty page.
func (s *PostService) ListPostsByAuthor(ctx context.Context, username string, in ListPostsInput) ([]models.Post, *PageInfo, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if author == nil {
		return nil, nil, models.NewNotFoundError("User", username)
	}

	page, perPage := normalizePage(in)
	offset := (page - 1) * perPage

	var cached cachedPostPage
	key := cache.AuthorPostsKey(username, page, perPage)
	err = cache.Aside(ctx, key, &cached, cache.PostListTTL, func() error {
		posts, total, err := s.posts.ListByAuthor(ctx, author.ID, perPage, offset)
		if err != nil {
			return err
		}
		cached = cachedPostPage{Posts: posts, Total: total}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return cached.Posts, pageInfo(page, perPage, cached.Total), nil
}

// UpdatePost replaces the title and content of a post the actor owns. The
// author stamp never changes, whoever edits.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if d := authz.CanModify(in.UserID, post.UserID); !d.Allowed() {
		return nil, decisionError(d, "post", "You can only edit your own posts")
	}

	if err := s.validatePostFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.PostKey(post.ID))
	cache.InvalidatePattern(ctx, cache.PostListPattern())
	cache.InvalidatePattern(ctx, cache.AuthorPostsPattern(post.User.Username))

	if s.notifier != nil {
		_ = s.notifier.PublishFeedEvent(ctx, notifications.FeedEvent{
			Type:    notifications.EventPostUpdated,
			PostID:  post.ID,
			ActorID: in.UserID,
			Actor:   post.User.Username,
			Title:   post.Title,
		})
	}

	return post, nil
}

// DeletePost removes a post the actor owns. Its comments go with it.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}

	if d := authz.CanModify(in.UserID, post.UserID); !d.Allowed() {
		return decisionError(d, "post", "You can only delete your own posts")
	}

	if err := s.posts.Delete(ctx, in.PostID); err != nil {
		return err
	}

	cache.Invalidate(ctx, cache.PostKey(post.ID))
	cache.InvalidatePattern(ctx, cache.PostListPattern())
	cache.InvalidatePattern(ctx, cache.AuthorPostsPattern(post.User.Username))

	if s.notifier != nil {
		_ = s.notifier.PublishFeedEvent(ctx, notifications.FeedEvent{
			Type:    notifications.EventPostDeleted,
			PostID:  post.ID,
			ActorID: in.UserID,
			Actor:   post.User.Username,
		})
	}

	return nil
}
