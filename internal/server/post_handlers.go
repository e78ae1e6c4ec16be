package server

import (
	"fmt"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Public feed of posts, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} object{posts=[]models.Post,pagination=service.PageInfo}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, page, err := s.posts.ListPosts(c.UserContext(), parsePage(c))
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts":      posts,
		"pagination": page,
	})
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Description One post with its author and its comment thread, oldest first
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.posts.GetPost(c.UserContext(), id)
	if err != nil {
		return s.respondAppError(c, err)
	}

	comments, err := s.commentRepo.ListByPost(c.UserContext(), post.ID)
	if err != nil {
		return s.respondAppError(c, err)
	}
	post.Comments = comments
	post.CommentsCount = int64(len(comments))

	return c.JSON(post)
}

// GetUserPosts handles GET /api/users/:username/posts
// @Summary List one author's posts
// @Description The author's posts, newest first. Unknown usernames are 404.
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{posts=[]models.Post,pagination=service.PageInfo}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")

	posts, page, err := s.posts.ListPostsByAuthor(c.UserContext(), username, parsePage(c))
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts":      posts,
		"pagination": page,
	})
}

// CreatePost handles POST /api/posts
// @Summary Publish a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,content=string} true "Post body"
// @Success 201 {object} models.Post
// @Header 201 {string} Location "Detail URL of the created post"
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:  currentUserID(c),
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return s.respondAppError(c, err)
	}

	c.Set(fiber.HeaderLocation, fmt.Sprintf("/posts/%d", post.ID))
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit a post
// @Description Replace title and content. Only the author may edit.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{title=string,content=string} true "New post body"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:  currentUserID(c),
		PostID:  id,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return s.respondAppError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Remove a post and its comments. Only the author may delete.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{deleted=bool,redirect_to=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.posts.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: id,
	}); err != nil {
		return s.respondAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"deleted":     true,
		"redirect_to": "/posts",
	})
}
