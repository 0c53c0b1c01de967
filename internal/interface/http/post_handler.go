package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
	"github.com/ChaoPei/flasky/pkg/response"
)

// ShowFollowedCookie remembers whether the home listing shows only followed authors.
const ShowFollowedCookie = "show_followed"

const showFollowedMaxAge = 30 * 24 * 60 * 60

type PostHandler struct {
	Svc    *application.PostService
	Logger *logrus.Logger
	Secure bool
}

func NewPostHandler(svc *application.PostService, logger *logrus.Logger, secureCookies bool) *PostHandler {
	return &PostHandler{Svc: svc, Logger: logger, Secure: secureCookies}
}

type postRequest struct {
	Body string `json:"body" binding:"required"`
}

type commentRequest struct {
	Body string `json:"body" binding:"required,max=2000"`
}

// showFollowed reads ?followed=, falling back to the show_followed cookie.
func showFollowed(c *gin.Context) bool {
	if v, ok := c.GetQuery("followed"); ok {
		b, _ := strconv.ParseBool(v)
		return b
	}
	v, _ := c.Cookie(ShowFollowedCookie)
	return v == "1"
}

// List GET /api/posts?page=&followed=
func (h *PostHandler) List(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	page := pageParam(c)
	followed := showFollowed(c) && p.IsAuthenticated()
	posts, total, err := h.Svc.List(c.Request.Context(), p, page, followed)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	meta := response.NewPagination(page, h.Svc.PostsPerPage, total)
	response.Success(c, http.StatusOK, gin.H{"posts": postViews(posts, p), "show_followed": followed}, "posts", meta)
}

// ShowAll POST /api/posts/show-all
func (h *PostHandler) ShowAll(c *gin.Context) {
	c.SetCookie(ShowFollowedCookie, "", showFollowedMaxAge, "/", "", h.Secure, true)
	response.Success[any](c, http.StatusOK, gin.H{"show_followed": false}, "showing all posts", nil)
}

// ShowFollowed POST /api/posts/show-followed
func (h *PostHandler) ShowFollowed(c *gin.Context) {
	c.SetCookie(ShowFollowedCookie, "1", showFollowedMaxAge, "/", "", h.Secure, true)
	response.Success[any](c, http.StatusOK, gin.H{"show_followed": true}, "showing followed posts", nil)
}

// Create POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req postRequest
	if !bind(c, &req) {
		return
	}
	p := middleware.PrincipalFrom(c)
	post, err := h.Svc.Create(c.Request.Context(), p, req.Body)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, postView(post, p), "post created", nil)
}

// Get GET /api/posts/:id?page= ; page=-1 jumps to the last page of comments.
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p := middleware.PrincipalFrom(c)
	page := pageParam(c)
	if c.Query("page") == "-1" {
		head, err := h.Svc.Get(c.Request.Context(), id, 1)
		if err != nil {
			fail(c, h.Logger, err)
			return
		}
		page = h.Svc.LastCommentsPage(head.CommentsTotal)
	}
	detail, err := h.Svc.Get(c.Request.Context(), id, page)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"post":     postView(detail.Post, p),
		"comments": commentViews(detail.Comments, p),
	}, "post", response.NewPagination(page, h.Svc.CommentsPerPage, detail.CommentsTotal))
}

// Edit PUT /api/posts/:id
func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req postRequest
	if !bind(c, &req) {
		return
	}
	p := middleware.PrincipalFrom(c)
	post, err := h.Svc.Edit(c.Request.Context(), p, id, req.Body)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, postView(post, p), "the post has been updated", nil)
}

// AddComment POST /api/posts/:id/comments
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bind(c, &req) {
		return
	}
	p := middleware.PrincipalFrom(c)
	cm, err := h.Svc.AddComment(c.Request.Context(), p, id, req.Body)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, commentView(cm, p), "your comment has been published", nil)
}

// Search GET /api/posts/search?q=&size=
func (h *PostHandler) Search(c *gin.Context) {
	hits, err := h.Svc.SearchPosts(c.Request.Context(), c.Query("q"), sizeParam(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}
