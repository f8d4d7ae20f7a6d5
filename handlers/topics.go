package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ventspace/broadcast"
	"ventspace/models"
	"ventspace/topics"
)

// Broadcaster fans an event out to every websocket client.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

type createTopicRequest struct {
	Content string `json:"content"`
	Mood    string `json:"mood"`
	Mode    string `json:"mode"`
	UserID  string `json:"userId"`
}

type voteRequest struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type commentRequest struct {
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

// Topics is the REST surface of the feed. Successful mutations are pushed
// to websocket clients exactly like their socket counterparts.
type Topics struct {
	topics *topics.Service
	hub    Broadcaster
	logger *slog.Logger
}

func NewTopics(svc *topics.Service, hub Broadcaster, logger *slog.Logger) *Topics {
	return &Topics{
		topics: svc,
		hub:    hub,
		logger: logger.With(slog.String("component", "rest")),
	}
}

// Register mounts the topic routes on rg.
func (h *Topics) Register(rg *gin.RouterGroup) {
	rg.GET("/topics", h.List)
	rg.GET("/topics/:id", h.Get)
	rg.POST("/topics", h.Create)
	rg.POST("/topics/:id/votes", h.Vote)
	rg.POST("/topics/:id/comments", h.Comment)
	rg.POST("/topics/:id/reports", h.Report)
	rg.DELETE("/topics/:id", h.Delete)
}

func (h *Topics) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	list, err := h.topics.Recent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, broadcast.EventLoadTopics, "", err)
		return
	}
	c.JSON(http.StatusOK, models.NewTopicViews(list))
}

func (h *Topics) Get(c *gin.Context) {
	topic, err := h.topics.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get_topic", c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, models.NewTopicView(topic))
}

func (h *Topics) Create(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPayload})
		return
	}

	topic, err := h.topics.Create(c.Request.Context(), topics.CreateInput{
		Content: req.Content,
		Mood:    req.Mood,
		Mode:    req.Mode,
		UserID:  req.UserID,
	})
	if err != nil {
		h.fail(c, broadcast.EventCreateTopic, "", err)
		return
	}

	h.publish(broadcast.Created(topic, nil))
	c.JSON(http.StatusCreated, models.NewTopicView(topic))
}

func (h *Topics) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPayload})
		return
	}

	id := c.Param("id")
	topic, err := h.topics.Vote(c.Request.Context(), topics.VoteInput{TopicID: id, UserID: req.UserID, Type: req.Type})
	if err != nil {
		h.fail(c, broadcast.EventVoteTopic, id, err)
		return
	}

	h.publish(broadcast.Voted(topic, nil))
	c.JSON(http.StatusOK, models.NewTopicView(topic))
}

func (h *Topics) Comment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPayload})
		return
	}

	id := c.Param("id")
	topic, err := h.topics.Comment(c.Request.Context(), topics.CommentInput{TopicID: id, Text: req.Text, UserID: req.UserID})
	if err != nil {
		h.fail(c, broadcast.EventCommentTopic, id, err)
		return
	}

	h.publish(broadcast.Commented(topic, nil))
	c.JSON(http.StatusOK, models.NewTopicView(topic))
}

func (h *Topics) Report(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPayload})
		return
	}

	id := c.Param("id")
	topic, err := h.topics.Report(c.Request.Context(), topics.ReportInput{TopicID: id, UserID: req.UserID})
	if err != nil {
		h.fail(c, broadcast.EventReportTopic, id, err)
		return
	}

	h.publish(broadcast.Reported(topic, nil))
	c.JSON(http.StatusOK, models.NewTopicView(topic))
}

// Delete takes the requester id from the JSON body, or from the userId
// query parameter for clients that cannot send a DELETE body.
func (h *Topics) Delete(c *gin.Context) {
	var req userRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPayload})
			return
		}
	}
	if req.UserID == "" {
		req.UserID = c.Query("userId")
	}

	id := c.Param("id")
	result, err := h.topics.Delete(c.Request.Context(), topics.DeleteInput{TopicID: id, UserID: req.UserID})
	if err != nil {
		logOutcome(c.Request.Context(), h.logger, broadcast.EventDeleteTopic, id, err)
		c.JSON(status(err), result)
		return
	}

	h.publish(broadcast.Deleted(id, nil))
	c.JSON(http.StatusOK, result)
}

func (h *Topics) publish(d broadcast.Delivery) {
	if d.Scope == broadcast.Everyone && h.hub != nil {
		h.hub.Broadcast(d.Event, d.Payload)
	}
}

func (h *Topics) fail(c *gin.Context, op, topicID string, err error) {
	logOutcome(c.Request.Context(), h.logger, op, topicID, err)
	c.JSON(status(err), gin.H{"error": models.MessageOf(err)})
}

// status maps a service error to its HTTP status code.
func status(err error) int {
	kind := models.KindOf(err)
	switch {
	case kind.IsValidation():
		return http.StatusBadRequest
	case kind == models.KindNotOwner:
		return http.StatusForbidden
	case kind == models.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
