package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"casecall-platform/internal/access"
	"casecall-platform/internal/directory"
	"casecall-platform/internal/lifecycle"
	"casecall-platform/internal/registry"
	"casecall-platform/internal/relay"
	"casecall-platform/internal/reporting"
	"casecall-platform/internal/session"
)

// Handlers binds the call services to the JSON surface. Handlers stay
// thin: decode, delegate, map errors. Authorization happens inside the
// services against the room's case, never here.
type Handlers struct {
	Lifecycle *lifecycle.Controller
	Relay     *relay.Service
	Reports   *reporting.Service
	Access    *access.Resolver
}

type createCallRequest struct {
	CaseID   string `json:"caseId" binding:"required"`
	CallKind string `json:"callKind" binding:"required"`
}

func (h *Handlers) CreateCall(c *gin.Context) {
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "caseId and callKind are required"})
		return
	}

	credential, err := session.Credential(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}

	room, p, err := h.Lifecycle.Create(c.Request.Context(), credential, req.CaseID, registry.CallKind(req.CallKind))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"roomId":   room.RoomID,
		"callKind": room.CallKind,
		"role":     p.Role,
		"status":   room.Status,
	})
}

func (h *Handlers) JoinCall(c *gin.Context) {
	credential, err := session.Credential(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}

	room, p, err := h.Lifecycle.Join(c.Request.Context(), credential, c.Param("room_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"roomId":   room.RoomID,
		"callKind": room.CallKind,
		"status":   room.Status,
		"role":     p.Role,
	})
}

func (h *Handlers) EndCall(c *gin.Context) {
	credential, err := session.Credential(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}

	if err := h.Lifecycle.End(c.Request.Context(), credential, c.Param("room_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": registry.StatusEnded})
}

type submitSignalRequest struct {
	Kind    string          `json:"kind" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

func (h *Handlers) SubmitSignal(c *gin.Context) {
	var req submitSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "kind and payload are required"})
		return
	}

	credential, err := session.Credential(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}

	length, err := h.Relay.Submit(c.Request.Context(), credential, c.Param("room_id"), registry.SignalKind(req.Kind), req.Payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "signalsLength": length})
}

// PollRoom returns room state plus the signal entries past the caller's
// cursor. The cursor is the count of entries already consumed; callers
// advance it to signalsLength even on an empty response.
func (h *Handlers) PollRoom(c *gin.Context) {
	cursor := 0
	if raw := c.Query("after"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "after must be a non-negative integer"})
			return
		}
		cursor = n
	}

	credential, err := session.Credential(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}

	res, err := h.Relay.Poll(c.Request.Context(), credential, c.Param("room_id"), cursor)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Signals == nil {
		res.Signals = []registry.SignalEntry{}
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) ListRinging(c *gin.Context) {
	caseID := c.Query("caseId")
	if caseID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "caseId is required"})
		return
	}

	credential, err := session.Credential(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}

	rooms, _, err := h.Lifecycle.ListRinging(c.Request.Context(), credential, caseID)
	if err != nil {
		writeError(c, err)
		return
	}
	if rooms == nil {
		rooms = []registry.CallRoom{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// CaseSummary aggregates call activity on a case. Consultant-side only:
// clients never see practice reporting.
func (h *Handlers) CaseSummary(c *gin.Context) {
	caseID := c.Param("case_id")

	credential, err := session.Credential(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}

	p, err := h.Access.Resolve(c.Request.Context(), caseID, credential)
	if err != nil {
		writeError(c, err)
		return
	}
	if p.Role == access.RoleClient {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "reporting is consultant-side only"})
		return
	}

	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -30), now
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
	}

	sum, err := h.Reports.CaseCallSummary(c.Request.Context(), reporting.CaseCallSummaryRequest{
		CaseID: caseID, From: from, To: to,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// writeError maps service errors onto the HTTP surface. Unrecognized
// errors become 500s and surface in the request log via c.Error.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "credential not recognized"})
	case errors.Is(err, access.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a participant of this case"})
	case errors.Is(err, directory.ErrCaseNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "case not found"})
	case errors.Is(err, registry.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, registry.ErrNotJoinable):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "room already answered or ended"})
	case errors.Is(err, registry.ErrRoomEnded):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "room has ended"})
	case errors.Is(err, lifecycle.ErrInvalidCallKind):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "callKind must be audio or video"})
	case errors.Is(err, relay.ErrInvalidKind):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "kind must be offer, answer or ice-candidate with a payload"})
	case errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid report request"})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
