package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"checkin/internal/activity"
	"checkin/internal/auth"
	"checkin/internal/metrics"
	"checkin/internal/qr"
	"checkin/internal/student"
)

// rosterFilter reads the search bar, the dropdowns and an optional
// quick-filter preset from the query string.
func rosterFilter(c *gin.Context) (student.Filter, error) {
	var f student.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		return f, student.ErrValidation
	}
	if preset := c.Query("filter"); preset != "" {
		return f.WithPreset(preset)
	}
	return f, nil
}

func (h *handlers) listStudents(c *gin.Context) {
	f, err := rosterFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	roster, err := h.Students.Roster(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	cards := roster.Cards(h.Now())
	c.JSON(http.StatusOK, gin.H{
		"students": cards,
		"visible":  len(cards),
		"stats":    roster.Stats(),
	})
}

func (h *handlers) getStudent(c *gin.Context) {
	st, err := h.Students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.Project(st, h.Now()))
}

func (h *handlers) createStudent(c *gin.Context) {
	var in student.NewStudent
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, student.ErrValidation)
		return
	}
	st, err := h.Students.Create(c.Request.Context(), in, auth.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Transitions.WithLabelValues(student.ChangeCreated).Inc()
	c.JSON(http.StatusCreated, st)
}

func (h *handlers) deleteStudent(c *gin.Context) {
	if err := h.Students.Delete(c.Request.Context(), c.Param("id"), auth.Actor(c)); err != nil {
		writeError(c, err)
		return
	}
	metrics.Transitions.WithLabelValues(student.ChangeDeleted).Inc()
	c.Status(http.StatusNoContent)
}

func (h *handlers) updateFee(c *gin.Context) {
	var in student.FeeUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, student.ErrValidation)
		return
	}
	st, err := h.Students.UpdateFee(c.Request.Context(), c.Param("id"), in, auth.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Transitions.WithLabelValues(student.ChangeFeeUpdated).Inc()
	c.JSON(http.StatusOK, st)
}

func (h *handlers) deleteCheckIn(c *gin.Context) {
	st, err := h.Students.DeleteCheckIn(c.Request.Context(), c.Param("id"), auth.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Transitions.WithLabelValues(student.ChangeCheckInDeleted).Inc()
	c.JSON(http.StatusOK, st)
}

func (h *handlers) deleteCheckOut(c *gin.Context) {
	st, err := h.Students.DeleteCheckOut(c.Request.Context(), c.Param("id"), auth.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Transitions.WithLabelValues(student.ChangeCheckOutDeleted).Inc()
	c.JSON(http.StatusOK, st)
}

func (h *handlers) studentQR(c *gin.Context) {
	st, err := h.Students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	png, err := qr.PNG(st.QRCode, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+st.QRCode+`.png"`)
	c.Data(http.StatusOK, "image/png", png)
}

func (h *handlers) stats(c *gin.Context) {
	ctx := c.Request.Context()
	if h.Stats != nil {
		if st, ok, err := h.Stats.Get(ctx); err != nil {
			log.Printf("stats cache read: %v", err)
		} else if ok {
			c.JSON(http.StatusOK, st)
			return
		}
	}
	roster, err := h.Students.Roster(ctx, student.Filter{})
	if err != nil {
		writeError(c, err)
		return
	}
	st := roster.Stats()
	if h.Stats != nil {
		if err := h.Stats.Set(ctx, st); err != nil {
			log.Printf("stats cache write: %v", err)
		}
	}
	c.JSON(http.StatusOK, st)
}

func (h *handlers) recentActivity(c *gin.Context) {
	if h.Activity == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []any{}})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.Activity.Recent(c.Request.Context(), activity.Limit(limit))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
