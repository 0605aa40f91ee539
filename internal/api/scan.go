package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"checkin/internal/auth"
	"checkin/internal/metrics"
	"checkin/internal/student"
)

// maxPhotoBytes caps a single camera capture before downscaling. The
// request body may be larger by the base64 overhead of a JSON data URL.
const (
	maxPhotoBytes = 15 << 20
	maxScanBody   = maxPhotoBytes/3*4 + 1<<20
)

var errPhotoTooLarge = fmt.Errorf("%w: photo larger than %d MB", student.ErrValidation, maxPhotoBytes>>20)

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errPhotoTooLarge
	}
	return student.ErrValidation
}

type scanJSON struct {
	Photo        string `json:"photo"`
	FeeCollected bool   `json:"feeCollected"`
}

// readScan accepts either a multipart form (photo file plus fee_collected)
// or a JSON body carrying a base64 data URL from the kiosk camera.
func readScan(c *gin.Context) ([]byte, bool, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxScanBody)
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req scanJSON
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, false, bodyError(err)
		}
		data := req.Photo
		if i := strings.Index(data, ","); strings.HasPrefix(data, "data:") && i >= 0 {
			data = data[i+1:]
		}
		photo, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, false, student.ErrValidation
		}
		if len(photo) > maxPhotoBytes {
			return nil, false, errPhotoTooLarge
		}
		return photo, req.FeeCollected, nil
	}

	fh, err := c.FormFile("photo")
	collected, _ := strconv.ParseBool(c.PostForm("fee_collected"))
	if err != nil {
		return nil, collected, bodyError(err)
	}
	if fh.Size > maxPhotoBytes {
		return nil, collected, errPhotoTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, collected, student.ErrValidation
	}
	defer f.Close()
	photo, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil {
		return nil, collected, student.ErrValidation
	}
	if len(photo) > maxPhotoBytes {
		return nil, collected, errPhotoTooLarge
	}
	return photo, collected, nil
}

func (h *handlers) scanLookup(c *gin.Context) {
	st, err := h.Students.FindByQRCode(c.Request.Context(), c.Param("qr"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.Project(st, h.Now()))
}

// scanSearch backs the manual lookup tab for students without their badge.
func (h *handlers) scanSearch(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"students": roster.Cards(h.Now())})
}

func (h *handlers) scanCheckIn(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.Students.FindByQRCode(ctx, c.Param("qr"))
	if err != nil {
		writeError(c, err)
		return
	}
	photo, collected, err := readScan(c)
	if err != nil {
		writeError(c, err)
		return
	}
	st, err = h.Students.CheckIn(ctx, st.ID, student.CheckInRequest{
		Photo:        photo,
		FeeCollected: collected,
		Actor:        auth.Actor(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Transitions.WithLabelValues(student.ChangeCheckedIn).Inc()
	if st.CheckIn != nil && st.CheckIn.FeeCollected != nil && *st.CheckIn.FeeCollected {
		metrics.FeesCollected.Inc()
	}
	c.JSON(http.StatusOK, student.Project(st, h.Now()))
}

func (h *handlers) scanCheckOut(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.Students.FindByQRCode(ctx, c.Param("qr"))
	if err != nil {
		writeError(c, err)
		return
	}
	photo, _, err := readScan(c)
	if err != nil {
		writeError(c, err)
		return
	}
	st, err = h.Students.CheckOut(ctx, st.ID, photo, auth.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Transitions.WithLabelValues(student.ChangeCheckedOut).Inc()
	c.JSON(http.StatusOK, student.Project(st, h.Now()))
}
