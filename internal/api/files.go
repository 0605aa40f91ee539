package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"checkin/internal/auth"
	"checkin/internal/metrics"
	"checkin/internal/student"
	"checkin/internal/tabular"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handlers) importRoster(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, student.ErrValidation)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, student.ErrValidation)
		return
	}
	defer f.Close()

	rows, err := tabular.ReadRows(f)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Students.Import(c.Request.Context(), rows, auth.Actor(c))
	metrics.ImportRows.WithLabelValues("created").Add(float64(res.Created))
	metrics.ImportRows.WithLabelValues("failed").Add(float64(len(res.Failed)))
	if err != nil {
		status, reason := statusFor(err)
		c.JSON(status, gin.H{"error": student.Message(err), "code": reason, "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) importTemplate(c *gin.Context) {
	var buf bytes.Buffer
	if err := tabular.WriteTemplate(&buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="mau-danh-sach.xlsx"`)
	c.Data(http.StatusOK, xlsxType, buf.Bytes())
}

func (h *handlers) exportRoster(c *gin.Context) {
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
	var buf bytes.Buffer
	if err := tabular.WriteRoster(&buf, roster.Visible(), h.Location); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+tabular.ExportFileName(h.Now())+`"`)
	c.Data(http.StatusOK, xlsxType, buf.Bytes())
}
