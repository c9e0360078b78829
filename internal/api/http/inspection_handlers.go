package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FrameLens/backend/internal/inspection"
	"github.com/gin-gonic/gin"
)

// InspectRequest starts an inspection
type InspectRequest struct {
	URL string `json:"url" binding:"required"`
}

// InspectionSummary is a listing entry
type InspectionSummary struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Origin    string    `json:"origin"`
	Frames    int       `json:"frames"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInspection inspects a page
func (h *Handlers) CreateInspection(c *gin.Context) {
	var req InspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	in, err := h.traced(c, "inspection.inspect", func(ctx context.Context) (*inspection.Inspection, error) {
		return h.service.Inspect(ctx, req.URL)
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"inspection": in.View(false),
	})
}

// ListInspections lists stored inspections
func (h *Handlers) ListInspections(c *gin.Context) {
	list := h.service.List()
	out := make([]InspectionSummary, 0, len(list))
	for _, in := range list {
		v := in.View(false)
		out = append(out, InspectionSummary{
			ID:        v.ID,
			URL:       v.URL,
			Origin:    v.Origin,
			Frames:    len(v.Frames),
			UpdatedAt: v.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"inspections": out,
	})
}

// GetInspection returns one inspection; ?tree=true adds the frame tree
func (h *Handlers) GetInspection(c *gin.Context) {
	in, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	tree, _ := strconv.ParseBool(c.Query("tree"))
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"inspection": in.View(tree),
	})
}

// ReloadInspection re-inspects a page bypassing caches
func (h *Handlers) ReloadInspection(c *gin.Context) {
	id := c.Param("id")
	in, err := h.traced(c, "inspection.reload", func(ctx context.Context) (*inspection.Inspection, error) {
		return h.service.Reload(ctx, id)
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"inspection": in.View(false),
	})
}

// DeleteInspection forgets an inspection
func (h *Handlers) DeleteInspection(c *gin.Context) {
	if err := h.service.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListFrames lists the frames of an inspection
func (h *Handlers) ListFrames(c *gin.Context) {
	in, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"frames":  in.Frames(),
	})
}

// MarkNested records the nested iframe the pointer is over
func (h *Handlers) MarkNested(c *gin.Context) {
	var req struct {
		Src string `json:"src"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.service.MarkNested(c.Param("id"), c.Param("frame"), req.Src); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetCookies renders the cookie table. Query parameters override the stored
// preferences: sort, desc and columns (comma separated visible columns).
func (h *Handlers) GetCookies(c *gin.Context) {
	prefs, err := h.queryPreferences(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	table, err := h.service.Table(c.Param("id"), c.Query("frame"), prefs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"table":   table,
	})
}

func (h *Handlers) queryPreferences(c *gin.Context) (*cookies.Preferences, error) {
	sortKey, hasSort := c.GetQuery("sort")
	columns, hasColumns := c.GetQuery("columns")
	if !hasSort && !hasColumns {
		return nil, nil
	}

	in, err := h.service.Get(c.Param("id"))
	if err != nil {
		return nil, err
	}
	prefs := in.Preferences()

	if hasSort {
		prefs.Sorting = nil
		if sortKey != "" {
			desc, _ := strconv.ParseBool(c.Query("desc"))
			prefs.Sorting = &cookies.Sorting{Key: sortKey, Desc: desc}
		}
	}
	if hasColumns {
		visible := map[string]bool{}
		for _, key := range strings.Split(columns, ",") {
			if key = strings.TrimSpace(key); key != "" {
				visible[key] = true
			}
		}
		prefs.SelectedColumns = make(map[string]bool)
		for _, col := range h.service.Columns() {
			prefs.SelectedColumns[col.Key] = visible[col.Key]
		}
		for key := range visible {
			if _, ok := prefs.SelectedColumns[key]; !ok {
				// unknown keys are reported by the table builder
				prefs.SelectedColumns[key] = true
			}
		}
	}
	return &prefs, nil
}

// SetPreferences stores the cookie table preferences
func (h *Handlers) SetPreferences(c *gin.Context) {
	var prefs cookies.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.service.SetPreferences(c.Param("id"), prefs); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"preferences": prefs,
	})
}

// SetSelection updates the selected frame and cookies
func (h *Handlers) SetSelection(c *gin.Context) {
	var sel inspection.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	id := c.Param("id")
	if err := h.service.Select(id, sel); err != nil {
		h.fail(c, err)
		return
	}

	in, err := h.service.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"selection": in.Selection(),
	})
}

// ExportInspection downloads a compressed JSON export
func (h *Handlers) ExportInspection(c *gin.Context) {
	exp, err := h.service.Export(c.Param("id"), c.DefaultQuery("format", inspection.FormatGzip))
	if err != nil {
		h.fail(c, err)
		return
	}

	contentType := "application/gzip"
	if exp.Format == inspection.FormatZstd {
		contentType = "application/zstd"
	}
	c.Header("Content-Disposition", `attachment; filename="`+exp.Filename+`"`)
	c.Data(http.StatusOK, contentType, exp.Data)
}

// traced runs a crawl inside a child span of the request
func (h *Handlers) traced(c *gin.Context, name string, fn func(ctx context.Context) (*inspection.Inspection, error)) (*inspection.Inspection, error) {
	ctx := c.Request.Context()
	if h.tracer == nil {
		return fn(ctx)
	}

	span, ctx := h.tracer.StartSpan(ctx, name)
	in, err := fn(ctx)
	if err != nil {
		span.SetError(err)
	} else {
		span.SetTag("inspection_id", in.ID)
	}
	span.Finish()
	h.tracer.Submit(span)

	if err == nil {
		h.logger.Debug("Crawl finished", logging.InspectionID(in.ID), logging.URL(in.URL()))
	}
	return in, err
}
