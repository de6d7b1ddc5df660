package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/report"
	"waste_tracker/internal/store"
)

const accountingTitle = "Accounting report"

func (ctl *Controller) adminView(c *gin.Context) (report.View, report.Filter, bool) {
	f, err := reportFilter(c)
	if err != nil {
		respondError(c, err)
		return report.View{}, f, false
	}
	missions, err := ctl.missions.List(c.Request.Context(), session(c), store.MissionQuery{})
	if err != nil {
		respondError(c, err)
		return report.View{}, f, false
	}
	return report.Build(missions, f, ctl.now()), f, true
}

// Statistics returns the dashboard totals and breakdowns for the filter.
func (ctl *Controller) Statistics(c *gin.Context) {
	view, f, ok := ctl.adminView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": f.Period, "stats": view.Stats})
}

// Accounting lists the filtered missions a page at a time with statistics over all of them.
func (ctl *Controller) Accounting(c *gin.Context) {
	view, f, ok := ctl.adminView(c)
	if !ok {
		return
	}
	limit := pageLimit(c)
	c.JSON(http.StatusOK, gin.H{
		"period":     f.Period,
		"missions":   view.Page(limit),
		"has_more":   view.HasMore(limit),
		"next_limit": report.NextLimit(limit),
		"stats":      view.Stats,
	})
}

func (ctl *Controller) AccountingExportCSV(c *gin.Context) {
	view, _, ok := ctl.adminView(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, view.Filtered, report.AccountingColumns); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, ctl.exportName("csv"), "text/csv; charset=utf-8", buf.Bytes())
}

func (ctl *Controller) AccountingExportXLSX(c *gin.Context) {
	view, _, ok := ctl.adminView(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, accountingTitle, view, report.AccountingColumns, ctl.now()); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, ctl.exportName("xlsx"), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (ctl *Controller) AccountingPrint(c *gin.Context) {
	view, f, ok := ctl.adminView(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := report.WritePrintHTML(&buf, report.Document{
		Title:     accountingTitle,
		Party:     "All clients",
		Period:    f.Period,
		Generated: ctl.now(),
		View:      view,
		Columns:   report.AccountingColumns,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (ctl *Controller) exportName(ext string) string {
	return fmt.Sprintf("accounting-%s.%s", ctl.now().UTC().Format("2006-01-02"), ext)
}

func attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}

// slug keeps letters and digits of a name for use in a file name.
func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, name)
	if s = strings.Trim(s, "-"); s == "" {
		return "client"
	}
	return s
}
