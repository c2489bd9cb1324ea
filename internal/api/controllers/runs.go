package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/datallboy/catfish/internal/app"
	"github.com/datallboy/catfish/internal/report"
	"github.com/labstack/echo/v5"
)

const defaultListLimit = 50

type RunsController struct {
	App *app.Context
}

// List returns the most recent runs, newest first
func (ctrl *RunsController) List(c *echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = n
	}

	runs, err := ctrl.App.Store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, r := range runs {
		resp = append(resp, NewRunResponse(r))
	}
	return c.JSON(http.StatusOK, resp)
}

func (ctrl *RunsController) Get(c *echo.Context) error {
	run, err := ctrl.App.Store.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "run not found"})
	}
	return c.JSON(http.StatusOK, NewRunResponse(run))
}

// Failures serves a run's failed rows as JSON, or as the
// url,class,type,error CSV when format=csv.
func (ctrl *RunsController) Failures(c *echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	run, err := ctrl.App.Store.GetRun(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "run not found"})
	}

	failures, err := ctrl.App.Store.GetFailures(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	switch c.QueryParam("format") {
	case "", "json":
		return c.JSON(http.StatusOK, FailuresResponse{RunID: id, Count: len(failures), Failures: failures})
	case "csv":
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, failures); err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=failed_downloads_%s.csv", id))
		return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown format"})
	}
}
