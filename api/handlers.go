package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

type handlers struct {
	board   Board
	deduper Deduper
	updates *updateBroker
	log     *log.Logger
}

// Register wires up all API routes on the provided Echo instance. A nil
// deduper disables Idempotency-Key handling.
func Register(e *echo.Echo, board Board, deduper Deduper, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &handlers{board: board, deduper: deduper, updates: newUpdateBroker(), log: logger}
	e.Server.RegisterOnShutdown(h.updates.close)

	e.GET("/api/board", observe("/api/board", logger, h.getBoard))
	e.PUT("/api/filter", observe("/api/filter", logger, h.putFilter))
	e.POST("/api/columns/:column/tasks", observe("/api/columns/:column/tasks", logger, h.postTask))
	e.POST("/api/tasks/:id/move", observe("/api/tasks/:id/move", logger, h.moveTask))
	e.DELETE("/api/columns/:column/tasks/:id", observe("/api/columns/:column/tasks/:id", logger, h.deleteTask))
	e.POST("/api/actions", observe("/api/actions", logger, h.postActions))
	e.GET("/api/stream", h.streamBoard)
	e.GET("/healthz", healthz)
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *handlers) writeBoard(c echo.Context) error {
	metrics := metricsFrom(c)
	view := h.board.VisibleBoard()
	n := 0
	for _, col := range view.Columns {
		n += len(col.Tasks)
	}
	metrics.SetTasksReturned(n)
	return c.JSON(http.StatusOK, newBoardResponse(view, h.board.Filter()))
}

func (h *handlers) getBoard(c echo.Context) error {
	if values, ok := c.QueryParams()["filter"]; ok && len(values) > 0 && values[0] != h.board.Filter() {
		h.board.SetFilter(values[0])
		h.updates.notify()
	}
	return h.writeBoard(c)
}

func (h *handlers) putFilter(c echo.Context) error {
	metrics := metricsFrom(c)
	decodeStart := time.Now()
	var req filterRequest
	err := decodeBody(c, &req)
	metrics.ObserveDecode(time.Since(decodeStart))
	if err != nil {
		metrics.SetErrorStage("decode")
		return c.String(http.StatusBadRequest, "invalid body")
	}
	h.board.SetFilter(req.Text)
	h.updates.notify()
	return h.writeBoard(c)
}

func (h *handlers) postTask(c echo.Context) error {
	metrics := metricsFrom(c)
	ctx := c.Request().Context()

	column := domain.ColumnID(c.Param("column"))
	if !domain.KnownColumn(column) {
		metrics.SetErrorStage("unknown_column")
		return c.String(http.StatusNotFound, "unknown column")
	}

	decodeStart := time.Now()
	var draft domain.TaskDraft
	err := decodeBody(c, &draft)
	metrics.ObserveDecode(time.Since(decodeStart))
	if err != nil {
		metrics.SetErrorStage("decode")
		return c.String(http.StatusBadRequest, "invalid body")
	}

	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	if key != "" && h.deduper != nil {
		claimed, err := h.deduper.Claim(ctx, column, key)
		if err != nil {
			metrics.SetErrorStage("deduper")
			h.log.WithError(err).Error("idempotency check failed")
			return c.String(http.StatusServiceUnavailable, "idempotency check failed")
		}
		if !claimed {
			metrics.SetErrorStage("duplicate")
			return c.String(http.StatusConflict, "duplicate request")
		}
	} else {
		key = ""
	}

	applyStart := time.Now()
	task, ok, err := h.board.AddTask(column, draft)
	metrics.ObserveApply(time.Since(applyStart))
	if err != nil || !ok {
		h.releaseKey(ctx, column, key)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDraft) {
			metrics.SetErrorStage("validate")
			return c.String(http.StatusBadRequest, err.Error())
		}
		metrics.SetErrorStage("apply")
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		metrics.SetErrorStage("unknown_column")
		return c.String(http.StatusNotFound, "unknown column")
	}
	h.updates.notify()
	metrics.SetChanged(true)
	metrics.SetTasksReturned(1)
	return c.JSON(http.StatusCreated, task)
}

func (h *handlers) releaseKey(ctx context.Context, column domain.ColumnID, key string) {
	if key == "" || h.deduper == nil {
		return
	}
	if err := h.deduper.Release(ctx, column, key); err != nil {
		h.log.WithError(err).WithField("key", key).Warn("failed to release idempotency key")
	}
}

func (h *handlers) moveTask(c echo.Context) error {
	metrics := metricsFrom(c)
	taskID := c.Param("id")

	decodeStart := time.Now()
	var req moveRequest
	err := decodeBody(c, &req)
	metrics.ObserveDecode(time.Since(decodeStart))
	if err != nil {
		metrics.SetErrorStage("decode")
		return c.String(http.StatusBadRequest, "invalid body")
	}

	from := req.From
	if from == "" {
		owner, _, found := h.board.Board().Find(taskID)
		if !found {
			return c.JSON(http.StatusOK, changedResponse{Changed: false})
		}
		from = owner
	}

	applyStart := time.Now()
	changed := h.board.MoveTask(from, req.To, taskID)
	metrics.ObserveApply(time.Since(applyStart))
	metrics.SetChanged(changed)
	if changed {
		h.updates.notify()
	}
	return c.JSON(http.StatusOK, changedResponse{Changed: changed})
}

func (h *handlers) deleteTask(c echo.Context) error {
	metrics := metricsFrom(c)

	applyStart := time.Now()
	changed := h.board.DeleteTask(domain.ColumnID(c.Param("column")), c.Param("id"))
	metrics.ObserveApply(time.Since(applyStart))
	metrics.SetChanged(changed)
	if changed {
		h.updates.notify()
	}
	return c.JSON(http.StatusOK, changedResponse{Changed: changed})
}

// postActions applies a batch of commands in order as one step. The whole
// batch is rejected when any command is invalid.
func (h *handlers) postActions(c echo.Context) error {
	metrics := metricsFrom(c)

	decodeStart := time.Now()
	cmds := make([]domain.Command, 0, 4)
	err := decodeBody(c, &cmds)
	metrics.ObserveDecode(time.Since(decodeStart))
	if err != nil {
		metrics.SetErrorStage("decode")
		return c.JSON(http.StatusBadRequest, actionsResponse{Error: "invalid body"})
	}

	actions := make([]domain.Action, len(cmds))
	for i, cmd := range cmds {
		a, err := cmd.Action()
		if err != nil {
			metrics.SetErrorStage("validate")
			return c.JSON(http.StatusBadRequest, actionsResponse{Error: err.Error()})
		}
		actions[i] = a
	}

	applyStart := time.Now()
	resp := actionsResponse{Changed: h.board.DispatchAll(actions)}
	metrics.ObserveApply(time.Since(applyStart))
	changed := false
	for _, c := range resp.Changed {
		changed = changed || c
	}
	metrics.SetChanged(changed)
	if changed {
		h.updates.notify()
	}
	return c.JSON(http.StatusOK, resp)
}
