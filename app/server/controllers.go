package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/config"
	"github.com/mahesh-hegde/qalam/app/editor"
	"github.com/mahesh-hegde/qalam/app/grammar"
	"github.com/mahesh-hegde/qalam/app/spell"
)

const defaultMatchLimit = 50

type QalamController struct {
	session *editor.Session
	maxEdit int
}

func NewQalamController(session *editor.Session, conf *config.QalamConfig) *QalamController {
	return &QalamController{
		session: session,
		maxEdit: conf.Spell.MaxEditDistance,
	}
}

type textRequest struct {
	Text string `json:"text"`
	// Analyze only: wait for the analysis and return its annotations.
	Wait bool `json:"wait"`
}

type acceptedResponse struct {
	Accepted bool `json:"accepted"`
}

func (h *QalamController) Transliterate(c echo.Context) error {
	var span editor.Span
	if err := c.Bind(&span); err != nil {
		return common.BadRequest("invalid span: %v", err)
	}
	if span.Mode == "" {
		span.Mode = common.ModeTransliterate
	}
	sug, err := h.session.Keystroke(c.Request().Context(), span)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sug)
}

func (h *QalamController) Suggest(c echo.Context) error {
	prefix := c.QueryParam("prefix")
	if prefix == "" {
		return common.BadRequest("missing prefix")
	}
	sug, err := h.session.Keystroke(c.Request().Context(), editor.Span{
		Text:     prefix,
		Previous: c.QueryParam("previous"),
		Mode:     common.ModeComplete,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sug)
}

func (h *QalamController) Digest(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return common.BadRequest("invalid body: %v", err)
	}
	accepted, err := h.session.Commit(c.Request().Context(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acceptedResponse{Accepted: accepted})
}

func (h *QalamController) Save(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.session.Sync(ctx); err != nil {
		return err
	}
	if err := h.session.Checkpoint(ctx); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *QalamController) MatchWords(c echo.Context) error {
	pattern := c.QueryParam("re")
	if pattern == "" {
		return common.BadRequest("missing re")
	}
	limit := defaultMatchLimit
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return common.BadRequest("invalid limit")
	}
	words, err := h.session.MatchWords(c.Request().Context(), pattern, limit)
	if err != nil {
		return common.BadRequest("match failed: %v", err)
	}
	return c.JSON(http.StatusOK, words)
}

func (h *QalamController) Analyze(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return common.BadRequest("invalid body: %v", err)
	}
	ctx := c.Request().Context()
	accepted, err := h.session.Analyze(ctx, req.Text)
	if err != nil {
		return err
	}
	if !req.Wait {
		return c.JSON(http.StatusAccepted, acceptedResponse{Accepted: accepted})
	}
	if err := h.session.Sync(ctx); err != nil {
		return err
	}
	return h.Annotations(c)
}

func (h *QalamController) Annotations(c echo.Context) error {
	notes, err := h.session.Annotations(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

type solveResponse struct {
	Suggestions grammar.Suggestions   `json:"suggestions"`
	Solution    *grammar.Solution     `json:"solution"`
	Score       common.HighlightLevel `json:"score"`
}

func tupleFromQuery(c echo.Context) grammar.Tuple {
	return grammar.Tuple{
		X1: c.QueryParam("x1"),
		X2: c.QueryParam("x2"),
		Y:  c.QueryParam("y"),
		Z:  c.QueryParam("z"),
	}
}

func (h *QalamController) Solve(c echo.Context) error {
	t := tupleFromQuery(c)
	if t.Y == "" {
		return common.BadRequest("missing y")
	}
	sug, sol := h.session.Solve(t)
	return c.JSON(http.StatusOK, solveResponse{Suggestions: sug, Solution: sol, Score: sol.NormalizedScore()})
}

func (h *QalamController) Upvote(c echo.Context) error {
	var t grammar.Tuple
	if err := c.Bind(&t); err != nil {
		return common.BadRequest("invalid tuple: %v", err)
	}
	if t.Y == "" {
		return common.BadRequest("missing y")
	}
	if err := h.session.Upvote(c.Request().Context(), t); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *QalamController) Spell(c echo.Context) error {
	word := strings.TrimSpace(c.QueryParam("word"))
	if word == "" {
		return common.BadRequest("missing word")
	}
	mode, err := spell.ParseMode(c.QueryParam("mode"))
	if err != nil {
		return common.BadRequest("%v", err)
	}
	maxEdit := h.maxEdit
	if err := echo.QueryParamsBinder(c).Int("max_edit", &maxEdit).BindError(); err != nil {
		return common.BadRequest("invalid max_edit")
	}
	suggestions := h.session.Spell(word, maxEdit, mode)
	if suggestions == nil {
		suggestions = []spell.Suggestion{}
	}
	return c.JSON(http.StatusOK, suggestions)
}

type exceptionRequest struct {
	Word string `json:"word"`
}

func (h *QalamController) AddException(c echo.Context) error {
	var req exceptionRequest
	if err := c.Bind(&req); err != nil {
		return common.BadRequest("invalid body: %v", err)
	}
	if strings.TrimSpace(req.Word) == "" {
		return common.BadRequest("missing word")
	}
	if err := h.session.AddException(c.Request().Context(), req.Word); err != nil {
		return common.BadRequest("%v", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *QalamController) Stats(c echo.Context) error {
	st, err := h.session.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}
