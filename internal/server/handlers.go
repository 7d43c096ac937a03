package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/export"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/factory"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/importer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

type mappingRequest struct {
	Columns []models.ColumnMapping `json:"columns" binding:"required"`
	Mode    string                 `json:"mode"`
}

type confirmRequest struct {
	Decisions []models.ReviewDecision `json:"decisions"`
}

// upload is the file (or pasted text) of a multipart request.
type upload struct {
	name string
	data []byte
	opts factory.Options
}

// readUpload takes the "file" part, or the "text" field for pasted input.
// An optional "table_index" field picks an HTML table.
func (s *Server) readUpload(c *gin.Context) (upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	up := upload{opts: s.opts.ParseOptions}
	if raw := c.PostForm("table_index"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "table_index must be an integer")
			return upload{}, false
		}
		up.opts.TableIndex = idx
	}

	if text := c.PostForm("text"); text != "" {
		up.data = []byte(text)
		return up, true
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file required")
		return upload{}, false
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "cannot open uploaded file")
		return upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(c, "cannot read uploaded file")
		return upload{}, false
	}
	up.name = filepath.Base(header.Filename)
	up.data = data
	return up, true
}

func (s *Server) analyze(c *gin.Context) {
	up, ok := s.readUpload(c)
	if !ok {
		return
	}
	snap, err := importer.Analyze(c.Request.Context(), up.name, up.data, up.opts, s.mappings, s.logger)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) createImport(c *gin.Context) {
	up, ok := s.readUpload(c)
	if !ok {
		return
	}

	session := s.manager.Create()
	if err := s.loadInto(c, session, up); err != nil {
		s.manager.Delete(session.ID())
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session.Snapshot())
}

// addFile loads another file into an existing session. Rows already in
// the grid are kept.
func (s *Server) addFile(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	up, ok := s.readUpload(c)
	if !ok {
		return
	}
	if err := s.loadInto(c, session, up); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) loadInto(c *gin.Context, session *importer.Session, up upload) error {
	ctx := c.Request.Context()
	if err := session.Load(ctx, up.name, up.data, up.opts); err != nil {
		return err
	}
	return session.OpenMapping(ctx)
}

func (s *Server) listImports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ids": s.manager.IDs()})
}

func (s *Server) getImport(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) deleteImport(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	if session.State() == importer.StateCommitting {
		c.JSON(http.StatusConflict, errorBody{Error: "import is committing"})
		return
	}
	s.manager.Delete(session.ID())
	c.Status(http.StatusNoContent)
}

func (s *Server) applyMapping(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	mode, err := importer.ParseMode(req.Mode)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := session.ApplyMapping(c.Request.Context(), req.Columns, mode); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) confirm(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	if err := session.Confirm(c.Request.Context(), req.Decisions); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) cancel(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	if err := session.Cancel(); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) updateRow(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var patch importer.RowPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	row, err := session.UpdateRow(c.Param("tempId"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) removeRow(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	if err := session.RemoveRow(c.Param("tempId")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// commit answers 502 with the snapshot when the collaborator failed; the
// session then sits in Failed with its rows, ready for a retry.
func (s *Server) commit(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	err := session.Commit(c.Request.Context())
	snap := session.Snapshot()
	if err != nil && snap.State != importer.StateFailed {
		s.fail(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) exportRows(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	snap := session.Snapshot()

	var buf bytes.Buffer
	if err := export.Write(&buf, snap.Rows, s.opts.Delimiter); err != nil {
		s.fail(c, err)
		return
	}

	name := strings.TrimSuffix(filepath.Base(snap.Source), filepath.Ext(snap.Source))
	if name == "" || name == "." {
		name = "import"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-preview.csv"`, name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) listCategories(c *gin.Context) {
	if !s.hasCatalog(c) {
		return
	}
	categories, err := s.catalog.ListCategories(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(categories)})
}

func (s *Server) listCities(c *gin.Context) {
	if !s.hasCatalog(c) {
		return
	}
	cities, err := s.catalog.LoadCities(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(cities)})
}

func (s *Server) listUnrecognized(c *gin.Context) {
	if !s.hasCatalog(c) {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	cities, err := s.catalog.ListUnrecognizedCities(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(cities)})
}

func (s *Server) session(c *gin.Context) (*importer.Session, bool) {
	session, err := s.manager.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return session, true
}

func (s *Server) hasCatalog(c *gin.Context) bool {
	if s.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "catalog not configured"})
		return false
	}
	return true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
