package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readingroom/internal/importers"
)

type ImportController struct {
	importer *importers.Importer
}

func NewImportController(importer *importers.Importer) *ImportController {
	return &ImportController{importer: importer}
}

// ImportBooks batch-imports an ordered list of candidate records.
// Duplicates and per-item cover failures never abort the batch; the
// response counts imported vs. skipped and names each skipped title.
// POST /api/import/books
func (ic *ImportController) ImportBooks(c *gin.Context) {
	var candidates []importers.Candidate
	if err := c.ShouldBindJSON(&candidates); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(candidates) == 0 {
		respondBadRequest(c, "no books to import")
		return
	}

	result, err := ic.importer.Import(candidates)
	if err != nil {
		respondInternalError(c, err, "batch import")
		return
	}
	c.JSON(http.StatusOK, result)
}
