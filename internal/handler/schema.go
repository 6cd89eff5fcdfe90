package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wizelai/insight-engine/internal/models"
	"github.com/wizelai/insight-engine/internal/schema"
)

// SchemaHandler serves the table catalog so clients can show users what is
// queryable. The catalog is compiled in; no warehouse round trip.
type SchemaHandler struct{}

func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{}
}

// ListTables handles GET /api/v1/schema
func (h *SchemaHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables := make([]models.TableInfo, 0, len(schema.TableNames))
	for _, name := range schema.TableNames {
		tbl, ok := schema.Lookup(name)
		if !ok {
			continue
		}
		tables = append(tables, toTableInfo(tbl))
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"tables": tables,
	})
}

// GetTable handles GET /api/v1/schema/{table}
func (h *SchemaHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	tbl, ok := schema.Lookup(name)
	if !ok {
		models.WriteError(w, http.StatusNotFound, "unknown table: "+name)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"table":  toTableInfo(tbl),
	})
}

func toTableInfo(tbl schema.Table) models.TableInfo {
	cols := make([]models.Column, len(tbl.Columns))
	for i, c := range tbl.Columns {
		cols[i] = models.Column{Name: c.Name, Type: c.Type, Description: c.Description}
	}
	return models.TableInfo{
		Name:        tbl.Name,
		Description: tbl.Description,
		Columns:     cols,
		DateColumn:  tbl.DateColumn,
		RateColumns: tbl.RateColumns,
	}
}
