// Package ingest registers the routes that load tabular data into the store:
// CSV uploads and the fixed demo fixture.
package ingest

import (
	"log"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/trustlens/trustlens/services/httpd"
	"github.com/trustlens/trustlens/table"
)

// Source keys the ingest routes write to.
const (
	CSVSource  = "csv"
	DemoSource = "demo"
)

// maxUploadBytes bounds how much of a multipart upload is held in memory.
const maxUploadBytes = 32 << 20

type Service struct {
	logger *log.Logger

	StoreService interface {
		Put(key string, t *table.Table)
	}
	HTTPDService interface {
		AddRoutes([]httpd.Route) error
	}
}

func NewService(l *log.Logger) *Service {
	return &Service{logger: l}
}

func (s *Service) Open() error {
	return s.HTTPDService.AddRoutes([]httpd.Route{
		{
			Name:        "ingest-csv",
			Method:      "POST",
			Pattern:     "/ingest/csv",
			HandlerFunc: s.serveUploadCSV,
		},
		{
			Name:        "ingest-demo",
			Method:      "GET",
			Pattern:     "/ingest/demo",
			HandlerFunc: s.serveDemo,
		},
	})
}

func (s *Service) Close() error { return nil }

type ingestResponse struct {
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

func (s *Service) serveUploadCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpd.HttpError(w, "invalid multipart form: "+err.Error(), true, http.StatusBadRequest)
		return
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		httpd.HttpError(w, "missing upload field 'file'", true, http.StatusBadRequest)
		return
	}
	defer f.Close()

	t, err := table.FromCSV(f)
	if err != nil {
		httpd.HttpError(w, err.Error(), true, http.StatusBadRequest)
		return
	}
	s.StoreService.Put(CSVSource, t)
	s.logger.Printf("I! ingested %q (%s) as source %q: %d rows, %d columns",
		fh.Filename, humanize.Bytes(uint64(fh.Size)), CSVSource, t.NumRows(), t.NumCols())

	w.Write(httpd.MarshalJSON(ingestResponse{Rows: t.NumRows(), Columns: t.ColumnNames()}, true))
}

func (s *Service) serveDemo(w http.ResponseWriter, r *http.Request) {
	t := DemoTable()
	s.StoreService.Put(DemoSource, t)
	w.Write(httpd.MarshalJSON(ingestResponse{Rows: t.NumRows(), Columns: t.ColumnNames()}, true))
}

// DemoTable is the fixed three-row fixture loaded by GET /ingest/demo.
func DemoTable() *table.Table {
	t, err := table.New(
		table.Column{Name: "id", Values: []table.Value{
			table.String("1"), table.String("2"), table.String("3"),
		}},
		table.Column{Name: "value", Values: []table.Value{
			table.String("10"), table.Null(), table.String("30"),
		}},
		table.Column{Name: "updated_at", Values: []table.Value{
			table.String("2025-09-01"), table.String("2025-09-08"), table.String("2025-09-09"),
		}},
	)
	if err != nil {
		// The fixture is static; this cannot fail.
		panic(err)
	}
	return t
}
