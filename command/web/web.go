package web

import (
	"encoding/csv"
	"errors"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Run starts a small Echo server exposing saved cost reports as JSON.
//
// Usage:
//
//	web [-addr :8080] [-data ./data]
//
// Endpoints:
//
//	GET /api/reports        -> list of saved report files
//	GET /api/reports/:name  -> rows of one report CSV as JSON objects
func Run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "http listen address (host:port)")
	dataDir := fs.String("data", "./data", "directory containing saved reports")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true

	e.GET("/api/reports", func(c echo.Context) error {
		entries, err := os.ReadDir(*dataDir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return c.JSON(http.StatusOK, []string{})
			}
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
		}
		names := []string{}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		return c.JSON(http.StatusOK, names)
	})

	e.GET("/api/reports/:name", func(c echo.Context) error {
		name := filepath.Base(c.Param("name")) // no path traversal
		path := filepath.Join(*dataDir, name)
		rows, err := readReportCSV(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return c.JSON(http.StatusNotFound, map[string]any{
					"error":   "file not found",
					"path":    path,
					"message": "report file is missing",
				})
			}
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":   err.Error(),
				"path":    path,
				"message": "failed to read report",
			})
		}
		return c.JSON(http.StatusOK, rows)
	})

	return e.Start(*addr)
}

// readReportCSV loads a report file and returns a slice of objects keyed by
// headers. Values are kept as strings: the files carry decimal commas, and
// coercing them here would be lossy.
func readReportCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '*'
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	headers := records[0]
	res := make([]map[string]string, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		row := records[i]
		if len(row) == 0 {
			continue
		}
		obj := make(map[string]string, len(headers))
		for j := 0; j < len(headers) && j < len(row); j++ {
			obj[headers[j]] = row[j]
		}
		res = append(res, obj)
	}
	return res, nil
}
