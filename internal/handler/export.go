package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

// ExportHandler renders account statements as downloadable CSV or XLSX
// files for bookkeeping.
type ExportHandler struct {
	Accounts repository.AccountRepository
	Ledger   repository.LedgerRepository
	TopUps   repository.TopUpRepository
}

func (h ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/export/accounts/{id}/statement", h.statement)
}

func (h ExportHandler) statement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	account, err := h.Accounts.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	lines, err := statementFor(r, h.Ledger, h.TopUps, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filename := fmt.Sprintf("statement-%d-%s", account.ID, time.Now().Format("2006-01-02"))
	switch r.URL.Query().Get("format") {
	case "", "csv":
		h.writeCSV(w, filename, account, lines)
	case "xlsx":
		h.writeXLSX(w, filename, account, lines)
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
	}
}

var statementHeader = []string{"Date", "Type", "Detail", "Delta (cents)", "Balance (cents)"}

func (h ExportHandler) writeCSV(w http.ResponseWriter, filename string, account *domain.Account, lines []domain.LedgerLine) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Account", account.Name})
	_ = cw.Write(statementHeader)
	for _, line := range lines {
		_ = cw.Write([]string{
			line.CreatedAt.Format(time.RFC3339),
			line.Kind,
			line.Detail,
			strconv.FormatInt(line.Delta, 10),
			strconv.FormatInt(line.Running, 10),
		})
	}
	cw.Flush()
}

func (h ExportHandler) writeXLSX(w http.ResponseWriter, filename string, account *domain.Account, lines []domain.LedgerLine) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Statement"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Account")
	_ = f.SetCellValue(sheet, "B1", account.Name)
	for col, title := range statementHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(sheet, cell, title)
	}
	for i, line := range lines {
		row := i + 3
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.CreatedAt.Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.Kind)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.Detail)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), line.Delta)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), line.Running)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
	if err := f.Write(w); err != nil {
		writeError(w, http.StatusInternalServerError, "could not write workbook")
	}
}
