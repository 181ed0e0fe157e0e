package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/daoledger/src/logger"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/services"
	"github.com/username/daoledger/src/utils"
)

// Registrar controller contracts generate enormous fee inflows that
// drown every other flow in a quarter view; they are elided from the
// per-quarter endpoint like the consolidated visualization always has.
var hiddenSenders = map[string]bool{
	"New ETH Registrar Controller": true,
	"Old ETH Registrar Controller": true,
}

var quarterPattern = regexp.MustCompile(`^(\d{4})\s?Q([1-4])$`)

// LedgerHandler serves the consolidated ledger to the visualization.
type LedgerHandler struct {
	ledgerService services.LedgerService
}

func NewLedgerHandler(ledgerService services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// HandleQuarters lists the reportable quarters.
func (h *LedgerHandler) HandleQuarters(w http.ResponseWriter, r *http.Request) {
	quarters, err := h.ledgerService.Quarters()
	if err != nil {
		logger.L.Error("Failed to list quarters", "error", err)
		utils.SendJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string][]string{"quarters": quarters}, http.StatusOK)
}

// HandleBigPicture serves the full consolidated ledger.
func (h *LedgerHandler) HandleBigPicture(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ledgerService.ConsolidatedLedger()
	if err != nil {
		logger.L.Error("Failed to load consolidated ledger", "error", err)
		utils.SendJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, rows, http.StatusOK)
}

// HandleQuarterData serves one quarter's rows, with optional wallet
// filtering. URLs use the compact "2022Q2" form.
func (h *LedgerHandler) HandleQuarterData(w http.ResponseWriter, r *http.Request) {
	quarter, ok := normalizeQuarter(chi.URLParam(r, "quarter"))
	if !ok {
		utils.SendJSONError(w, "Invalid quarter format", http.StatusBadRequest)
		return
	}
	if !reportable(quarter) {
		utils.SendJSONError(w, "Invalid quarter: data not available for quarters before 2022 Q2", http.StatusBadRequest)
		return
	}

	rows, err := h.ledgerService.ConsolidatedLedger()
	if err != nil {
		logger.L.Error("Failed to load consolidated ledger", "error", err)
		utils.SendJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	walletFilter := r.URL.Query().Get("wallet")
	categoryMode := r.URL.Query().Get("category") == "true"

	var filtered []models.CanonicalTransfer
	for _, t := range rows {
		if t.Quarter != quarter || t.Hash == models.HashInterquarter || hiddenSenders[t.FromName] {
			continue
		}
		if walletFilter != "" && !matchesWallet(t, walletFilter, categoryMode) {
			continue
		}
		filtered = append(filtered, t)
	}
	utils.SendJSON(w, filtered, http.StatusOK)
}

// matchesWallet keeps rows touching the filtered wallet. Placeholder
// marker rows carry the wallet name in the hash column after
// consolidation, so they match too.
func matchesWallet(t models.CanonicalTransfer, wallet string, categoryMode bool) bool {
	if t.Hash == wallet {
		return true
	}
	if categoryMode {
		return t.FromCategory == wallet || t.ToCategory == wallet
	}
	return t.FromName == wallet || t.ToName == wallet
}

func normalizeQuarter(raw string) (string, bool) {
	matches := quarterPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if matches == nil {
		return "", false
	}
	return matches[1] + " Q" + matches[2], true
}

func reportable(quarter string) bool {
	fields := strings.Fields(quarter)
	year, _ := strconv.Atoi(fields[0])
	q, _ := strconv.Atoi(strings.TrimPrefix(fields[1], "Q"))
	return year > 2022 || (year == 2022 && q >= 2)
}
