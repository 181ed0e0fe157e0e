package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/daoledger/src/logger"
	"github.com/username/daoledger/src/models"
	"github.com/username/daoledger/src/utils"
)

func init() {
	logger.InitLogger("error")
}

// stubLedgerService serves fixed rows; the batch methods are never
// reached from the HTTP layer.
type stubLedgerService struct {
	rows     []models.CanonicalTransfer
	quarters []string
	err      error
}

func (s *stubLedgerService) ProcessAllWallets() error                       { return nil }
func (s *stubLedgerService) ExtendServiceProviderStreams(_ time.Time) error { return nil }
func (s *stubLedgerService) Consolidate() ([]models.CanonicalTransfer, error) {
	return s.rows, s.err
}
func (s *stubLedgerService) ConsolidatedLedger() ([]models.CanonicalTransfer, error) {
	return s.rows, s.err
}
func (s *stubLedgerService) Quarters() ([]string, error) { return s.quarters, s.err }

func ledgerRow(hash, quarter, fromName string) models.CanonicalTransfer {
	return models.CanonicalTransfer{
		Hash:         hash,
		Date:         utils.Date(2023, time.February, 1),
		FromName:     fromName,
		FromCategory: fromName,
		ToName:       "Provider",
		ToCategory:   "Provider",
		Value:        models.ParseMoney("100"),
		USDValue:     models.ParseMoney("100"),
		Symbol:       models.SymbolUSDC,
		Acquainted:   true,
		Quarter:      quarter,
	}
}

func serveQuarter(t *testing.T, svc *stubLedgerService, url string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	h := NewLedgerHandler(svc)
	router.Get("/data/{quarter}", h.HandleQuarterData)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func decodeRows(t *testing.T, rec *httptest.ResponseRecorder) []models.CanonicalTransfer {
	t.Helper()
	var rows []models.CanonicalTransfer
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return rows
}

func TestHandleQuarters(t *testing.T) {
	svc := &stubLedgerService{quarters: []string{"2022 Q2", "2022 Q3"}}
	rec := httptest.NewRecorder()
	NewLedgerHandler(svc).HandleQuarters(rec, httptest.NewRequest(http.MethodGet, "/quarters", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body["quarters"]) != 2 || body["quarters"][0] != "2022 Q2" {
		t.Errorf("quarters: %v", body["quarters"])
	}
}

func TestHandleQuarterData_FiltersRows(t *testing.T) {
	svc := &stubLedgerService{rows: []models.CanonicalTransfer{
		ledgerRow("0xa", "2023 Q1", "DAO Wallet"),
		ledgerRow("0xother", "2023 Q2", "DAO Wallet"),
		ledgerRow(models.HashInterquarter, "2023 Q1", "Ecosystem"),
		ledgerRow("0xfee", "2023 Q1", "New ETH Registrar Controller"),
	}}

	rec := serveQuarter(t, svc, "/data/2023Q1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	rows := decodeRows(t, rec)
	if len(rows) != 1 || rows[0].Hash != "0xa" {
		t.Fatalf("expected only the plain 2023 Q1 row, got %+v", rows)
	}
}

func TestHandleQuarterData_AcceptsBothLabelForms(t *testing.T) {
	svc := &stubLedgerService{rows: []models.CanonicalTransfer{
		ledgerRow("0xa", "2023 Q1", "DAO Wallet"),
	}}

	for _, url := range []string{"/data/2023Q1", "/data/2023%20Q1"} {
		rec := serveQuarter(t, svc, url)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", url, rec.Code)
		}
		if rows := decodeRows(t, rec); len(rows) != 1 {
			t.Errorf("%s: expected 1 row, got %d", url, len(rows))
		}
	}
}

func TestHandleQuarterData_RejectsBadQuarters(t *testing.T) {
	svc := &stubLedgerService{}

	if rec := serveQuarter(t, svc, "/data/banana"); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed label: status %d", rec.Code)
	}
	// 2022 Q1 predates the reportable range.
	if rec := serveQuarter(t, svc, "/data/2022Q1"); rec.Code != http.StatusBadRequest {
		t.Errorf("pre-range quarter: status %d", rec.Code)
	}
	if rec := serveQuarter(t, svc, "/data/2022Q2"); rec.Code != http.StatusOK {
		t.Errorf("first reportable quarter: status %d", rec.Code)
	}
}

func TestHandleQuarterData_WalletFilter(t *testing.T) {
	marker := ledgerRow("Metagov", "2023 Q1", "0xmg")
	marker.ToName = models.Placeholder
	svc := &stubLedgerService{rows: []models.CanonicalTransfer{
		ledgerRow("0xa", "2023 Q1", "Metagov"),
		ledgerRow("0xb", "2023 Q1", "Ecosystem"),
		marker,
	}}

	rec := serveQuarter(t, svc, "/data/2023Q1?wallet=Metagov")
	rows := decodeRows(t, rec)
	if len(rows) != 2 {
		t.Fatalf("expected the Metagov row and its marker, got %d rows", len(rows))
	}
	for _, r := range rows {
		if r.Hash != "0xa" && r.Hash != "Metagov" {
			t.Errorf("unexpected row %s", r.Hash)
		}
	}

	// Category mode matches on the category columns instead.
	byCat := serveQuarter(t, svc, "/data/2023Q1?wallet=Ecosystem&category=true")
	if rows := decodeRows(t, byCat); len(rows) != 1 || rows[0].Hash != "0xb" {
		t.Errorf("category filter: %+v", rows)
	}
}

func TestHandleBigPicture(t *testing.T) {
	svc := &stubLedgerService{rows: []models.CanonicalTransfer{
		ledgerRow("0xa", "2023 Q1", "DAO Wallet"),
		ledgerRow(models.HashInterquarter, "2023 Q1", "Ecosystem"),
	}}
	rec := httptest.NewRecorder()
	NewLedgerHandler(svc).HandleBigPicture(rec, httptest.NewRequest(http.MethodGet, "/data/big_picture", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	// The big picture is unfiltered; snapshots stay in.
	if rows := decodeRows(t, rec); len(rows) != 2 {
		t.Errorf("expected all rows, got %d", len(rows))
	}
}
