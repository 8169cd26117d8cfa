package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/cumscan/internal/device"
	"github.com/samcharles93/cumscan/internal/fault"
	"github.com/samcharles93/cumscan/internal/harness"
	"github.com/samcharles93/cumscan/internal/logger"
	"github.com/samcharles93/cumscan/internal/slots"
)

func newTestEcho(cfg Config) *echo.Echo {
	dev := device.New(device.Options{})
	runner := &harness.Runner{
		Device: dev,
		Faults: fault.NewDefault(logger.Discard()),
		Log:    logger.Discard(),
	}
	server := NewServer(runner, dev.Properties, cfg)
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) harness.Report {
	t.Helper()
	var rep harness.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v body=%s", err, rec.Body.String())
	}
	return rep
}

func TestCreateGetDeleteScanLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Config{})
	createRec := doJSON(t, e, http.MethodPost, "/v1/scans", `{"inputs":[3,1,4,1,5]}`)
	if createRec.Code != http.StatusOK {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}
	created := decodeReport(t, createRec)
	if !created.Pass {
		t.Fatalf("scan failed: %+v", created.Mismatch)
	}
	want := []uint32{3, 4, 8, 9, 14}
	for i := range want {
		if created.Outputs[i] != want[i] {
			t.Fatalf("outputs = %v, want %v", created.Outputs, want)
		}
	}

	id := created.ID.String()
	getRec := doJSON(t, e, http.MethodGet, "/v1/scans/"+id, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}
	if got := decodeReport(t, getRec); got.ID != created.ID {
		t.Fatalf("get id = %v, want %v", got.ID, created.ID)
	}

	listRec := doJSON(t, e, http.MethodGet, "/v1/scans", "")
	if listRec.Code != http.StatusOK || !strings.Contains(listRec.Body.String(), id) {
		t.Fatalf("list: got %d body=%s", listRec.Code, listRec.Body.String())
	}

	delRec := doJSON(t, e, http.MethodDelete, "/v1/scans/"+id, "")
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d body=%s", delRec.Code, delRec.Body.String())
	}
	if rec := doJSON(t, e, http.MethodGet, "/v1/scans/"+id, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodDelete, "/v1/scans/"+id, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d", rec.Code)
	}
}

func TestCreateScanWithGeneratedInputs(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Config{})
	body := `{"num_val":64,"max_val":50,"use_atomic":true,"seed":9}`
	if slots.RaceEnabled {
		body = `{"num_val":64,"max_val":50,"seed":9}`
	}
	rec := doJSON(t, e, http.MethodPost, "/v1/scans", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	rep := decodeReport(t, rec)
	if !rep.Pass || rep.NumVal != 64 || rep.MaxVal != 50 || rep.Seed != 9 || rep.Variant != "atomic" {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestCreateScanNamedVariant(t *testing.T) {
	t.Parallel()
	if slots.RaceEnabled {
		t.Skip("plain slot access is a deliberate data race")
	}

	e := newTestEcho(Config{})
	rec := doJSON(t, e, http.MethodPost, "/v1/scans", `{"inputs":[3,1,4,1,5],"variant":"plain"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if rep := decodeReport(t, rec); !rep.Pass || rep.Variant != "plain" {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestCreateScanEmptyBodyUsesDefaults(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Config{})
	rec := doJSON(t, e, http.MethodPost, "/v1/scans", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	rep := decodeReport(t, rec)
	if rep.NumVal != harness.DefaultNumVal || rep.MaxVal != harness.DefaultMaxVal {
		t.Fatalf("defaults not applied: %+v", rep)
	}
}

func TestCreateScanRejectsBadRequests(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Config{MaxNumVal: 100})
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"num_val":`},
		{"unknown field", `{"blocks":4}`},
		{"zero partitions", `{"num_val":0}`},
		{"payload overflow", `{"num_val":50,"max_val":1073741823}`},
		{"over server limit", `{"num_val":101}`},
		{"mixed inputs", `{"inputs":[1],"num_val":1}`},
		{"unknown variant", `{"variant":"relaxed"}`},
		{"variant with use_atomic", `{"variant":"plain","use_atomic":false}`},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, "/v1/scans", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d body=%s, want 400", tc.name, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "invalid_request_error") {
			t.Errorf("%s: body %s missing error type", tc.name, rec.Body.String())
		}
	}
}

func TestCreateScanRateLimited(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Config{Limit: 0.001, Burst: 1})
	if rec := doJSON(t, e, http.MethodPost, "/v1/scans", `{"inputs":[1]}`); rec.Code != http.StatusOK {
		t.Fatalf("first scan: got %d", rec.Code)
	}
	rec := doJSON(t, e, http.MethodPost, "/v1/scans", `{"inputs":[1]}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second scan: got %d, want 429", rec.Code)
	}
}

func TestDeviceEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Config{})
	rec := doJSON(t, e, http.MethodGet, "/v1/device", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var props device.Properties
	if err := json.Unmarshal(rec.Body.Bytes(), &props); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if props.Arch == "" || props.ComputeUnits < 1 {
		t.Fatalf("unexpected properties: %+v", props)
	}
}

type failingScanner struct{}

func (failingScanner) Run(context.Context, harness.Config) (*harness.Report, error) {
	return nil, errors.New("device lost")
}

func (failingScanner) RunInputs(context.Context, slots.Variant, []uint32) (*harness.Report, error) {
	return nil, errors.New("device lost")
}

func TestCreateScanScannerError(t *testing.T) {
	t.Parallel()

	server := NewServer(failingScanner{}, nil, Config{})
	e := echo.New()
	server.Register(e)

	rec := doJSON(t, e, http.MethodPost, "/v1/scans", `{}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "device lost") {
		t.Fatalf("got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, e, http.MethodGet, "/v1/device", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("device without props: got %d", rec.Code)
	}
}
