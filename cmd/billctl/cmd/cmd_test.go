package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const billJSON = `{"id":"10","name":"Alpha","from":"20240301000000","to":"20240315000000",
"truckCount":1,"sessionCount":2,
"products":[{"product":"apples","count":1,"amount":9300,"rate":60,"pay":558000},
{"product":"pears","count":1,"amount":700,"rate":null,"pay":null}],
"total":558000,"diagnostics":{"partial":true}}`

func runCLI(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--api", server.URL}, args...))
	t.Cleanup(func() {
		billFrom, billTo, billFormat, billOut = "", "", "table", ""
		ratesOut = "rates.xlsx"
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBillTable(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bill/10", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(billJSON))
	}))
	defer srv.Close()

	out, err := runCLI(t, srv, "bill", "10", "--from", "20240301000000", "--to", "20240315000000")
	require.NoError(t, err)
	assert.Equal(t, "from=20240301000000&to=20240315000000", gotQuery)
	assert.Contains(t, out, "Provider Alpha (10)")
	assert.Contains(t, out, "5580.00")
	assert.Contains(t, out, "pears")
	assert.Contains(t, out, "Partial bill")
}

func TestBillPDFToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pdf", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.3"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "bill.pdf")
	_, err := runCLI(t, srv, "bill", "10", "--format", "pdf", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))
}

func TestBillAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"provider_not_found","message":"provider has no deliveries in the period"}}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, srv, "bill", "10")
	require.Error(t, err)
	assert.True(t, isAPIError(err, "provider_not_found"))
	assert.Contains(t, err.Error(), "delivered nothing")
}

func TestRatesUploadAndDownload(t *testing.T) {
	var uploaded []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			f, _, err := r.FormFile("file")
			require.NoError(t, err)
			uploaded, _ = io.ReadAll(f)
			_, _ = w.Write([]byte(`{"imported":3}`))
		default:
			_, _ = w.Write([]byte("workbook-bytes"))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	src := filepath.Join(dir, "in.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("workbook"), 0o644))

	out, err := runCLI(t, srv, "rates", "upload", src)
	require.NoError(t, err)
	assert.Equal(t, "imported 3 rates\n", out)
	assert.Equal(t, []byte("workbook"), uploaded)

	dst := filepath.Join(dir, "out.xlsx")
	_, err = runCLI(t, srv, "rates", "download", "--out", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "workbook-bytes", string(data))
}

func TestDecodeAPIErrorFallsBackToBody(t *testing.T) {
	err := decodeAPIError(http.StatusBadGateway, []byte("bad gateway"))
	assert.EqualError(t, err, "502 unknown: bad gateway")
}
