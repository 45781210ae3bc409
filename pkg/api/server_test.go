package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/crossbook/pkg/app/node"
	"github.com/uhyunpark/crossbook/pkg/engine"
	"github.com/uhyunpark/crossbook/pkg/events"
	"github.com/uhyunpark/crossbook/pkg/protocol"
)

func newTestServer() (*Server, *node.App) {
	app := node.NewApp(node.Config{})
	return NewServer(app, []string{"*"}, nil), app
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitQueuesInstruction(t *testing.T) {
	s, app := newTestServer()

	rec := do(t, s, "POST", "/api/v1/orders", `{"firmId":1,"symbol":"X","side":"sell","price":10}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, SubmitResponse{Status: "queued", Op: "new", Pending: 1}, resp)
	assert.Equal(t, 1, app.MempoolSize())
}

func TestRawInstruction(t *testing.T) {
	s, app := newTestServer()

	rec := do(t, s, "POST", "/api/v1/instructions", `{"op":"N","firmId":7,"symbol":"X","side":"B","price":3}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, app.MempoolSize())

	rec = do(t, s, "POST", "/api/v1/instructions", `{"op":"NEW","firmId":7,"symbol":"X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, "POST", "/api/v1/instructions", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, app.MempoolSize())

	app.ApplyBatch(context.Background())
	assert.Equal(t, []engine.FirmID{7}, app.Snapshot().Firms)
}

func TestSubmitValidation(t *testing.T) {
	s, app := newTestServer()

	cases := []struct {
		name string
		path string
		body string
	}{
		{"bad json", "/api/v1/orders", `{`},
		{"missing firm", "/api/v1/orders", `{"symbol":"X","side":"B","price":1}`},
		{"missing price", "/api/v1/orders", `{"firmId":1,"symbol":"X","side":"B"}`},
		{"bad side", "/api/v1/orders", `{"firmId":1,"symbol":"X","side":"Q","price":1}`},
		{"modify missing symbol", "/api/v1/orders/modify", `{"firmId":1,"price":1}`},
		{"cancel missing firm", "/api/v1/orders/cancel", `{"symbol":"X"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, "POST", tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Zero(t, app.MempoolSize())
}

func TestBookFirmsAndReportAfterBatch(t *testing.T) {
	s, app := newTestServer()

	do(t, s, "POST", "/api/v1/orders", `{"firmId":1,"symbol":"X","side":"S","price":10}`)
	do(t, s, "POST", "/api/v1/orders", `{"firmId":2,"symbol":"X","side":"B","price":12}`)
	do(t, s, "POST", "/api/v1/orders", `{"firmId":3,"symbol":"Y","side":"B","price":9.5}`)
	app.ApplyBatch(context.Background())

	rec := do(t, s, "GET", "/api/v1/book/Y", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var book BookSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	require.Len(t, book.Bids, 1)
	assert.Equal(t, uint16(3), book.Bids[0].FirmID)
	assert.Equal(t, "9.5", book.Bids[0].Price.String())
	assert.Empty(t, book.Asks)

	rec = do(t, s, "GET", "/api/v1/firms", "")
	var ids []uint16
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	assert.Equal(t, []uint16{1, 2, 3}, ids)

	rec = do(t, s, "GET", "/api/v1/report", "")
	var rows []FirmSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].FillCount)
	assert.Equal(t, "10", rows[0].NetCash.String())
	assert.Equal(t, "-10", rows[1].NetCash.String())
	assert.Equal(t, 1, rows[2].LiveCount)

	rec = do(t, s, "GET", "/api/v1/report?format=text", "")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "FINAL OUTPUT")
}

func TestFillsEndpoint(t *testing.T) {
	s, app := newTestServer()

	do(t, s, "POST", "/api/v1/orders", `{"firmId":1,"symbol":"X","side":"S","price":10}`)
	do(t, s, "POST", "/api/v1/orders", `{"firmId":2,"symbol":"X","side":"B","price":12}`)
	app.ApplyBatch(context.Background())

	rec := do(t, s, "GET", "/api/v1/fills/X?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fills []FillInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fills))
	require.Len(t, fills, 1)
	assert.Equal(t, uint16(2), fills[0].Buyer)
	assert.Equal(t, uint16(1), fills[0].Seller)
	assert.Equal(t, "buy", fills[0].Aggressor)

	rec = do(t, s, "GET", "/api/v1/fills/X?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusAndHealth(t *testing.T) {
	s, app := newTestServer()
	app.ApplyBatch(context.Background())
	do(t, s, "POST", "/api/v1/orders/cancel", `{"firmId":4,"symbol":"Z"}`)
	app.ApplyBatch(context.Background())

	rec := do(t, s, "GET", "/api/v1/status", "")
	var st EngineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, uint64(1), st.Height)
	assert.Equal(t, "resting", st.SellPricing)
	assert.True(t, strings.HasPrefix(st.StateHash, "0x"))
	assert.Len(t, st.StateHash, 66)

	rec = do(t, s, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestBroadcastRoutesByChannel(t *testing.T) {
	s, app := newTestServer()

	sub := newClient(s.hub, nil, "fills-x")
	sub.Subscribe("fills:X")
	books := newClient(s.hub, nil, "book-x")
	books.Subscribe("book:X")
	other := newClient(s.hub, nil, "fills-y")
	other.Subscribe("fills:Y")
	for _, c := range []*Client{sub, books, other} {
		s.hub.clients[c] = true
	}

	app.Submit(protocol.Instruction{Op: protocol.OpNew, Firm: 1, Symbol: "X", Side: engine.Sell, Price: 10})
	res := app.ApplyBatch(context.Background())

	s.BroadcastFills([]events.FillEvent{{ID: "f1", Symbol: "X", Buyer: 2, Seller: 1, Price: 10, Aggressor: "buy"}})
	s.BroadcastBooks(res)

	require.Len(t, sub.send, 1)
	var fu FillUpdate
	require.NoError(t, json.Unmarshal(<-sub.send, &fu))
	assert.Equal(t, "fill", fu.Type)
	assert.Equal(t, "f1", fu.ID)

	require.Len(t, books.send, 1)
	var bu BookUpdate
	require.NoError(t, json.Unmarshal(<-books.send, &bu))
	assert.Equal(t, "book", bu.Type)
	assert.Equal(t, uint64(1), bu.Height)
	require.Len(t, bu.Asks, 1)
	assert.Equal(t, uint16(1), bu.Asks[0].FirmID)

	assert.Empty(t, other.send)
}

func TestParseSide(t *testing.T) {
	for in, want := range map[string]byte{"B": 'B', "buy": 'B', "S": 'S', "SELL": 'S'} {
		side, ok := parseSide(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, byte(side), in)
	}
	_, ok := parseSide("x")
	assert.False(t, ok)
}
