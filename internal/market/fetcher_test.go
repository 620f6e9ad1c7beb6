package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

const estimateBody = `jsonpgz({"fundcode":"161725","name":"CSI Liquor Index","jz":"1.1000","dwjz":"1.1000","gsz":"1.0500","gszzl":"2.00","gztime":"2026-09-01 14:30"});`

const searchBody = `{"Datas":[{"CODE":"161725","NAME":"CSI Liquor Index C","FundBaseInfo":{"DWJZ":1.1}},{"CODE":"999999","NAME":"other","FundBaseInfo":{"DWJZ":9.9}}]}`

func newFundServer(t *testing.T, estimate, search http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	if estimate != nil {
		mux.HandleFunc("/js/", estimate)
	}
	if search != nil {
		mux.HandleFunc("/FundSearch/api/FundSearchAPI.ashx", search)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_PrimarySuccess(t *testing.T) {
	searchCalled := false
	srv := newFundServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(estimateBody))
		},
		func(w http.ResponseWriter, r *http.Request) {
			searchCalled = true
			w.Write([]byte(searchBody))
		},
	)

	c := NewClient(srv.URL, srv.URL, time.Second, testLogger())
	q := c.Fetch(context.Background(), "161725")

	assert.Equal(t, "CSI Liquor Index", q.Name)
	assert.True(t, q.EstValue.Equal(decimal.RequireFromString("1.05")), "est value %s", q.EstValue)
	assert.True(t, q.EstRate.Equal(decimal.RequireFromString("2")), "est rate %s", q.EstRate)
	assert.Equal(t, "2026-09-01 14:30", q.Timestamp)
	assert.False(t, searchCalled, "search source must not be consulted when the estimate names the fund")
}

func TestFetch_ParseFailureFallsBackToSearch(t *testing.T) {
	srv := newFundServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not the payload you wanted</html>"))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(searchBody))
		},
	)

	c := NewClient(srv.URL, srv.URL, time.Second, testLogger())
	q := c.Fetch(context.Background(), "161725")

	assert.Equal(t, "CSI Liquor Index C", q.Name)
	// no estimate arrived, so the static net value stands in
	assert.True(t, q.EstValue.Equal(decimal.RequireFromString("1.1")), "est value %s", q.EstValue)
	assert.True(t, q.EstRate.IsZero())
}

func TestFetch_SearchFillsNameButKeepsEstimate(t *testing.T) {
	srv := newFundServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			// estimate present but unnamed
			w.Write([]byte(`jsonpgz({"fundcode":"161725","name":"","gsz":"1.0500","gszzl":"2.00"});`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(searchBody))
		},
	)

	c := NewClient(srv.URL, srv.URL, time.Second, testLogger())
	q := c.Fetch(context.Background(), "161725")

	assert.Equal(t, "CSI Liquor Index C", q.Name)
	assert.True(t, q.EstValue.Equal(decimal.RequireFromString("1.05")), "estimate must not be overwritten by the static net value")
}

func TestFetch_AllSourcesDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(srv.URL, srv.URL, time.Second, testLogger())
	q := c.Fetch(context.Background(), "161725")

	assert.Equal(t, PlaceholderName, q.Name)
	assert.True(t, q.EstValue.IsZero())
	assert.True(t, q.EstRate.IsZero())
	assert.True(t, q.NetValue.IsZero())
}

func TestFetch_TimeoutBehavesAsFailure(t *testing.T) {
	slow := func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(estimateBody))
	}
	srv := newFundServer(t, slow, slow)

	c := NewClient(srv.URL, srv.URL, 20*time.Millisecond, testLogger())
	start := time.Now()
	q := c.Fetch(context.Background(), "161725")

	assert.Equal(t, PlaceholderName, q.Name)
	assert.True(t, q.EstValue.IsZero())
	// both attempts time out independently, so well under the handler delay x2
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestFetch_NonNumericFieldsBecomeZero(t *testing.T) {
	srv := newFundServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`jsonpgz({"fundcode":"161725","name":"Oddball Fund","gsz":"--","gszzl":""});`))
		},
		nil,
	)

	c := NewClient(srv.URL, srv.URL, time.Second, testLogger())
	q := c.Fetch(context.Background(), "161725")

	require.Equal(t, "Oddball Fund", q.Name)
	assert.True(t, q.EstValue.IsZero())
	assert.True(t, q.EstRate.IsZero())
}

func TestFetch_SearchIgnoresOtherCodes(t *testing.T) {
	srv := newFundServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Datas":[{"CODE":"999999","NAME":"other","FundBaseInfo":{"DWJZ":9.9}}]}`))
		},
	)

	c := NewClient(srv.URL, srv.URL, time.Second, testLogger())
	q := c.Fetch(context.Background(), "161725")

	assert.Equal(t, PlaceholderName, q.Name)
	assert.True(t, q.EstValue.IsZero())
}
