package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PlaceholderName marks a holding whose fund could not be identified by any
// source. It is persisted as the display name and overwritten on the next
// successful fetch.
const PlaceholderName = "unknown fund"

// Quote is a best-effort valuation snapshot for one fund. It is produced
// fresh per request and never cached.
type Quote struct {
	Name      string          `json:"name"`
	EstValue  decimal.Decimal `json:"est_val"`
	EstRate   decimal.Decimal `json:"est_rate"`
	NetValue  decimal.Decimal `json:"nav"`
	Timestamp string          `json:"gztime,omitempty"`
}

// Provider fetches a quote for a fund code. Implementations never fail: a
// degraded source yields a placeholder quote with zero values.
type Provider interface {
	Fetch(ctx context.Context, fundCode string) Quote
}

// outcome tags the result of one source attempt so each failure branch stays
// independently observable.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeTimeout
	outcomeUnreachable
	outcomeParseFailure
)

func (o outcome) String() string {
	switch o {
	case outcomeOK:
		return "ok"
	case outcomeTimeout:
		return "timeout"
	case outcomeUnreachable:
		return "unreachable"
	case outcomeParseFailure:
		return "parse failure"
	}
	return "unknown"
}

type Client struct {
	apiBase    string
	searchBase string
	http       *http.Client
	log        *logrus.Logger
}

func NewClient(apiBase, searchBase string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		apiBase:    strings.TrimRight(apiBase, "/"),
		searchBase: strings.TrimRight(searchBase, "/"),
		http:       &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Fetch resolves a quote through the fallback chain: the real-time estimate
// endpoint first, then the search endpoint for the name (and the static net
// value when no estimate arrived). Every attempt happens exactly once; all
// degradation is absorbed here.
func (c *Client) Fetch(ctx context.Context, fundCode string) Quote {
	q := Quote{Name: PlaceholderName}

	est, oc := c.fetchEstimate(ctx, fundCode)
	if oc == outcomeOK {
		q = est
	} else {
		c.log.Warnf("fund %s estimate fetch: %s", fundCode, oc)
	}

	if q.Name == PlaceholderName {
		name, nav, oc := c.searchFund(ctx, fundCode)
		if oc == outcomeOK {
			q.Name = name
			q.NetValue = nav
			if q.EstValue.IsZero() {
				// static net value, not an estimate
				q.EstValue = nav
			}
		} else {
			c.log.Warnf("fund %s search fallback: %s", fundCode, oc)
		}
	}
	return q
}

// jsonpRe extracts the JSON payload from the wrapped "jsonpgz({...});" body.
var jsonpRe = regexp.MustCompile(`jsonpgz\((.*)\)`)

type estimatePayload struct {
	FundCode string `json:"fundcode"`
	Name     string `json:"name"`
	NetValue string `json:"dwjz"`
	EstValue string `json:"gsz"`
	EstRate  string `json:"gszzl"`
	Time     string `json:"gztime"`
}

func (c *Client) fetchEstimate(ctx context.Context, fundCode string) (Quote, outcome) {
	u := fmt.Sprintf("%s/js/%s.js?rt=%d", c.apiBase, url.PathEscape(fundCode), time.Now().UnixMilli())
	body, oc := c.get(ctx, u)
	if oc != outcomeOK {
		return Quote{}, oc
	}

	m := jsonpRe.FindSubmatch(body)
	if m == nil {
		return Quote{}, outcomeParseFailure
	}
	var p estimatePayload
	if err := json.Unmarshal(m[1], &p); err != nil {
		return Quote{}, outcomeParseFailure
	}

	q := Quote{
		Name:      p.Name,
		EstValue:  lenientDecimal(p.EstValue),
		EstRate:   lenientDecimal(p.EstRate),
		NetValue:  lenientDecimal(p.NetValue),
		Timestamp: p.Time,
	}
	if q.Name == "" {
		q.Name = PlaceholderName
	}
	return q, outcomeOK
}

type searchResponse struct {
	Datas []struct {
		Code         string `json:"CODE"`
		Name         string `json:"NAME"`
		FundBaseInfo *struct {
			NetValue json.Number `json:"DWJZ"`
		} `json:"FundBaseInfo"`
	} `json:"Datas"`
}

func (c *Client) searchFund(ctx context.Context, fundCode string) (string, decimal.Decimal, outcome) {
	u := fmt.Sprintf("%s/FundSearch/api/FundSearchAPI.ashx?m=1&key=%s", c.searchBase, url.QueryEscape(fundCode))
	body, oc := c.get(ctx, u)
	if oc != outcomeOK {
		return "", decimal.Zero, oc
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", decimal.Zero, outcomeParseFailure
	}
	for _, d := range sr.Datas {
		if d.Code != fundCode || d.Name == "" {
			continue
		}
		nav := decimal.Zero
		if d.FundBaseInfo != nil {
			nav = lenientDecimal(d.FundBaseInfo.NetValue.String())
		}
		return d.Name, nav, outcomeOK
	}
	return "", decimal.Zero, outcomeParseFailure
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, outcome) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, outcomeUnreachable
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, outcomeUnreachable
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	return body, outcomeOK
}

func classify(err error) outcome {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return outcomeTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return outcomeTimeout
	}
	return outcomeUnreachable
}

// lenientDecimal treats absent or non-numeric fields as zero so downstream
// profit math stays well-defined under degraded source data.
func lenientDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
