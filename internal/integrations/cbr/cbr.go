package cbr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/credit-analytics/internal/config"
	"github.com/Dan9191/credit-analytics/internal/models"
)

const (
	// historyDays is the window requested from the KeyRate service
	historyDays = 30
	// cacheTTL bounds how long a fetched series is reused; the rate changes at most daily
	cacheTTL = time.Hour
)

// ErrNoQuotes is returned when the response holds no usable key rate rows
var ErrNoQuotes = errors.New("no key rate data found in XML")

// CBRClient fetches the key rate series from the Central Bank of Russia
type CBRClient struct {
	url    string
	margin float64
	client *http.Client
	log    *logrus.Logger
	now    func() time.Time

	mu        sync.Mutex
	cached    []models.KeyRateQuote
	fetchedAt time.Time
}

// NewCBRClient initializes a new CBR client
func NewCBRClient(cfg *config.Config, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url:    cfg.CBRURL,
		margin: cfg.BankMargin,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
		now: time.Now,
	}
}

// buildSOAPRequest asks for the key rate over the last historyDays days
func (c *CBRClient) buildSOAPRequest() string {
	now := c.now()
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
	<soap12:Body>
		<KeyRate xmlns="http://web.cbr.ru/">
			<fromDate>%s</fromDate>
			<ToDate>%s</ToDate>
		</KeyRate>
	</soap12:Body>
</soap12:Envelope>`, now.AddDate(0, 0, -historyDays).Format(time.DateOnly), now.Format(time.DateOnly))
}

func (c *CBRClient) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(c.buildSOAPRequest()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("CBR XML response: %d bytes", len(body))
	return body, nil
}

// parseQuotes reads every KR row of the diffgram, newest first.
// Rows with an unreadable date or rate are dropped.
func parseQuotes(rawBody []byte) ([]models.KeyRateQuote, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	var quotes []models.KeyRateQuote
	for _, kr := range doc.FindElements("//diffgram/KeyRate/KR") {
		dt, rate := kr.SelectElement("DT"), kr.SelectElement("Rate")
		if dt == nil || rate == nil {
			continue
		}
		date, err := time.Parse(time.RFC3339, strings.TrimSpace(dt.Text()))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rate.Text()), 64)
		if err != nil {
			continue
		}
		quotes = append(quotes, models.KeyRateQuote{Date: date, Rate: value})
	}
	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}

	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Date.After(quotes[j].Date) })
	return quotes, nil
}

// quotes returns the cached series while fresh, fetching it otherwise
func (c *CBRClient) quotes(ctx context.Context) ([]models.KeyRateQuote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.now().Sub(c.fetchedAt) < cacheTTL {
		return c.cached, nil
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	quotes, err := parseQuotes(body)
	if err != nil {
		return nil, err
	}
	c.cached, c.fetchedAt = quotes, c.now()
	return quotes, nil
}

// GetKeyRate returns the latest key rate plus the bank margin, with the series it was taken from
func (c *CBRClient) GetKeyRate(ctx context.Context) (models.KeyRate, error) {
	quotes, err := c.quotes(ctx)
	if err != nil {
		return models.KeyRate{}, err
	}

	latest := quotes[0]
	history := make([]models.KeyRateQuote, len(quotes))
	copy(history, quotes)
	kr := models.KeyRate{
		Rate:     latest.Rate + c.margin,
		BaseRate: latest.Rate,
		Margin:   c.margin,
		AsOf:     latest.Date,
		History:  history,
	}
	c.log.Infof("Key rate %.2f%% as of %s (including %.2f%% bank margin)", kr.Rate, kr.AsOf.Format(time.DateOnly), kr.Margin)
	return kr, nil
}
