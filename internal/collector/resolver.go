package collector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode"
)

// IdentifierKind classifies a user-supplied security identifier.
type IdentifierKind string

const (
	KindTicker IdentifierKind = "TICKER"
	KindISIN   IdentifierKind = "ISIN"
	KindWKN    IdentifierKind = "WKN"
)

// ErrInvalidChoice is returned by PromptResolver for an unknown menu option.
var ErrInvalidChoice = errors.New("invalid option selected")

// Resolver maps an identifier (ISIN, WKN or ticker) to a fetchable ticker.
// ok is false when the identifier is unknown.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (ticker string, ok bool, err error)
}

// ClassifyIdentifier recognises ISINs (two-letter country code, nine
// alphanumerics and a valid check digit) and WKNs (six alphanumerics).
// Anything else is treated as a ticker.
func ClassifyIdentifier(id string) IdentifierKind {
	id = strings.ToUpper(strings.TrimSpace(id))
	switch {
	case isISIN(id):
		return KindISIN
	case isWKN(id):
		return KindWKN
	default:
		return KindTicker
	}
}

func isWKN(id string) bool {
	if len(id) != 6 {
		return false
	}
	digits := 0
	for _, r := range id {
		if !isAlnum(r) {
			return false
		}
		if unicode.IsDigit(r) {
			digits++
		}
	}
	// Six letters is a plausible ticker; a WKN carries at least one digit.
	return digits > 0
}

func isISIN(id string) bool {
	if len(id) != 12 {
		return false
	}
	for i, r := range id {
		switch {
		case i < 2 && !(r >= 'A' && r <= 'Z'):
			return false
		case i == 11 && !unicode.IsDigit(r):
			return false
		case !isAlnum(r):
			return false
		}
	}
	return isinChecksum(id)
}

// isinChecksum expands letters to two digits (A=10 .. Z=35) and applies the
// Luhn algorithm over the result.
func isinChecksum(id string) bool {
	var digits []int
	for _, r := range id {
		if r >= 'A' && r <= 'Z' {
			v := int(r-'A') + 10
			digits = append(digits, v/10, v%10)
		} else {
			digits = append(digits, int(r-'0'))
		}
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func isAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// StaticResolver looks identifiers up in a fixed table, case-insensitively.
type StaticResolver map[string]string

func (s StaticResolver) Resolve(_ context.Context, identifier string) (string, bool, error) {
	key := strings.ToUpper(strings.TrimSpace(identifier))
	for k, v := range s {
		if strings.ToUpper(k) == key {
			return v, true, nil
		}
	}
	return "", false, nil
}

// DefaultYahooSearchURL is the public Yahoo Finance search host.
const DefaultYahooSearchURL = "https://query2.finance.yahoo.com"

// YahooSearchResolver asks the Yahoo Finance search endpoint for the first
// equity or ETF quote matching an ISIN or WKN.
type YahooSearchResolver struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooSearchResolver creates a resolver with optional proxy support.
func NewYahooSearchResolver(proxyURL string) *YahooSearchResolver {
	return &YahooSearchResolver{BaseURL: DefaultYahooSearchURL, Client: newHTTPClient(proxyURL)}
}

type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
	} `json:"quotes"`
}

func (y *YahooSearchResolver) Resolve(ctx context.Context, identifier string) (string, bool, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(identifier))
	q.Set("quotesCount", "5")
	q.Set("newsCount", "0")
	u := fmt.Sprintf("%s/v1/finance/search?%s", y.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := y.Client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("yahoo search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", false, fmt.Errorf("yahoo search: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result yahooSearch
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, fmt.Errorf("yahoo search decode: %w", err)
	}
	for _, quote := range result.Quotes {
		if quote.Symbol == "" {
			continue
		}
		switch quote.QuoteType {
		case "EQUITY", "ETF", "INDEX", "MUTUALFUND":
			return quote.Symbol, true, nil
		}
	}
	return "", false, nil
}

// ChainResolver tries each resolver in turn and returns the first hit.
// Errors from one link are remembered but do not stop the chain.
type ChainResolver []Resolver

func (c ChainResolver) Resolve(ctx context.Context, identifier string) (string, bool, error) {
	var errs []error
	for _, r := range c {
		ticker, ok, err := r.Resolve(ctx, identifier)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return ticker, true, nil
		}
	}
	return "", false, errors.Join(errs...)
}

// PromptResolver asks an operator on In/Out for an alternative identifier:
// an ISIN, a WKN or a different ticker. ISINs and WKNs are checked for shape
// and converted with Convert; a ticker is returned as entered.
type PromptResolver struct {
	In      io.Reader
	Out     io.Writer
	Convert Resolver

	// reader buffers In across prompts so piped answers are not lost.
	reader *bufio.Reader
}

// NewPromptResolver builds a PromptResolver reading answers from in.
func NewPromptResolver(in io.Reader, out io.Writer, convert Resolver) *PromptResolver {
	return &PromptResolver{In: in, Out: out, Convert: convert, reader: bufio.NewReader(in)}
}

func (p *PromptResolver) Resolve(ctx context.Context, _ string) (string, bool, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	fmt.Fprintln(p.Out, "\nTicker not found. Please provide an alternative identifier:")
	fmt.Fprintln(p.Out, "1. ISIN (International Securities Identification Number)")
	fmt.Fprintln(p.Out, "2. WKN (Wertpapierkennnummer)")
	fmt.Fprintln(p.Out, "3. Try a different ticker")

	choice, err := prompt(p.reader, p.Out, "\nSelect option (1-3): ")
	if err != nil {
		return "", false, err
	}

	var kind IdentifierKind
	switch choice {
	case "1":
		kind = KindISIN
	case "2":
		kind = KindWKN
	case "3":
		kind = KindTicker
	default:
		return "", false, fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}

	label := string(kind)
	if kind == KindTicker {
		label = "ticker"
	}
	value, err := prompt(p.reader, p.Out, fmt.Sprintf("Enter %s: ", label))
	if err != nil {
		return "", false, err
	}
	if value == "" {
		return "", false, nil
	}
	if kind == KindTicker {
		return value, true, nil
	}
	if ClassifyIdentifier(value) != kind {
		fmt.Fprintf(p.Out, "\n%q is not a valid %s.\n", value, label)
		return "", false, nil
	}
	if p.Convert == nil {
		fmt.Fprintf(p.Out, "\nNote: no %s lookup is configured. Please try the ticker symbol directly.\n", label)
		return "", false, nil
	}
	return p.Convert.Resolve(ctx, value)
}

func prompt(r *bufio.Reader, w io.Writer, question string) (string, error) {
	fmt.Fprint(w, question)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
