package contahub

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zykor/platform/pkg/common/config"
	"github.com/zykor/platform/pkg/common/httpclient"
	"github.com/zykor/platform/pkg/common/logger"
)

var (
	// ErrAuth means the upstream rejected the login or returned no session.
	ErrAuth = errors.New("contahub: authentication failed")
	// ErrFetch means a report request failed after retries.
	ErrFetch = errors.New("contahub: report fetch failed")
)

// Client talks to the upstream POS REST API. It is safe for sequential
// use within one run; a session obtained by Login is reused for every
// subsequent fetch.
type Client struct {
	baseURL string
	empID   string
	email   string
	pass    string
	retries int
	wait    time.Duration

	http    *http.Client
	session string
	log     *logrus.Entry
}

func NewClient(cfg *config.ContaHubConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		empID:   cfg.EmpID,
		email:   cfg.Email,
		pass:    cfg.Password,
		retries: cfg.Retries,
		wait:    cfg.RetryWait,
		http:    httpclient.New(cfg.Timeout),
		log:     logger.ForComponent("contahub-client"),
	}
}

// nonce returns the millisecond timestamp path segment the API requires
// on every call, e.g. 20250901143022123.
func nonce() string {
	now := time.Now()
	return now.Format("20060102150405") + fmt.Sprintf("%03d", now.Nanosecond()/1e6)
}

// Login authenticates with the SHA-1 digest of the password and captures
// the session cookies from the response.
func (c *Client) Login(ctx context.Context) error {
	digest := sha1.Sum([]byte(c.pass))

	form := url.Values{}
	form.Set("usr_email", c.email)
	form.Set("usr_password_sha1", hex.EncodeToString(digest[:]))

	endpoint := fmt.Sprintf("%s/rest/contahub.cmds.UsuarioCmd/login/%s?emp=0", c.baseURL, nonce())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	}

	cookies := resp.Header.Values("Set-Cookie")
	if len(cookies) == 0 {
		return fmt.Errorf("%w: no session cookie in response", ErrAuth)
	}

	pairs := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		pairs = append(pairs, strings.SplitN(cookie, ";", 2)[0])
	}
	c.session = strings.Join(pairs, "; ")

	c.log.Info("Authenticated with upstream POS")
	return nil
}

// FetchReport pulls one report for one gerencial date and returns the raw
// response body. A fresh nonce goes on every attempt.
func (c *Client) FetchReport(ctx context.Context, spec ReportSpec, rt ReportType, date string) ([]byte, error) {
	if c.session == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrAuth)
	}

	var body []byte
	err := httpclient.Retry(ctx, c.retries, c.wait, func() error {
		endpoint := c.reportURL(spec, date)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Cookie", c.session)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrFetch, rt, date, err)
	}

	c.log.WithFields(logrus.Fields{
		"report": string(rt),
		"date":   date,
		"bytes":  len(body),
	}).Debug("Report fetched")

	return body, nil
}

// reportURL builds the query endpoint. Extra parameters ride along even
// when empty; the upstream expects the full parameter list per query.
func (c *Client) reportURL(spec ReportSpec, date string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s/rest/contahub.cmds.QueryCmd/execQuery/%s", c.baseURL, nonce())
	fmt.Fprintf(&sb, "?qry=%d&d0=%s&d1=%s", spec.QueryID, date, date)
	for _, param := range spec.ExtraParams {
		sb.WriteString("&")
		sb.WriteString(param)
	}
	fmt.Fprintf(&sb, "&emp=%s&nfe=1", c.empID)
	return sb.String()
}
