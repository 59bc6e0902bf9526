package splunk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-userinfo/components/userinfo"
)

// HTTPConfig configures the Splunk REST client.
type HTTPConfig struct {
	BaseURL    string
	Token      string
	Username   string
	Password   string
	App        string
	Owner      string
	HTTPClient *http.Client
}

// HTTPClient talks to the Splunk management port (search/jobs endpoints).
type HTTPClient struct {
	baseURL  string
	token    string
	username string
	password string
	jobsPath string
	client   *http.Client
}

// NewHTTPClient builds a client for the configured Splunk instance.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("splunk: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	jobsPath := "/services/search/jobs"
	if cfg.App != "" {
		owner := cfg.Owner
		if owner == "" {
			owner = "nobody"
		}
		jobsPath = "/servicesNS/" + url.PathEscape(owner) + "/" + url.PathEscape(cfg.App) + "/search/jobs"
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		username: cfg.Username,
		password: cfg.Password,
		jobsPath: jobsPath,
		client:   httpClient,
	}, nil
}

// CreateJob dispatches a search and returns its sid.
func (c *HTTPClient) CreateJob(ctx context.Context, query string) (string, error) {
	form := url.Values{}
	form.Set("search", normalizeQuery(query))
	form.Set("output_mode", "json")
	form.Set("exec_mode", "normal")
	var resp createJobResponse
	if err := c.do(ctx, http.MethodPost, c.jobsPath, nil, form, &resp); err != nil {
		return "", err
	}
	if resp.SID == "" {
		return "", fmt.Errorf("splunk: create job returned no sid")
	}
	return resp.SID, nil
}

// Job fetches the status of a search job.
func (c *HTTPClient) Job(ctx context.Context, sid string) (userinfo.JobProperties, error) {
	query := url.Values{"output_mode": {"json"}}
	var resp jobResponse
	if err := c.do(ctx, http.MethodGet, c.jobsPath+"/"+url.PathEscape(sid), query, nil, &resp); err != nil {
		return userinfo.JobProperties{}, err
	}
	if len(resp.Entry) == 0 {
		return userinfo.JobProperties{}, fmt.Errorf("splunk: job %s not found", sid)
	}
	content := resp.Entry[0].Content
	return userinfo.JobProperties{
		SID:           sid,
		IsDone:        content.IsDone,
		IsFailed:      content.IsFailed,
		DispatchState: content.DispatchState,
		ResultCount:   content.ResultCount,
	}, nil
}

// Results fetches the job's result rows; preview reads the partial results of a running job.
func (c *HTTPClient) Results(ctx context.Context, sid string, preview bool) (userinfo.ResultsModel, error) {
	endpoint := "/results"
	if preview {
		endpoint = "/results_preview"
	}
	query := url.Values{"output_mode": {"json_rows"}, "count": {"0"}}
	var resp resultsResponse
	if err := c.do(ctx, http.MethodGet, c.jobsPath+"/"+url.PathEscape(sid)+endpoint, query, nil, &resp); err != nil {
		return userinfo.ResultsModel{}, err
	}
	return resp.toModel()
}

// DecodeResults reads a json_rows results document (as exported by the
// results endpoint with output_mode=json_rows).
func DecodeResults(r io.Reader) (userinfo.ResultsModel, error) {
	var resp resultsResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return userinfo.ResultsModel{}, fmt.Errorf("splunk: decode results: %w", err)
	}
	return resp.toModel()
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query, form url.Values, target any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("splunk: build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.username != "":
		req.SetBasicAuth(c.username, c.password)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("splunk: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("splunk: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("splunk: decode response: %w", err)
	}
	return nil
}

// normalizeQuery prefixes plain searches with the search command as the REST API requires.
func normalizeQuery(query string) string {
	q := strings.TrimSpace(query)
	if strings.HasPrefix(q, "|") || strings.HasPrefix(q, "search ") {
		return q
	}
	return "search " + q
}

type createJobResponse struct {
	SID string `json:"sid"`
}

type jobContent struct {
	IsDone        bool   `json:"isDone"`
	IsFailed      bool   `json:"isFailed"`
	DispatchState string `json:"dispatchState"`
	ResultCount   int    `json:"resultCount"`
}

type jobResponse struct {
	Entry []struct {
		Content jobContent `json:"content"`
	} `json:"entry"`
}

type resultsResponse struct {
	Fields []json.RawMessage `json:"fields"`
	Rows   [][]any           `json:"rows"`
}

func (r resultsResponse) toModel() (userinfo.ResultsModel, error) {
	fields := make([]string, 0, len(r.Fields))
	for _, raw := range r.Fields {
		name, err := fieldName(raw)
		if err != nil {
			return userinfo.ResultsModel{}, err
		}
		fields = append(fields, name)
	}
	rows := make([]userinfo.ResultRow, len(r.Rows))
	for i, row := range r.Rows {
		cells := make(userinfo.ResultRow, len(row))
		for j, cell := range row {
			cells[j] = cellString(cell)
		}
		rows[i] = cells
	}
	return userinfo.ResultsModel{Fields: fields, Rows: rows}, nil
}

// fieldName accepts both `"name"` and `{"name": "name"}` field descriptors.
func fieldName(raw json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name, nil
	}
	var described struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &described); err != nil {
		return "", fmt.Errorf("splunk: decode field descriptor %s: %w", string(raw), err)
	}
	return described.Name, nil
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = cellString(item)
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(v)
	}
}
