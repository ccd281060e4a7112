// Package gateway talks to the remote pharmacy backend. All catalog,
// patient, group and user data lives there; the bearer token received on
// login travels with each request's context.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hmansour/medilabel/internal/model"
)

const requestTimeout = 10 * time.Second

// Error is a failed backend call. Status is the HTTP status code, or zero
// when the backend answered 200 with success=false.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	return "backend: " + e.Message
}

// Client is a stateless backend client, safe for concurrent use. It holds
// no credential of its own; each request authenticates with the token found
// on its context, so concurrent sessions never share an identity.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenKey struct{}

// WithToken returns a context carrying a backend bearer token. Requests
// issued with that context authenticate as the token's owner; requests
// without one go out unauthenticated.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// do sends one request and decodes the response into out. Every backend
// response carries a success flag; success=false is surfaced as *Error
// regardless of the HTTP status.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	// The envelope may not decode on non-JSON error pages; fall through to
	// the status check in that case.
	_ = json.Unmarshal(data, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}
	if envelope.Success != nil && !*envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Error
		}
		if msg == "" {
			msg = "request failed"
		}
		return &Error{Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// LoginResult is a successful authentication against the backend.
type LoginResult struct {
	Token string
	User  model.User
}

// Login authenticates and returns the backend's bearer token with the user
// it identifies. The token is not retained here; callers persist it with the
// session and attach it per request via WithToken.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Token   string `json:"token"`
		User    struct {
			UserID      int64  `json:"UserID"`
			UserName    string `json:"UserName"`
			FullName    string `json:"FullName"`
			AccessLevel string `json:"AccessLevel"`
		} `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token: resp.Token,
		User: model.User{
			ID:          resp.User.UserID,
			Username:    resp.User.UserName,
			FullName:    resp.User.FullName,
			AccessLevel: resp.User.AccessLevel,
		},
	}, nil
}

// TokenClaims are the fields this client reads out of the backend's JWT.
// The token is never verified here; the backend signed it and the backend
// enforces it. We only reflect its contents for display and expiry checks.
type TokenClaims struct {
	Role      string
	ExpiresAt time.Time
}

func ParseTokenClaims(token string) (*TokenClaims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}

	tc := &TokenClaims{}
	if role, ok := claims["role"].(string); ok {
		tc.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}
	return tc, nil
}

// Medications fetches the full drug catalog.
func (c *Client) Medications(ctx context.Context) ([]model.Drug, error) {
	var resp struct {
		Success     bool         `json:"success"`
		Medications []model.Drug `json:"medications"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/medications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Medications, nil
}

// AddCustomDrug registers a one-off drug in the backend catalog and returns
// it as stored.
func (c *Client) AddCustomDrug(ctx context.Context, drug model.Drug) (*model.Drug, error) {
	var resp struct {
		Success    bool       `json:"success"`
		Medication model.Drug `json:"medication"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/medications", drug, &resp); err != nil {
		return nil, err
	}
	return &resp.Medication, nil
}

type wirePatient struct {
	PatientID   string `json:"PatientID"`
	Year        string `json:"Year"`
	PatientName string `json:"PatientName"`
	NationalID  string `json:"NationalID"`
}

func (w wirePatient) toModel() model.Patient {
	p := model.Patient{
		PatientID:   w.PatientID,
		Year:        w.Year,
		PatientName: w.PatientName,
		NationalID:  w.NationalID,
	}
	p.FullID = p.PatientID + "/" + p.Year
	return p
}

// SearchPatient looks up a patient by file number and year.
func (c *Client) SearchPatient(ctx context.Context, patientID, year string) (*model.Patient, error) {
	var resp struct {
		Success bool        `json:"success"`
		Patient wirePatient `json:"patient"`
	}
	path := "/api/patients/search?patientId=" + url.QueryEscape(patientID) + "&year=" + url.QueryEscape(year)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	patient := resp.Patient.toModel()
	return &patient, nil
}

// PatientPage is one page of the patient roster.
type PatientPage struct {
	Patients []model.Patient
	Total    int
	Page     int
	PerPage  int
}

func (c *Client) ListPatients(ctx context.Context, page, perPage int, search string) (*PatientPage, error) {
	var resp struct {
		Success  bool          `json:"success"`
		Patients []wirePatient `json:"patients"`
		Total    int           `json:"total"`
		Page     int           `json:"page"`
		PerPage  int           `json:"perPage"`
	}
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("perPage", fmt.Sprint(perPage))
	if search != "" {
		q.Set("search", search)
	}
	if err := c.do(ctx, http.MethodGet, "/api/patients?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	result := &PatientPage{Total: resp.Total, Page: resp.Page, PerPage: resp.PerPage}
	for _, w := range resp.Patients {
		result.Patients = append(result.Patients, w.toModel())
	}
	return result, nil
}

func (c *Client) CreatePatient(ctx context.Context, p model.Patient) (*model.Patient, error) {
	var resp struct {
		Success bool        `json:"success"`
		Patient wirePatient `json:"patient"`
	}
	body := wirePatient{PatientID: p.PatientID, Year: p.Year, PatientName: p.PatientName, NationalID: p.NationalID}
	if err := c.do(ctx, http.MethodPost, "/api/patients", body, &resp); err != nil {
		return nil, err
	}
	patient := resp.Patient.toModel()
	return &patient, nil
}

func (c *Client) UpdatePatient(ctx context.Context, p model.Patient) (*model.Patient, error) {
	var resp struct {
		Success bool        `json:"success"`
		Patient wirePatient `json:"patient"`
	}
	body := wirePatient{PatientID: p.PatientID, Year: p.Year, PatientName: p.PatientName, NationalID: p.NationalID}
	path := "/api/patients/" + url.PathEscape(p.PatientID) + "/" + url.PathEscape(p.Year)
	if err := c.do(ctx, http.MethodPut, path, body, &resp); err != nil {
		return nil, err
	}
	patient := resp.Patient.toModel()
	return &patient, nil
}

func (c *Client) DeletePatient(ctx context.Context, patientID, year string) error {
	path := "/api/patients/" + url.PathEscape(patientID) + "/" + url.PathEscape(year)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// BackendUser is a staff account as managed on the backend.
type BackendUser struct {
	UserID      int64  `json:"UserID"`
	UserName    string `json:"UserName"`
	FullName    string `json:"FullName"`
	AccessLevel string `json:"AccessLevel"`
	IsActive    bool   `json:"IsActive"`
}

func (c *Client) Users(ctx context.Context) ([]BackendUser, error) {
	var resp struct {
		Success bool          `json:"success"`
		Users   []BackendUser `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// NewUser is the payload for creating a staff account.
type NewUser struct {
	UserName    string `json:"UserName"`
	FullName    string `json:"FullName"`
	Password    string `json:"Password"`
	AccessLevel string `json:"AccessLevel"`
}

func (c *Client) CreateUser(ctx context.Context, u NewUser) (*BackendUser, error) {
	var resp struct {
		Success bool        `json:"success"`
		User    BackendUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/users", u, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// UserUpdate carries the mutable fields of a staff account. Password is
// optional; empty means unchanged.
type UserUpdate struct {
	FullName    string `json:"FullName"`
	Password    string `json:"Password,omitempty"`
	AccessLevel string `json:"AccessLevel"`
	IsActive    bool   `json:"IsActive"`
}

func (c *Client) UpdateUser(ctx context.Context, id int64, u UserUpdate) (*BackendUser, error) {
	var resp struct {
		Success bool        `json:"success"`
		User    BackendUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d", id), u, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, nil)
}

// Statistics are the backend's aggregate counts.
type Statistics struct {
	TotalPatients    int `json:"totalPatients"`
	TotalMedications int `json:"totalMedications"`
	TotalUsers       int `json:"totalUsers"`
}

func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	var resp struct {
		Success    bool       `json:"success"`
		Statistics Statistics `json:"statistics"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/statistics", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Statistics, nil
}

func (c *Client) Groups(ctx context.Context) ([]model.GroupSummary, error) {
	var resp struct {
		Success bool                 `json:"success"`
		Groups  []model.GroupSummary `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/medication-groups", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// GroupDetails fetches one protocol with its full drug list.
func (c *Client) GroupDetails(ctx context.Context, groupID int64) (*model.GroupDetail, error) {
	var resp struct {
		Success bool              `json:"success"`
		Group   model.GroupDetail `json:"group"`
	}
	path := fmt.Sprintf("/api/medication-groups/%d", groupID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Group, nil
}

// GroupInput is the payload for creating or updating a protocol.
type GroupInput struct {
	GroupName   string            `json:"groupName"`
	Description string            `json:"description"`
	Drugs       []model.GroupDrug `json:"drugs"`
}

func (c *Client) CreateGroup(ctx context.Context, in GroupInput) (*model.GroupDetail, error) {
	var resp struct {
		Success bool              `json:"success"`
		Group   model.GroupDetail `json:"group"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/medication-groups", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Group, nil
}

func (c *Client) UpdateGroup(ctx context.Context, groupID int64, in GroupInput) (*model.GroupDetail, error) {
	var resp struct {
		Success bool              `json:"success"`
		Group   model.GroupDetail `json:"group"`
	}
	path := fmt.Sprintf("/api/medication-groups/%d", groupID)
	if err := c.do(ctx, http.MethodPut, path, in, &resp); err != nil {
		return nil, err
	}
	return &resp.Group, nil
}

func (c *Client) DeleteGroup(ctx context.Context, groupID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/medication-groups/%d", groupID), nil, nil)
}
