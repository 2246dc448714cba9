package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// ApiClient talks to the mealdesk JSON API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
}

// NewApiClient creates a client from MEALDESK_API_URL and MEALDESK_TOKEN
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("MEALDESK_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		Token:   os.Getenv("MEALDESK_TOKEN"),
	}
}

// PendingOrder mirrors one row of GET /api/v1/orders/pending
type PendingOrder struct {
	ID            int64  `json:"id"`
	UserName      string `json:"userName"`
	MealName      string `json:"foodName"`
	MealQuantity  int    `json:"foodQuantity"`
	DrinkName     string `json:"drinkName"`
	DrinkQuantity int    `json:"drinkQuantity"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	NextStatus    string `json:"nextStatus"`
}

// CatalogItem is a meal or drink
type CatalogItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// APIError is a problem response returned by the server
type APIError struct {
	Status int
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Msg    string `json:"error"`
}

func (e *APIError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
	case e.Msg != "":
		return fmt.Sprintf("%d: %s", e.Status, e.Msg)
	default:
		return fmt.Sprintf("unexpected status code: %d", e.Status)
	}
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}
	return true, nil
}

func (c *ApiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login exchanges credentials for a token and keeps it on the client
func (c *ApiClient) Login(name, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"name":     name,
		"password": password,
	}, &out)
	if err != nil {
		return err
	}
	c.Token = out.Token
	return nil
}

// GetPendingOrders retrieves orders that are not yet delivered
func (c *ApiClient) GetPendingOrders() ([]PendingOrder, error) {
	var orders []PendingOrder
	if err := c.do(http.MethodGet, "/api/v1/orders/pending", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AdvanceOrder moves an order to its next status
func (c *ApiClient) AdvanceOrder(id int64) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/advance", id), nil, nil)
}

// DeleteOrder removes an order by ID
func (c *ApiClient) DeleteOrder(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/v1/orders/%d", id), nil, nil)
}

// GetOfficeTotals retrieves per-office item counts
func (c *ApiClient) GetOfficeTotals() (map[string]map[string]int, error) {
	var totals map[string]map[string]int
	if err := c.do(http.MethodGet, "/api/v1/reports/offices", nil, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// GetCatalog retrieves meals or drinks
func (c *ApiClient) GetCatalog(kind string) ([]CatalogItem, error) {
	var items []CatalogItem
	if err := c.do(http.MethodGet, "/api/v1/"+url.PathEscape(kind), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}
