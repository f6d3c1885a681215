package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/richmenu-studio/richmenu-backend/internal/menu"
)

// APIError is a non-success response from the LINE platform. Status and the
// raw body are kept verbatim so they can be surfaced to the operator.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line api returned status %d: %s", e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 from the platform.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

// Client talks to the LINE Messaging API rich menu endpoints. Content
// uploads go to a separate data host. All calls are rate limited client-side
// because the platform enforces per-account request quotas.
type Client struct {
	apiBase    string
	dataBase   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client against the given hosts. ratePerMin caps
// outgoing calls; zero disables client-side limiting.
func NewClient(apiBase, dataBase string, ratePerMin int) *Client {
	var limiter *rate.Limiter
	if ratePerMin > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMin)), ratePerMin)
	}
	return &Client{
		apiBase:  apiBase,
		dataBase: dataBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
	}
}

// RichMenuSummary is one entry of the remote menu list.
type RichMenuSummary struct {
	RichMenuID  string `json:"richMenuId"`
	Name        string `json:"name"`
	ChatBarText string `json:"chatBarText"`
}

// Alias is one entry of the remote alias list.
type Alias struct {
	RichMenuAliasID string `json:"richMenuAliasId"`
	RichMenuID      string `json:"richMenuId"`
}

// ListMenus enumerates existing remote rich menus.
func (c *Client) ListMenus(ctx context.Context, token string) ([]RichMenuSummary, error) {
	body, err := c.do(ctx, token, http.MethodGet, c.apiBase+"/richmenu/list", nil, "")
	if err != nil {
		return nil, err
	}

	var out struct {
		RichMenus []RichMenuSummary `json:"richmenus"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu list: %w", err)
	}
	return out.RichMenus, nil
}

// DeleteMenu removes a remote rich menu object.
func (c *Client) DeleteMenu(ctx context.Context, token, richMenuID string) error {
	_, err := c.do(ctx, token, http.MethodDelete, c.apiBase+"/richmenu/"+richMenuID, nil, "")
	return err
}

// CreateMenu creates a remote rich menu and returns the platform-assigned ID.
func (c *Client) CreateMenu(ctx context.Context, token string, payload menu.Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal menu payload: %w", err)
	}

	body, err := c.do(ctx, token, http.MethodPost, c.apiBase+"/richmenu", data, "application/json")
	if err != nil {
		return "", err
	}

	var out struct {
		RichMenuID string `json:"richMenuId"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to unmarshal create response: %w", err)
	}
	return out.RichMenuID, nil
}

// UploadImage attaches the background image to a remote rich menu.
func (c *Client) UploadImage(ctx context.Context, token, richMenuID string, image []byte) error {
	url := fmt.Sprintf("%s/richmenu/%s/content", c.dataBase, richMenuID)
	_, err := c.do(ctx, token, http.MethodPost, url, image, "image/png")
	return err
}

// UpdateAlias rebinds an existing alias to a new rich menu ID. Returns an
// *APIError with status 404 if the alias does not exist yet.
func (c *Client) UpdateAlias(ctx context.Context, token, aliasID, richMenuID string) error {
	data, err := json.Marshal(map[string]string{"richMenuId": richMenuID})
	if err != nil {
		return fmt.Errorf("failed to marshal alias update: %w", err)
	}
	_, err = c.do(ctx, token, http.MethodPut, c.apiBase+"/richmenu/alias/"+aliasID, data, "application/json")
	return err
}

// CreateAlias binds a new alias to a rich menu ID.
func (c *Client) CreateAlias(ctx context.Context, token, aliasID, richMenuID string) error {
	data, err := json.Marshal(map[string]string{
		"richMenuAliasId": aliasID,
		"richMenuId":      richMenuID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alias create: %w", err)
	}
	_, err = c.do(ctx, token, http.MethodPost, c.apiBase+"/richmenu/alias", data, "application/json")
	return err
}

// ListAliases enumerates existing alias bindings.
func (c *Client) ListAliases(ctx context.Context, token string) ([]Alias, error) {
	body, err := c.do(ctx, token, http.MethodGet, c.apiBase+"/richmenu/alias/list", nil, "")
	if err != nil {
		return nil, err
	}

	var out struct {
		Aliases []Alias `json:"aliases"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alias list: %w", err)
	}
	return out.Aliases, nil
}

// DeleteAlias removes an alias binding.
func (c *Client) DeleteAlias(ctx context.Context, token, aliasID string) error {
	_, err := c.do(ctx, token, http.MethodDelete, c.apiBase+"/richmenu/alias/"+aliasID, nil, "")
	return err
}

// SetDefault sets a rich menu as the platform-wide default for all users.
func (c *Client) SetDefault(ctx context.Context, token, richMenuID string) error {
	_, err := c.do(ctx, token, http.MethodPost, c.apiBase+"/user/all/richmenu/"+richMenuID, nil, "")
	return err
}

// UnsetDefault clears the platform-wide default rich menu.
func (c *Client) UnsetDefault(ctx context.Context, token string) error {
	_, err := c.do(ctx, token, http.MethodDelete, c.apiBase+"/user/all/richmenu", nil, "")
	return err
}

func (c *Client) do(ctx context.Context, token, method, url string, body []byte, contentType string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call line api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
