package sympla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/zykor/platform/pkg/common/config"
	"github.com/zykor/platform/pkg/common/httpclient"
	"github.com/zykor/platform/pkg/common/logger"
)

// pageSize is the fixed page length of the upstream API; a shorter page
// means the last one.
const pageSize = 100

// Event is one ticketed event as returned by the events listing.
type Event struct {
	ID           int64                  `json:"id"`
	ReferenceID  int64                  `json:"reference_id"`
	Name         string                 `json:"name"`
	StartDate    string                 `json:"start_date"`
	EndDate      string                 `json:"end_date"`
	Published    int                    `json:"published"`
	Image        string                 `json:"image"`
	URL          string                 `json:"url"`
	Address      map[string]interface{} `json:"address"`
	Host         map[string]interface{} `json:"host"`
	CategoryPrim *Category              `json:"category_prim"`
	CategorySec  *Category              `json:"category_sec"`
}

type Category struct {
	Name string `json:"name"`
}

// Participant is one attendee of an event.
type Participant struct {
	ID              int64    `json:"id"`
	EventID         int64    `json:"event_id"`
	OrderID         string   `json:"order_id"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	TicketName      string   `json:"ticket_name"`
	TicketNumber    string   `json:"ticket_number"`
	TicketCreatedAt string   `json:"ticket_created_at"`
	TicketUpdatedAt string   `json:"ticket_updated_at"`
	TicketQRCode    string   `json:"ticket_num_qr_code"`
	OrderStatus     string   `json:"order_status"`
	Checkin         *Checkin `json:"checkin"`
}

type Checkin struct {
	CheckIn     bool   `json:"check_in"`
	CheckInDate string `json:"check_in_date"`
}

// Order is one purchase, possibly covering several participants.
type Order struct {
	ID              string                 `json:"id"`
	EventID         int64                  `json:"event_id"`
	OrderDate       string                 `json:"order_date"`
	OrderStatus     string                 `json:"order_status"`
	TransactionType string                 `json:"transaction_type"`
	BuyerFirstName  string                 `json:"buyer_first_name"`
	BuyerLastName   string                 `json:"buyer_last_name"`
	BuyerEmail      string                 `json:"buyer_email"`
	TotalSalePrice  float64                `json:"order_total_sale_price"`
	TotalNetValue   float64                `json:"order_total_net_value"`
	UpdatedDate     string                 `json:"updated_date"`
	ApprovedDate    string                 `json:"approved_date"`
	UTM             map[string]interface{} `json:"utm"`
}

// Client talks to the Sympla public API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logrus.Entry
}

func NewClient(cfg *config.SymplaConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    httpclient.New(cfg.Timeout),
		log:     logger.ForComponent("sympla-client"),
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("s_token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("sympla: status %d on %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// ListEvents pages through every event whose window overlaps the given
// date (YYYY-MM-DD).
func (c *Client) ListEvents(ctx context.Context, date string) ([]Event, error) {
	var all []Event
	for page := 1; ; page++ {
		var body struct {
			Data []Event `json:"data"`
		}
		path := fmt.Sprintf("/events?page=%d&start_date=%s&end_date=%s", page, date, date)
		if err := c.get(ctx, path, &body); err != nil {
			return nil, err
		}
		if len(body.Data) == 0 {
			break
		}
		all = append(all, body.Data...)
		if len(body.Data) < pageSize {
			break
		}
	}
	return all, nil
}

// ListParticipants pages through every participant of an event.
func (c *Client) ListParticipants(ctx context.Context, eventID int64) ([]Participant, error) {
	var all []Participant
	for page := 1; ; page++ {
		var body struct {
			Data []Participant `json:"data"`
		}
		path := fmt.Sprintf("/events/%d/participants?page=%d", eventID, page)
		if err := c.get(ctx, path, &body); err != nil {
			return nil, err
		}
		if len(body.Data) == 0 {
			break
		}
		all = append(all, body.Data...)
		if len(body.Data) < pageSize {
			break
		}
	}
	return all, nil
}

// ListOrders pages through every order of an event.
func (c *Client) ListOrders(ctx context.Context, eventID int64) ([]Order, error) {
	var all []Order
	for page := 1; ; page++ {
		var body struct {
			Data []Order `json:"data"`
		}
		path := fmt.Sprintf("/events/%d/orders?page=%d", eventID, page)
		if err := c.get(ctx, path, &body); err != nil {
			return nil, err
		}
		if len(body.Data) == 0 {
			break
		}
		all = append(all, body.Data...)
		if len(body.Data) < pageSize {
			break
		}
	}
	return all, nil
}
