package transport

// Go client for the donations HTTP API. Mirrors the server's routes and
// envelopes so out-of-process consumers do not hand-roll requests.
// Responses decode into client-side DTOs: the polymorphic attachment
// slots arrive as raw JSON and are decoded on demand by owner type.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"donation-service/internal/model"
)

// FindQuery narrows a donation listing request.
type FindQuery struct {
	DonorAddress string
	OwnerID      string
	Offset       int
}

// EnrichedDonation is the wire shape of an enriched donation. The
// ownerEntity and proposedEntity slots hold different entity kinds
// depending on the donation, so they are kept raw; OwnerProject,
// OwnerUser and ProposedDetails decode them.
type EnrichedDonation struct {
	model.Donation
	Donor          *model.User           `json:"donor,omitempty"`
	OwnerEntity    json.RawMessage       `json:"ownerEntity,omitempty"`
	DelegateEntity *model.DelegationPool `json:"delegateEntity,omitempty"`
	ProposedEntity json.RawMessage       `json:"proposedEntity,omitempty"`
}

// ProjectDetails is the wire shape shared by campaign and milestone
// attachments. Its own nested proposed slot stays raw.
type ProjectDetails struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	CampaignID          string            `json:"campaignId,omitempty"`
	ProjectID           int64             `json:"projectId"`
	ProposedProject     int64             `json:"proposedProject"`
	ProposedProjectType model.ProjectType `json:"proposedProjectType,omitempty"`
	DonationCount       int64             `json:"donationCount"`
	TotalDonated        string            `json:"totalDonated"`
	ProposedEntity      json.RawMessage   `json:"proposedEntity,omitempty"`
}

// Proposed decodes the nested proposed-project attachment, when the
// server expanded one.
func (p *ProjectDetails) Proposed() (*ProjectDetails, error) {
	return decodeProject(p.ProposedEntity)
}

// OwnerProject decodes the owner attachment of a campaign- or
// milestone-owned donation. Nil when the slot is empty.
func (d *EnrichedDonation) OwnerProject() (*ProjectDetails, error) {
	return decodeProject(d.OwnerEntity)
}

// OwnerUser decodes the owner attachment of a donor-owned donation.
func (d *EnrichedDonation) OwnerUser() (*model.User, error) {
	if len(d.OwnerEntity) == 0 {
		return nil, nil
	}
	var user model.User
	if err := json.Unmarshal(d.OwnerEntity, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ProposedDetails decodes the donation's own proposed-project
// attachment.
func (d *EnrichedDonation) ProposedDetails() (*ProjectDetails, error) {
	return decodeProject(d.ProposedEntity)
}

func decodeProject(raw json.RawMessage) (*ProjectDetails, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var project ProjectDetails
	if err := json.Unmarshal(raw, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// WrappedResponse mirrors the server's listing envelope.
type WrappedResponse struct {
	Data   []EnrichedDonation `json:"data"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type DonationsClient interface {
	CreateDonation(ctx context.Context, donation model.Donation, mode string) (EnrichedDonation, error)
	GetDonation(ctx context.Context, id string, mode string) (EnrichedDonation, error)
	FindDonations(ctx context.Context, query FindQuery, mode string) (WrappedResponse, error)
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) CreateDonation(ctx context.Context, donation model.Donation, mode string) (EnrichedDonation, error) {
	body, err := json.Marshal(donation)
	if err != nil {
		return EnrichedDonation{}, err
	}

	u, err := c.endpoint("/donations", mode, nil)
	if err != nil {
		return EnrichedDonation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return EnrichedDonation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var created EnrichedDonation
	if err := c.do(req, http.StatusCreated, &created); err != nil {
		return EnrichedDonation{}, err
	}
	return created, nil
}

func (c *Client) GetDonation(ctx context.Context, id string, mode string) (EnrichedDonation, error) {
	u, err := c.endpoint("/donations/"+url.PathEscape(id), mode, nil)
	if err != nil {
		return EnrichedDonation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return EnrichedDonation{}, err
	}

	var donation EnrichedDonation
	if err := c.do(req, http.StatusOK, &donation); err != nil {
		return EnrichedDonation{}, err
	}
	return donation, nil
}

func (c *Client) FindDonations(ctx context.Context, query FindQuery, mode string) (WrappedResponse, error) {
	params := url.Values{}
	if query.DonorAddress != "" {
		params.Set("donorAddress", query.DonorAddress)
	}
	if query.OwnerID != "" {
		params.Set("ownerId", query.OwnerID)
	}
	if query.Offset > 0 {
		params.Set("offset", strconv.Itoa(query.Offset))
	}

	u, err := c.endpoint("/donations", mode, params)
	if err != nil {
		return WrappedResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return WrappedResponse{}, err
	}

	var wrapped WrappedResponse
	if err := c.do(req, http.StatusOK, &wrapped); err != nil {
		return WrappedResponse{}, err
	}
	return wrapped, nil
}

func (c *Client) endpoint(path string, mode string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}

	query := u.Query()
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	if mode != "" {
		query.Set("schema", mode)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

var _ DonationsClient = (*Client)(nil)
