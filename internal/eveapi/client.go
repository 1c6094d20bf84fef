package eveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	corporationTTL = 30 * time.Minute
	characterTTL   = 30 * time.Minute
)

// CorporationInfo is the public corporation sheet. TaxRate is the in-game
// fraction (0.1 means 10%).
type CorporationInfo struct {
	Name        string `json:"name"`
	Ticker      string `json:"ticker"`
	TaxRate     float64 `json:"tax_rate"`
	MemberCount int    `json:"member_count"`
	CEOID       int64  `json:"ceo_id"`
	AllianceID  *int64 `json:"alliance_id"`
}

type CharacterInfo struct {
	Name          string `json:"name"`
	CorporationID int64  `json:"corporation_id"`
	AllianceID    *int64 `json:"alliance_id"`
}

type AllianceInfo struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

type NamedID struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ResolvedNames is the answer to a bulk name lookup.
type ResolvedNames struct {
	Characters   []NamedID `json:"characters"`
	Corporations []NamedID `json:"corporations"`
	Alliances    []NamedID `json:"alliances"`
}

// Client reads public game-universe data.
type Client interface {
	CorporationInfo(ctx context.Context, corporationID int64) (*CorporationInfo, error)
	CharacterInfo(ctx context.Context, characterID int64) (*CharacterInfo, error)
	AllianceInfo(ctx context.Context, allianceID int64) (*AllianceInfo, error)
	ResolveNames(ctx context.Context, names []string) (*ResolvedNames, error)
}

type client struct {
	baseURL      string
	userAgent    string
	http         *http.Client
	corporations *ttlCache[int64, *CorporationInfo]
	characters   *ttlCache[int64, *CharacterInfo]
}

func NewClient(baseURL, userAgent string) Client {
	return &client{
		baseURL:      baseURL,
		userAgent:    userAgent,
		http:         &http.Client{Timeout: 30 * time.Second},
		corporations: newTTLCache[int64, *CorporationInfo](),
		characters:   newTTLCache[int64, *CharacterInfo](),
	}
}

func (c *client) CorporationInfo(ctx context.Context, corporationID int64) (*CorporationInfo, error) {
	if cached, ok := c.corporations.Get(corporationID); ok {
		return cached, nil
	}
	var info CorporationInfo
	if err := c.get(ctx, fmt.Sprintf("/latest/corporations/%d/", corporationID), &info); err != nil {
		return nil, fmt.Errorf("corporation %d: %w", corporationID, err)
	}
	c.corporations.Set(corporationID, &info, corporationTTL)
	return &info, nil
}

func (c *client) CharacterInfo(ctx context.Context, characterID int64) (*CharacterInfo, error) {
	if cached, ok := c.characters.Get(characterID); ok {
		return cached, nil
	}
	var info CharacterInfo
	if err := c.get(ctx, fmt.Sprintf("/latest/characters/%d/", characterID), &info); err != nil {
		return nil, fmt.Errorf("character %d: %w", characterID, err)
	}
	c.characters.Set(characterID, &info, characterTTL)
	return &info, nil
}

func (c *client) AllianceInfo(ctx context.Context, allianceID int64) (*AllianceInfo, error) {
	var info AllianceInfo
	if err := c.get(ctx, fmt.Sprintf("/latest/alliances/%d/", allianceID), &info); err != nil {
		return nil, fmt.Errorf("alliance %d: %w", allianceID, err)
	}
	return &info, nil
}

func (c *client) ResolveNames(ctx context.Context, names []string) (*ResolvedNames, error) {
	body, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/latest/universe/ids/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	var resolved ResolvedNames
	if err := c.do(req, &resolved); err != nil {
		return nil, fmt.Errorf("resolve names: %w", err)
	}
	return &resolved, nil
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
