package trending

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultRestPort = 8080

// Client talks to the trending database's RESTful interface on one host.
type Client struct {
	HTTP *http.Client
	Host string
	Port int
}

func NewClient(host string) *Client {
	return &Client{
		HTTP: &http.Client{Timeout: 30 * time.Second},
		Host: host,
		Port: DefaultRestPort,
	}
}

func (c *Client) baseURL() string {
	return fmt.Sprintf("http://%s:%d/rest/data/dataserver", c.Host, c.Port)
}

// DataURL builds the history URL for one channel id.
func (c *Client) DataURL(id int, axis *TimeAxis, raw bool) string {
	url := fmt.Sprintf("%s/data/%d", c.baseURL(), id)
	if raw {
		url += "?flavor=raw"
	}
	if axis != nil {
		url = axis.appendAxisInfo(url)
	}
	return url
}

// Channels fetches the channel catalog: subsystem/quantity paths mapped to
// channel ids.
func (c *Client) Channels(ctx context.Context) (*Channels, error) {
	body, err := c.get(ctx, c.baseURL()+"/listchannels")
	if err != nil {
		return nil, err
	}
	var catalog channelCatalog
	if err := xml.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("trending: parse channel catalog: %w", err)
	}
	ids := make(map[string]int, len(catalog.Channels))
	for _, ch := range catalog.Channels {
		if len(ch.PathElements) < 2 {
			continue
		}
		ids[ch.PathElements[0]+"/"+ch.PathElements[1]] = ch.ID
	}
	return &Channels{ids: ids}, nil
}

// History fetches and parses the trending points for one channel id.
func (c *Client) History(ctx context.Context, id int, axis *TimeAxis, raw bool) (History, error) {
	body, err := c.get(ctx, c.DataURL(id, axis, raw))
	if err != nil {
		return History{}, err
	}
	return parseHistory(body)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("trending: build request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trending: get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trending: get %s: status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("trending: read %s: %w", url, err)
	}
	return body, nil
}

// Channels maps subsystem/quantity channel paths to ids.
type Channels struct {
	ids map[string]int
}

func (ch *Channels) ID(subsystem, quantity string) (int, bool) {
	id, ok := ch.ids[subsystem+"/"+quantity]
	return id, ok
}

func (ch *Channels) Len() int {
	return len(ch.ids)
}

type channelCatalog struct {
	XMLName  xml.Name `xml:"datachannels"`
	Channels []struct {
		PathElements []string `xml:"path>pathelement"`
		ID           int      `xml:"id"`
	} `xml:"datachannel"`
}
