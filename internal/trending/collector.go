package trending

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// Collector gathers the histories of one subsystem's quantities for
// persistence.
type Collector struct {
	client    *Client
	subsystem string
	axis      *TimeAxis

	order     []string
	histories map[string]History
	yLabel    string
}

func NewCollector(client *Client, subsystem string, axis *TimeAxis) *Collector {
	return &Collector{
		client:    client,
		subsystem: subsystem,
		axis:      axis,
		histories: make(map[string]History),
	}
}

// ReadSection resolves each of the section's quantities to a channel id
// and fetches its history.
func (c *Collector) ReadSection(ctx context.Context, section Section) error {
	channels, err := c.client.Channels(ctx)
	if err != nil {
		return err
	}
	c.yLabel = fmt.Sprintf("%s (%s)", section.Name, section.Units)
	for _, quantity := range section.Quantities {
		id, ok := channels.ID(c.subsystem, quantity)
		if !ok {
			return fmt.Errorf("trending: no channel %s/%s", c.subsystem, quantity)
		}
		history, err := c.client.History(ctx, id, c.axis, false)
		if err != nil {
			return err
		}
		log.Debug().Str("quantity", quantity).Int("points", len(history.Points)).Msg("history read")
		c.order = append(c.order, quantity)
		c.histories[quantity] = history
	}
	return nil
}

// YLabel is the section label with units, e.g. "Temperature (degC)".
func (c *Collector) YLabel() string {
	return c.yLabel
}

// History returns the fetched history for one quantity.
func (c *Collector) History(quantity string) (History, bool) {
	h, ok := c.histories[quantity]
	return h, ok
}

// SaveFile writes the collected quantities as an aligned text table: one
// row per time bin, a value and rms column per quantity. Quantities whose
// sample count disagrees with the first one are skipped, since their rows
// cannot be aligned.
func (c *Collector) SaveFile(w io.Writer) error {
	if len(c.order) == 0 {
		return fmt.Errorf("trending: no histories loaded")
	}
	base := c.histories[c.order[0]].Points
	header := "# date time"
	var columns []string
	for _, quantity := range c.order {
		if len(c.histories[quantity].Points) != len(base) {
			log.Warn().Str("quantity", quantity).Msg("sample count mismatch, column skipped")
			continue
		}
		header += fmt.Sprintf(" %s error", quantity)
		columns = append(columns, quantity)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for i, pt := range base {
		row := pt.Time.Format("2006-01-02 15:04:05")
		for _, quantity := range columns {
			sample := c.histories[quantity].Points[i]
			row += fmt.Sprintf(" %.4e %.4e", sample.Value, sample.RMS)
		}
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
	}
	return nil
}
