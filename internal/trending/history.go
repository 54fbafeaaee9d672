package trending

import (
	"encoding/xml"
	"fmt"
	"time"
)

// Point is one binned trending sample.
type Point struct {
	Time   time.Time
	Value  float64
	RMS    float64
	XError float64 // half the bin width in seconds
}

// History is the ordered samples of one channel.
type History struct {
	AxisName string
	Points   []Point
}

type trendingDoc struct {
	Data []struct {
		DataValues []struct {
			Name  string  `xml:"name,attr"`
			Value float64 `xml:"value,attr"`
		} `xml:"datavalue"`
		AxisValue struct {
			Name      string  `xml:"name,attr"`
			Value     float64 `xml:"value,attr"`
			LowerEdge float64 `xml:"loweredge,attr"`
			UpperEdge float64 `xml:"upperedge,attr"`
		} `xml:"axisvalue"`
	} `xml:"trendingdata"`
}

func parseHistory(body []byte) (History, error) {
	var doc trendingDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return History{}, fmt.Errorf("trending: parse history: %w", err)
	}
	h := History{}
	for _, td := range doc.Data {
		pt := Point{
			Time:   time.UnixMilli(int64(td.AxisValue.Value)),
			XError: (td.AxisValue.UpperEdge - td.AxisValue.LowerEdge) / 2e3,
		}
		for _, dv := range td.DataValues {
			switch dv.Name {
			case "value":
				pt.Value = dv.Value
			case "rms":
				pt.RMS = dv.Value
			}
		}
		h.AxisName = td.AxisValue.Name
		h.Points = append(h.Points, pt)
	}
	return h, nil
}
