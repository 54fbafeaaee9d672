package trending

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsrig/ccsbridge/internal/testutil/testlog"
)

func TestNewTimeAxis(t *testing.T) {
	testlog.Start(t)

	t.Run("explicit interval", func(t *testing.T) {
		ta, err := NewTimeAxis(24, "2017-01-21T09:58:01", "2017-01-22T09:58:01", 100)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, ta.End.Sub(ta.Start))
		assert.Equal(t, 100, ta.NBins)
	})

	t.Run("start plus duration", func(t *testing.T) {
		ta, err := NewTimeAxis(6, "2017-01-21T09:58:01", "", 0)
		require.NoError(t, err)
		assert.Equal(t, 6*time.Hour, ta.End.Sub(ta.Start))
	})

	t.Run("default window ends now", func(t *testing.T) {
		ta, err := NewTimeAxis(2, "", "", 0)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), ta.End, 5*time.Second)
		assert.Equal(t, 2*time.Hour, ta.End.Sub(ta.Start))
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := NewTimeAxis(2, "21-01-2017", "", 0)
		assert.Error(t, err)
	})
}

func TestAppendAxisInfo(t *testing.T) {
	testlog.Start(t)
	start := time.Date(2017, 1, 21, 9, 0, 0, 0, time.UTC)
	ta := TimeAxis{Start: start, End: start.Add(time.Hour), NBins: 50}

	t.Run("fresh query string", func(t *testing.T) {
		got := ta.appendAxisInfo("http://db:8080/rest/data/dataserver/data/7")
		want := fmt.Sprintf("http://db:8080/rest/data/dataserver/data/7?t1=%d&t2=%d&n=50",
			start.UnixMilli(), start.Add(time.Hour).UnixMilli())
		assert.Equal(t, want, got)
	})

	t.Run("appends to raw flavor", func(t *testing.T) {
		got := ta.appendAxisInfo("http://db:8080/rest/data/dataserver/data/7?flavor=raw")
		assert.Contains(t, got, "?flavor=raw&t1=")
	})

	t.Run("bins omitted when auto", func(t *testing.T) {
		auto := TimeAxis{Start: start, End: start.Add(time.Hour)}
		assert.NotContains(t, auto.appendAxisInfo("http://db/x"), "n=")
	})
}

func TestParseConfig(t *testing.T) {
	testlog.Start(t)

	t.Run("valid config", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(`
sections:
  - name: Temperature
    units: degC
    quantities:
      - REB0.Temp1
      - REB0.Temp2
`))
		require.NoError(t, err)
		section, ok := cfg.Section("Temperature")
		require.True(t, ok)
		assert.Equal(t, "degC", section.Units)
		assert.Equal(t, []string{"REB0.Temp1", "REB0.Temp2"}, section.Quantities)
	})

	t.Run("missing units", func(t *testing.T) {
		_, err := ParseConfig([]byte("sections:\n  - name: T\n    quantities: [a]\n"))
		assert.Error(t, err)
	})

	t.Run("no sections", func(t *testing.T) {
		_, err := ParseConfig([]byte("sections: []\n"))
		assert.Error(t, err)
	})
}

const testSubsystem = "ccs-reb5-0"

func channelXML(id int, subsystem, quantity string) string {
	return fmt.Sprintf(
		"<datachannel><path><pathelement>%s</pathelement><pathelement>%s</pathelement></path><id>%d</id></datachannel>",
		subsystem, quantity, id)
}

func historyXML(points []Point) string {
	var b strings.Builder
	b.WriteString("<data>")
	for _, pt := range points {
		ms := pt.Time.UnixMilli()
		fmt.Fprintf(&b, `<trendingdata>`+
			`<datavalue name="value" value="%g"/>`+
			`<datavalue name="rms" value="%g"/>`+
			`<axisvalue name="time" value="%d" loweredge="%d" upperedge="%d"/>`+
			`</trendingdata>`,
			pt.Value, pt.RMS, ms, ms-300000, ms+300000)
	}
	b.WriteString("</data>")
	return b.String()
}

func testServer(t *testing.T, histories map[int][]Point, quantities map[string]int) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/data/dataserver/listchannels", func(w http.ResponseWriter, _ *http.Request) {
		var b strings.Builder
		b.WriteString("<datachannels>")
		for quantity, id := range quantities {
			b.WriteString(channelXML(id, testSubsystem, quantity))
		}
		b.WriteString("</datachannels>")
		_, _ = w.Write([]byte(b.String()))
	})
	mux.HandleFunc("/rest/data/dataserver/data/", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/rest/data/dataserver/data/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		points, ok := histories[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(historyXML(points)))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	client := NewClient(u.Hostname())
	client.Port = port
	return client
}

func TestChannelsAndHistory(t *testing.T) {
	testlog.Start(t)
	base := time.Date(2017, 1, 21, 10, 0, 0, 0, time.Local)
	points := []Point{
		{Time: base, Value: 12.5, RMS: 0.25},
		{Time: base.Add(10 * time.Minute), Value: 13.0, RMS: 0.5},
	}
	client := testServer(t,
		map[int][]Point{101: points},
		map[string]int{"REB0.Temp1": 101})

	ctx := context.Background()
	channels, err := client.Channels(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, channels.Len())
	id, ok := channels.ID(testSubsystem, "REB0.Temp1")
	require.True(t, ok)
	assert.Equal(t, 101, id)

	history, err := client.History(ctx, id, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "time", history.AxisName)
	require.Len(t, history.Points, 2)
	assert.Equal(t, 12.5, history.Points[0].Value)
	assert.Equal(t, 0.25, history.Points[0].RMS)
	assert.WithinDuration(t, base, history.Points[0].Time, time.Millisecond)
	assert.Equal(t, 300.0, history.Points[0].XError)
}

func TestDataURL(t *testing.T) {
	testlog.Start(t)
	client := NewClient("tid-pc93482")
	assert.Equal(t,
		"http://tid-pc93482:8080/rest/data/dataserver/data/7",
		client.DataURL(7, nil, false))
	assert.Equal(t,
		"http://tid-pc93482:8080/rest/data/dataserver/data/7?flavor=raw",
		client.DataURL(7, nil, true))
}

func TestCollectorSaveFile(t *testing.T) {
	testlog.Start(t)
	base := time.Date(2017, 1, 21, 10, 0, 0, 0, time.Local)
	temps1 := []Point{
		{Time: base, Value: 12.5, RMS: 0.25},
		{Time: base.Add(10 * time.Minute), Value: 13.0, RMS: 0.5},
	}
	temps2 := []Point{
		{Time: base, Value: -5.0, RMS: 0.1},
		{Time: base.Add(10 * time.Minute), Value: -4.5, RMS: 0.2},
	}
	short := []Point{{Time: base, Value: 1.0, RMS: 0.0}}

	client := testServer(t,
		map[int][]Point{101: temps1, 102: temps2, 103: short},
		map[string]int{"REB0.Temp1": 101, "REB0.Temp2": 102, "REB0.Odd": 103})

	collector := NewCollector(client, testSubsystem, nil)
	err := collector.ReadSection(context.Background(), Section{
		Name:       "Temperature",
		Units:      "degC",
		Quantities: []string{"REB0.Temp1", "REB0.Temp2", "REB0.Odd"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Temperature (degC)", collector.YLabel())

	var buf bytes.Buffer
	require.NoError(t, collector.SaveFile(&buf))

	// The short history cannot be aligned and is dropped from the table.
	want := "# date time REB0.Temp1 error REB0.Temp2 error\n" +
		fmt.Sprintf("%s 1.2500e+01 2.5000e-01 -5.0000e+00 1.0000e-01\n", base.Format("2006-01-02 15:04:05")) +
		fmt.Sprintf("%s 1.3000e+01 5.0000e-01 -4.5000e+00 2.0000e-01\n", base.Add(10*time.Minute).Format("2006-01-02 15:04:05"))
	assert.Equal(t, want, buf.String())
}

func TestCollectorUnknownQuantity(t *testing.T) {
	testlog.Start(t)
	client := testServer(t, map[int][]Point{}, map[string]int{"REB0.Temp1": 101})

	collector := NewCollector(client, testSubsystem, nil)
	err := collector.ReadSection(context.Background(), Section{
		Name: "T", Units: "degC", Quantities: []string{"REB9.Nope"},
	})
	assert.Error(t, err)
}
