package vast

import (
	"strings"
	"testing"
	"time"
)

const sampleVAST = `<?xml version="1.0" encoding="UTF-8"?>
<VAST version="3.0">
  <Ad id="12345">
    <InLine>
      <AdSystem>TestServer</AdSystem>
      <AdTitle>Sample Spot</AdTitle>
      <Impression><![CDATA[https://track.example.com/imp?id=1]]></Impression>
      <Impression><![CDATA[https://track.example.com/imp?id=2]]></Impression>
      <Error><![CDATA[https://track.example.com/err]]></Error>
      <Creatives>
        <Creative>
          <Linear>
            <Duration>00:00:10</Duration>
            <TrackingEvents>
              <Tracking event="start"><![CDATA[https://track.example.com/start]]></Tracking>
              <Tracking event="firstQuartile"><![CDATA[https://track.example.com/q1]]></Tracking>
              <Tracking event="midpoint"><![CDATA[https://track.example.com/mid]]></Tracking>
              <Tracking event="thirdQuartile"><![CDATA[https://track.example.com/q3]]></Tracking>
              <Tracking event="complete"><![CDATA[https://track.example.com/done]]></Tracking>
              <Tracking event="pause"><![CDATA[https://track.example.com/pause]]></Tracking>
            </TrackingEvents>
            <VideoClicks>
              <ClickThrough><![CDATA[https://brand.example.com/landing]]></ClickThrough>
              <ClickTracking><![CDATA[https://track.example.com/click]]></ClickTracking>
            </VideoClicks>
            <MediaFiles>
              <MediaFile type="video/mp4" width="640" height="360"><![CDATA[https://cdn.example.com/spot.mp4]]></MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleVAST))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Version != "3.0" {
		t.Errorf("Version = %q", doc.Version)
	}
	if doc.AdSystem != "TestServer" || doc.AdTitle != "Sample Spot" {
		t.Errorf("AdSystem/AdTitle = %q/%q", doc.AdSystem, doc.AdTitle)
	}
	if doc.Duration != 10*time.Second {
		t.Errorf("Duration = %v", doc.Duration)
	}
	if doc.ClickThrough != "https://brand.example.com/landing" {
		t.Errorf("ClickThrough = %q", doc.ClickThrough)
	}
	if len(doc.Trackers[EventImpression]) != 2 {
		t.Errorf("impressions = %v", doc.Trackers[EventImpression])
	}
	if len(doc.Trackers[EventFirstQuartile]) != 1 {
		t.Errorf("firstQuartile = %v", doc.Trackers[EventFirstQuartile])
	}
	if len(doc.MediaFiles) != 1 || doc.MediaFiles[0].Width != 640 {
		t.Errorf("MediaFiles = %+v", doc.MediaFiles)
	}
}

func TestParseRejects(t *testing.T) {
	if _, err := Parse([]byte("not xml at all <<<")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Parse([]byte(`<VAST version="3.0"></VAST>`)); err == nil {
		t.Error("expected no-ads error")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"00:00:10", 10 * time.Second, true},
		{"00:00:02.600", 2600 * time.Millisecond, true},
		{"01:30:00", 90 * time.Minute, true},
		{"10", 0, false},
		{"aa:bb:cc", 0, false},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("parseDuration(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWrapperURI(t *testing.T) {
	wrapper := `<VAST version="3.0"><Ad><Wrapper>
		<VASTAdTagURI><![CDATA[https://ads.example.com/next.xml]]></VASTAdTagURI>
		<Impression><![CDATA[https://track.example.com/wrap-imp]]></Impression>
	</Wrapper></Ad></VAST>`
	if got := wrapperURI([]byte(wrapper)); got != "https://ads.example.com/next.xml" {
		t.Errorf("wrapperURI = %q", got)
	}
	if got := wrapperURI([]byte(sampleVAST)); got != "" {
		t.Errorf("inline wrapperURI = %q", got)
	}
}

func firedMatching(r *Recorder, substr string) int {
	n := 0
	for _, u := range r.Fired {
		if strings.Contains(u, substr) {
			n++
		}
	}
	return n
}

func TestSimulatorQuartilesFireOnce(t *testing.T) {
	doc, err := Parse([]byte(sampleVAST))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := &Recorder{}
	sim := NewSimulator(doc, rec)

	sim.Start()
	// timeupdate ticks past the first quartile of a 10s spot, repeatedly.
	for _, at := range []time.Duration{
		500 * time.Millisecond, 2600 * time.Millisecond,
		2700 * time.Millisecond, 3 * time.Second,
	} {
		sim.ProgressTo(at)
	}
	if n := firedMatching(rec, "/q1"); n != 1 {
		t.Errorf("firstQuartile fired %d times, want 1", n)
	}
	if n := firedMatching(rec, "/mid"); n != 0 {
		t.Errorf("midpoint fired %d times before the midpoint", n)
	}
	if n := firedMatching(rec, "/imp"); n != 2 {
		t.Errorf("impressions fired %d, want 2", n)
	}

	sim.Start()
	if n := firedMatching(rec, "/imp"); n != 2 {
		t.Errorf("repeated Start re-fired impressions: %d", n)
	}

	sim.ProgressTo(10 * time.Second)
	sim.Complete()
	sim.Complete()
	if n := firedMatching(rec, "/done"); n != 1 {
		t.Errorf("complete fired %d times, want 1", n)
	}
	if n := firedMatching(rec, "/q3"); n != 1 {
		t.Errorf("thirdQuartile fired %d times, want 1", n)
	}
}

func TestSimulatorRepeatableEvents(t *testing.T) {
	doc, err := Parse([]byte(sampleVAST))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := &Recorder{}
	sim := NewSimulator(doc, rec)
	sim.Emit("pause")
	sim.Emit("pause")
	if n := firedMatching(rec, "/pause"); n != 2 {
		t.Errorf("pause fired %d times, want 2", n)
	}
}

func TestSimulatorClick(t *testing.T) {
	doc, err := Parse([]byte(sampleVAST))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := &Recorder{}
	sim := NewSimulator(doc, rec)
	dest := sim.Click()
	if dest != "https://brand.example.com/landing" {
		t.Errorf("Click destination = %q", dest)
	}
	if n := firedMatching(rec, "/click"); n != 1 {
		t.Errorf("clickTracking fired %d times", n)
	}
}

func TestSimulatorStatus(t *testing.T) {
	doc, err := Parse([]byte(sampleVAST))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sim := NewSimulator(doc, &Recorder{})
	sim.Start()
	var imp GroupStatus
	for _, g := range sim.Status() {
		if g.Event == EventImpression {
			imp = g
		}
	}
	if imp.Event == "" {
		t.Fatal("impression group missing from status")
	}
	if imp.Total != 2 || imp.Fired != 2 {
		t.Errorf("impression status = %+v", imp)
	}
}

func TestCacheBust(t *testing.T) {
	if got := cacheBust("https://t.example.com/p?x=[timestamp]"); strings.Contains(got, "[timestamp]") {
		t.Errorf("macro not substituted: %q", got)
	}
	got := cacheBust("https://t.example.com/p")
	if !strings.Contains(got, "?cb=") {
		t.Errorf("no cb param appended: %q", got)
	}
	got = cacheBust("https://t.example.com/p?x=1")
	if !strings.Contains(got, "&cb=") {
		t.Errorf("cb param should use &: %q", got)
	}
}
