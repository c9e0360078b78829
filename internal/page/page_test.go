package page

import (
	"testing"

	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html>
<head><title> Sample </title></head>
<body>
  <iframe src="/same/embed" width="640" height="360" allow="autoplay; fullscreen"></iframe>
  <iframe src="//ads.example.net/frame" width="0" height="0" style="display:none"></iframe>
  <iframe src="https://widgets.test/w" style="width: 100%; height: 80px"></iframe>
  <iframe srcdoc="&lt;iframe src=&quot;https://inner.test/&quot; width=&quot;10&quot; height=&quot;10&quot;&gt;&lt;/iframe&gt;"></iframe>
  <iframe src="https://broken.test" style="width: calc(100% - 10px)"></iframe>
</body>
</html>`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(samplePage), "text/html; charset=utf-8", "https://site.test/index.html", "0")
	require.NoError(t, err)

	assert.Equal(t, "Sample", doc.Title)
	assert.Equal(t, "utf-8", doc.Charset)
	require.Len(t, doc.Frames, 5)

	same := doc.Frames[0]
	assert.Equal(t, "0.0", same.ID)
	assert.Equal(t, frames.TagIframe, same.Tag)
	assert.Equal(t, "https://site.test/same/embed", same.URL)
	assert.False(t, same.CrossOrigin)
	assert.Equal(t, &frames.Rect{Width: 640, Height: 360}, same.Rect)
	assert.Equal(t, "autoplay; fullscreen", same.Attributes["allow"])

	hidden := doc.Frames[1]
	assert.Equal(t, "https://ads.example.net/frame", hidden.URL)
	assert.True(t, hidden.CrossOrigin)
	assert.True(t, hidden.Rect.Empty())

	widget := doc.Frames[2]
	assert.Equal(t, &frames.Rect{Width: DefaultFrameWidth, Height: 80}, widget.Rect)

	inline := doc.Frames[3]
	assert.Equal(t, SrcdocURL, inline.URL)
	assert.False(t, inline.CrossOrigin)
	require.Len(t, inline.Frames, 1)
	assert.Equal(t, "0.3.0", inline.Frames[0].ID)
	assert.Equal(t, "https://inner.test/", inline.Frames[0].URL)

	broken := doc.Frames[4]
	assert.Nil(t, broken.Rect)
}

func TestParseRoot(t *testing.T) {
	doc, err := Parse([]byte(samplePage), "text/html", "https://site.test/", "0")
	require.NoError(t, err)

	root := Root(doc)
	assert.True(t, root.IsBody())
	assert.Equal(t, "0", root.ID)
	assert.Same(t, doc.Frames[3].Frames[0], root.Find("0.3.0"))
	assert.Nil(t, root.Find("9.9"))
}

func TestParseLatin1(t *testing.T) {
	body := []byte("<html><head><title>caf\xe9</title></head><body></body></html>")

	doc, err := Parse(body, "text/html; charset=iso-8859-1", "https://site.test/", "0")
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Title)
}

func TestDocumentCharset(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        string
	}{
		{name: "content type", body: "<html></html>", contentType: "text/html; charset=iso-8859-1", want: "windows-1252"},
		{name: "meta charset", body: `<html><head><meta charset="shift_jis"></head></html>`, contentType: "text/html", want: "shift_jis"},
		{name: "meta http-equiv", body: `<meta http-equiv="Content-Type" content="text/html; charset=koi8-r">`, contentType: "text/html", want: "koi8-r"},
		{name: "bom", body: "\xef\xbb\xbf<html></html>", contentType: "text/html", want: "utf-8"},
		{name: "content type beats meta", body: `<meta charset="koi8-r">`, contentType: "text/html; charset=utf-8", want: "utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, documentCharset([]byte(tt.body), tt.contentType))
		})
	}
}

func TestParseMetaCharset(t *testing.T) {
	body := []byte("<html><head><meta charset=\"iso-8859-1\"><title>caf\xe9</title></head><body></body></html>")

	doc, err := Parse(body, "text/html", "https://site.test/", "0")
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Title)
}

func TestParseTooLarge(t *testing.T) {
	_, err := Parse(make([]byte, MaxDocumentSize+1), "text/html", "https://site.test/", "0")
	assert.Error(t, err)
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name    string
		attrs   map[string]string
		want    *frames.Rect
		wantErr bool
	}{
		{name: "defaults", attrs: map[string]string{}, want: &frames.Rect{Width: 300, Height: 150}},
		{name: "attributes", attrs: map[string]string{"width": "728", "height": "90"}, want: &frames.Rect{Width: 728, Height: 90}},
		{name: "px attributes", attrs: map[string]string{"width": "1px", "height": "1px"}, want: &frames.Rect{Width: 1, Height: 1}},
		{name: "zero", attrs: map[string]string{"width": "0", "height": "0"}, want: &frames.Rect{}},
		{name: "display none", attrs: map[string]string{"width": "500", "style": "display: none"}, want: &frames.Rect{}},
		{name: "style overrides attribute", attrs: map[string]string{"width": "500", "style": "width:0px;height:0"}, want: &frames.Rect{}},
		{name: "relative length", attrs: map[string]string{"width": "100%", "height": "50vh"}, want: &frames.Rect{Width: 300, Height: 150}},
		{name: "important", attrs: map[string]string{"style": "height: 20px !important"}, want: &frames.Rect{Width: 300, Height: 20}},
		{name: "unmeasurable", attrs: map[string]string{"style": "width: calc(100% - 2px)"}, wantErr: true},
		{name: "negative", attrs: map[string]string{"height": "-5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Measure(tt.attrs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "https://cdn.test/x", Resolve("//cdn.test/x", "http://site.test/"))
	assert.Equal(t, "http://site.test/a/b", Resolve("b", "http://site.test/a/"))
	assert.Equal(t, "about:blank", Resolve("", "http://site.test/"))
	assert.Equal(t, "", Resolve("/x", "not a url"))
}

func TestCrossOrigin(t *testing.T) {
	assert.False(t, CrossOrigin("https://site.test/a", "https://site.test/b"))
	assert.True(t, CrossOrigin("https://site.test/a", "https://other.test/b"))
	assert.True(t, CrossOrigin("https://site.test/a", "http://site.test/b"))
	assert.False(t, CrossOrigin("https://site.test/a", "about:blank"))
	assert.True(t, CrossOrigin("https://site.test/a", "data:text/html,hi"))
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML([]byte("<html></html>"), "text/html; charset=utf-8"))
	assert.False(t, IsHTML([]byte("<html></html>"), "application/json"))
	assert.True(t, IsHTML([]byte("<!DOCTYPE html><html><body></body></html>"), ""))
	assert.True(t, IsHTML([]byte("<!DOCTYPE html><html><body></body></html>"), "application/octet-stream"))
	assert.False(t, IsHTML([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, ""))
}

func TestFetchable(t *testing.T) {
	assert.True(t, Fetchable(&frames.Element{URL: "https://a.test/"}))
	assert.False(t, Fetchable(&frames.Element{URL: SrcdocURL}))
	assert.False(t, Fetchable(&frames.Element{URL: "about:blank"}))
}
