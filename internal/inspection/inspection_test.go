package inspection

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
	"github.com/GriffinCanCode/FrameLens/backend/internal/fetch"
	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	siteURL = "http://site.test/"
	adsURL  = "http://ads.example/banner"
)

type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]*fetch.Document
	calls []string
	opts  []fetch.Options
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string, opts fetch.Options) (*fetch.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	f.opts = append(f.opts, opts)

	doc, ok := f.docs[rawURL]
	if !ok {
		return nil, fetch.ErrServer
	}
	cp := *doc
	if cp.URL == "" {
		cp.URL = rawURL
	}
	return &cp, nil
}

func htmlDoc(body string, cs ...*http.Cookie) *fetch.Document {
	return &fetch.Document{
		Status:      http.StatusOK,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
		Cookies:     cs,
	}
}

func newSite() *fakeFetcher {
	return &fakeFetcher{docs: map[string]*fetch.Document{
		siteURL: htmlDoc(`<html><head><title>Site</title></head><body>
			<iframe src="/same" width="100" height="50"></iframe>
			<iframe src="`+adsURL+`" width="300" height="250" allow="fullscreen"></iframe>
			<iframe src="/hidden" style="display:none"></iframe>
			<iframe srcdoc="<iframe src='/inner'></iframe>"></iframe>
			</body></html>`,
			&http.Cookie{Name: "session", Value: "1"},
		),
		"http://site.test/same": htmlDoc(`<body><iframe src="/deep" allow="camera"></iframe></body>`,
			&http.Cookie{Name: "pref", Value: "dark"},
			&http.Cookie{Name: "ad", Value: "x", Domain: "ads.example"},
		),
		adsURL: htmlDoc(`<body><iframe src="/pixel"></iframe></body>`,
			&http.Cookie{Name: "track", Value: "abc"},
		),
		"http://site.test/hidden": htmlDoc(`<body></body>`),
		"http://site.test/inner":  htmlDoc(`<body></body>`),
		"http://site.test/deep":   htmlDoc(`<body></body>`),
		"http://ads.example/pixel": {
			Status:      http.StatusOK,
			ContentType: "image/gif",
			Body:        []byte("GIF89a"),
		},
	}}
}

func newService(t *testing.T, f Fetcher, cfg Config) *Service {
	t.Helper()
	return NewService(f, cfg, nil, nil)
}

func inspect(t *testing.T, svc *Service) *Inspection {
	t.Helper()
	in, err := svc.Inspect(context.Background(), siteURL)
	require.NoError(t, err)
	return in
}

func TestInspect(t *testing.T) {
	svc := newService(t, newSite(), DefaultConfig())
	in := inspect(t, svc)

	assert.NotEmpty(t, in.ID)
	assert.Equal(t, "http://site.test", in.Origin())

	view := in.View(false)
	assert.Equal(t, "Site", view.Title)
	assert.Equal(t, http.StatusOK, view.Status)

	byID := map[string]FrameSummary{}
	for _, f := range in.Frames() {
		byID[f.ID] = f
	}
	require.Len(t, byID, 8)

	assert.Equal(t, frames.MainFrame, byID["0"].Type)
	assert.Equal(t, frames.Iframe, byID["0.0"].Type)
	assert.False(t, byID["0.0"].CrossOrigin)
	assert.True(t, byID["0.1"].CrossOrigin)
	assert.Equal(t, frames.HiddenIframe, byID["0.2"].Type)
	assert.Equal(t, "about:srcdoc", byID["0.3"].URL)
	assert.Equal(t, "http://site.test/inner", byID["0.3.0"].URL)
	assert.Equal(t, "http://site.test/deep", byID["0.0.0"].URL)
	assert.Equal(t, "http://ads.example/pixel", byID["0.1.0"].URL)

	assert.Equal(t, 1, byID["0"].FirstPartyCookies)
	assert.Equal(t, 1, byID["0.0"].FirstPartyCookies)
	assert.Equal(t, 1, byID["0.0"].ThirdPartyCookies)
	assert.Equal(t, 0, byID["0.1"].FirstPartyCookies)
	assert.Equal(t, 1, byID["0.1"].ThirdPartyCookies)

	assert.Len(t, in.Cookies(""), 4)
}

func TestInspectErrors(t *testing.T) {
	f := newSite()
	f.docs["http://site.test/image"] = &fetch.Document{Status: 200, ContentType: "image/png", Body: []byte{0x89, 'P', 'N', 'G'}}
	svc := newService(t, f, DefaultConfig())

	_, err := svc.Inspect(context.Background(), "http://site.test/image")
	assert.ErrorIs(t, err, ErrNotHTML)

	_, err = svc.Inspect(context.Background(), "http://missing.test/")
	assert.ErrorIs(t, err, fetch.ErrServer)

	assert.Empty(t, svc.List())
}

func TestInspectFrameFailures(t *testing.T) {
	f := newSite()
	delete(f.docs, "http://site.test/hidden")
	svc := newService(t, f, DefaultConfig())

	in := inspect(t, svc)
	for _, fr := range in.Frames() {
		if fr.ID == "0.2" {
			assert.NotEmpty(t, fr.Error)
			return
		}
	}
	t.Fatal("hidden frame missing")
}

func TestInspectLimits(t *testing.T) {
	t.Run("depth", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxDepth = 1
		f := newSite()
		svc := newService(t, f, cfg)

		in := inspect(t, svc)
		assert.NotContains(t, f.calls, "http://site.test/deep")
		assert.NotContains(t, f.calls, "http://site.test/inner")

		// frames past the depth limit are listed but never loaded
		deep := in.Root().Find("0.0.0")
		require.NotNil(t, deep)
		assert.Empty(t, deep.Frames)
	})

	t.Run("frames", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxFrames = 2
		cfg.Concurrency = 1
		f := newSite()
		svc := newService(t, f, cfg)

		in := inspect(t, svc)
		// top-level document plus two frames
		assert.Len(t, f.calls, 3)

		failed := 0
		for _, fr := range in.Frames() {
			if fr.Error != "" {
				failed++
			}
		}
		assert.Positive(t, failed)
	})
}

func TestInspectRedirectedFrame(t *testing.T) {
	f := newSite()
	moved := htmlDoc(`<body></body>`)
	moved.URL = "http://elsewhere.example/landing"
	f.docs["http://site.test/hidden"] = moved

	svc := newService(t, f, DefaultConfig())
	in := inspect(t, svc)

	frame := in.Root().Find("0.2")
	require.NotNil(t, frame)
	assert.Equal(t, "http://elsewhere.example/landing", frame.URL)
	assert.True(t, frame.CrossOrigin)
}

func TestTooltip(t *testing.T) {
	svc := newService(t, newSite(), DefaultConfig())
	in := inspect(t, svc)

	t.Run("main frame", func(t *testing.T) {
		info, err := svc.Tooltip(in.ID, "0", "")
		require.NoError(t, err)
		assert.Equal(t, frames.MainFrame, info.Type)
		assert.Equal(t, "http://site.test", info.Origin)
		assert.Equal(t, 1, info.FirstPartyCookies)
		assert.Equal(t, 0, info.ThirdPartyCookies)
	})

	t.Run("iframe", func(t *testing.T) {
		info, err := svc.Tooltip(in.ID, "0.1", "")
		require.NoError(t, err)
		assert.Equal(t, frames.Iframe, info.Type)
		assert.Equal(t, "http://ads.example", info.Origin)
		assert.Equal(t, "fullscreen", info.AllowedFeatures)
		assert.Equal(t, 1, info.ThirdPartyCookies)
	})

	t.Run("nested same origin", func(t *testing.T) {
		info, err := svc.Tooltip(in.ID, "0.0", "/deep")
		require.NoError(t, err)
		assert.Equal(t, frames.NestedIframe, info.Type)
		assert.Equal(t, "http://site.test", info.Origin)
		assert.Equal(t, "camera", info.AllowedFeatures)
	})

	t.Run("nested cross origin", func(t *testing.T) {
		info, err := svc.Tooltip(in.ID, "0.1", "/pixel")
		require.NoError(t, err)
		assert.Equal(t, frames.Iframe, info.Type)
		assert.Equal(t, "http://ads.example", info.Origin)
	})

	t.Run("nested srcdoc", func(t *testing.T) {
		info, err := svc.Tooltip(in.ID, "0.3", "/inner")
		require.NoError(t, err)
		assert.Equal(t, frames.NestedIframe, info.Type)
		assert.Equal(t, "http://site.test", info.Origin)
	})

	t.Run("hidden", func(t *testing.T) {
		info, err := svc.Tooltip(in.ID, "0.2", "")
		require.NoError(t, err)
		assert.Equal(t, frames.HiddenIframe, info.Type)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := svc.Tooltip("nope", "0", "")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = svc.Tooltip(in.ID, "9.9", "")
		assert.ErrorIs(t, err, ErrFrameNotFound)
	})
}

func TestMarkNestedIsConsumed(t *testing.T) {
	svc := newService(t, newSite(), DefaultConfig())
	in := inspect(t, svc)

	require.NoError(t, svc.MarkNested(in.ID, "0.0", "/deep"))

	info, err := svc.Tooltip(in.ID, "0.0", "")
	require.NoError(t, err)
	assert.Equal(t, frames.NestedIframe, info.Type)

	info, err = svc.Tooltip(in.ID, "0.0", "")
	require.NoError(t, err)
	assert.Equal(t, frames.Iframe, info.Type)

	assert.ErrorIs(t, svc.MarkNested(in.ID, "7", "/x"), ErrFrameNotFound)
}

func TestComposeSnapshot(t *testing.T) {
	svc := newService(t, newSite(), DefaultConfig())
	three := 3

	info := svc.ComposeSnapshot(Snapshot{
		Frame: &frames.Element{
			Tag:        frames.TagIframe,
			Attributes: map[string]string{"src": "//cdn.example/widget", "allow": "autoplay"},
			Rect:       &frames.Rect{Width: 10, Height: 10},
		},
		Payload: frames.Payload{SelectedFrame: "https://site.test", ThirdPartyCookies: &three},
	})

	assert.Equal(t, frames.Iframe, info.Type)
	assert.Equal(t, "https://cdn.example", info.Origin)
	assert.Equal(t, 0, info.FirstPartyCookies)
	assert.Equal(t, 3, info.ThirdPartyCookies)
	assert.Equal(t, "autoplay", info.AllowedFeatures)

	info = svc.ComposeSnapshot(Snapshot{})
	assert.Equal(t, frames.HiddenIframe, info.Type)
}

func TestReload(t *testing.T) {
	f := newSite()
	svc := newService(t, f, DefaultConfig())
	in := inspect(t, svc)

	require.NoError(t, svc.Select(in.ID, Selection{
		Frame:   "0.3.0",
		Cookies: map[string]string{"0.0": "pref:site.test:/"},
	}))

	// the srcdoc frame and the pref cookie disappear
	f.docs[siteURL] = htmlDoc(`<body><iframe src="/same"></iframe></body>`)
	f.docs["http://site.test/same"] = htmlDoc(`<body></body>`)

	reloaded, err := svc.Reload(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.ID, reloaded.ID)
	assert.Equal(t, 1, reloaded.View(false).Reloads)
	assert.True(t, f.opts[len(f.opts)-1].BypassCache)

	sel := reloaded.Selection()
	assert.Empty(t, sel.Frame)
	assert.Empty(t, sel.Cookies)

	_, err = svc.Reload(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPanelState(t *testing.T) {
	svc := newService(t, newSite(), DefaultConfig())
	in := inspect(t, svc)

	t.Run("select", func(t *testing.T) {
		assert.ErrorIs(t, svc.Select(in.ID, Selection{Frame: "4"}), ErrFrameNotFound)
		assert.ErrorIs(t, svc.Select(in.ID, Selection{Cookies: map[string]string{"0": "nope:x:/"}}), ErrCookieNotFound)

		require.NoError(t, svc.Select(in.ID, Selection{Frame: "0.0", Cookies: map[string]string{"0": "session:site.test:/"}}))
		assert.Equal(t, "0.0", in.Selection().Frame)
		assert.Equal(t, "session:site.test:/", in.Selection().Cookies["0"])

		require.NoError(t, svc.Select(in.ID, Selection{Cookies: map[string]string{"0": ""}}))
		assert.Empty(t, in.Selection().Cookies)
	})

	t.Run("preferences", func(t *testing.T) {
		err := svc.SetPreferences(in.ID, cookies.Preferences{Sorting: &cookies.Sorting{Key: "bogus"}})
		assert.ErrorIs(t, err, cookies.ErrUnknownColumn)

		require.NoError(t, svc.SetPreferences(in.ID, cookies.Preferences{
			Sorting:         &cookies.Sorting{Key: cookies.ColumnName, Desc: true},
			SelectedColumns: map[string]bool{cookies.ColumnValue: false},
		}))

		table, err := svc.Table(in.ID, "0.0", nil)
		require.NoError(t, err)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "pref", table.Rows[0].Cookie.Name)
		for _, c := range table.Columns {
			assert.NotEqual(t, cookies.ColumnValue, c.Key)
		}
	})

	t.Run("table override", func(t *testing.T) {
		table, err := svc.Table(in.ID, "", &cookies.Preferences{Sorting: &cookies.Sorting{Key: cookies.ColumnName}})
		require.NoError(t, err)
		require.Len(t, table.Rows, 4)
		assert.Equal(t, "ad", table.Rows[0].Cookie.Name)

		_, err = svc.Table(in.ID, "8", nil)
		assert.ErrorIs(t, err, ErrFrameNotFound)
	})
}

func TestExport(t *testing.T) {
	svc := newService(t, newSite(), DefaultConfig())
	in := inspect(t, svc)

	decode := func(t *testing.T, r io.Reader) View {
		t.Helper()
		raw, err := io.ReadAll(r)
		require.NoError(t, err)
		var v View
		require.NoError(t, sonic.Unmarshal(raw, &v))
		return v
	}

	t.Run("gzip", func(t *testing.T) {
		exp, err := svc.Export(in.ID, "")
		require.NoError(t, err)
		assert.Equal(t, FormatGzip, exp.Format)
		assert.Equal(t, "inspection-"+in.ID+".json.gz", exp.Filename)

		zr, err := gzip.NewReader(bytes.NewReader(exp.Data))
		require.NoError(t, err)
		v := decode(t, zr)
		assert.Equal(t, in.ID, v.ID)
		require.NotNil(t, v.Tree)
		assert.Len(t, v.Tree.Frames, 4)
	})

	t.Run("zstd", func(t *testing.T) {
		exp, err := svc.Export(in.ID, FormatZstd)
		require.NoError(t, err)

		zr, err := zstd.NewReader(bytes.NewReader(exp.Data))
		require.NoError(t, err)
		defer zr.Close()
		v := decode(t, zr)
		assert.Len(t, v.Cookies, 4)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := svc.Export(in.ID, "rar")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestDelete(t *testing.T) {
	svc := newService(t, newSite(), DefaultConfig())
	in := inspect(t, svc)

	require.NoError(t, svc.Delete(in.ID))
	_, err := svc.Get(in.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, errors.Is(svc.Delete(in.ID), ErrNotFound))
}

func TestStore(t *testing.T) {
	t.Run("capacity", func(t *testing.T) {
		s := NewStore(2, 0)
		assert.Empty(t, s.Put(&Inspection{ID: "a"}))
		assert.Empty(t, s.Put(&Inspection{ID: "b"}))
		assert.Equal(t, []string{"a"}, s.Put(&Inspection{ID: "c"}))

		_, ok := s.Get("a")
		assert.False(t, ok)
		assert.Len(t, s.List(), 2)
	})

	t.Run("ttl", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		s := NewStore(0, time.Minute)
		s.now = func() time.Time { return now }

		s.Put(&Inspection{ID: "old", updatedAt: now})
		now = now.Add(2 * time.Minute)
		s.Put(&Inspection{ID: "new", updatedAt: now})

		_, ok := s.Get("old")
		assert.False(t, ok)
		_, ok = s.Get("new")
		assert.True(t, ok)
		assert.Equal(t, 1, s.Len())

		now = now.Add(2 * time.Minute)
		assert.Equal(t, []string{"new"}, s.Expire())
		assert.Zero(t, s.Len())
	})

	t.Run("delete", func(t *testing.T) {
		s := NewStore(0, 0)
		s.Put(&Inspection{ID: "a"})
		assert.True(t, s.Delete("a"))
		assert.False(t, s.Delete("a"))
		assert.Empty(t, s.List())
	})
}
