package cookies

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFirstParty(t *testing.T) {
	tests := []struct {
		domain string
		top    string
		want   bool
	}{
		{domain: "example.com", top: "https://example.com/", want: true},
		{domain: ".example.com", top: "https://www.example.com/", want: true},
		{domain: "shop.example.com", top: "https://www.example.com/", want: true},
		{domain: "example.co.uk", top: "https://www.example.com/", want: false},
		{domain: "a.github.io", top: "https://b.github.io/", want: false},
		{domain: "tracker.net", top: "https://example.com/", want: false},
		{domain: "localhost", top: "http://localhost:8080/", want: true},
		{domain: "127.0.0.1", top: "http://127.0.0.1:3000/", want: true},
		{domain: "127.0.0.2", top: "http://127.0.0.1:3000/", want: false},
		{domain: "", top: "https://example.com/", want: false},
		{domain: "example.com", top: "::bad", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.domain+"@"+tt.top, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFirstParty(tt.domain, tt.top))
		})
	}
}

func TestFromHTTP(t *testing.T) {
	t.Run("host-only cookie", func(t *testing.T) {
		c := FromHTTP(&http.Cookie{Name: "sid", Value: "1", HttpOnly: true, SameSite: http.SameSiteLaxMode},
			"https://www.example.com/account/login", "https://example.com/", "0")

		assert.Equal(t, "www.example.com", c.Domain)
		assert.Equal(t, "/account", c.Path)
		assert.True(t, c.FirstParty)
		assert.True(t, c.HTTPOnly)
		assert.Equal(t, "lax", c.SameSite)
		assert.Empty(t, c.Expires)
		assert.Equal(t, "0", c.FrameID)
	})

	t.Run("third-party with expiry", func(t *testing.T) {
		expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		c := FromHTTP(&http.Cookie{Name: "uid", Value: "x", Domain: ".ads.test", Path: "/", Expires: expires, Secure: true},
			"https://px.ads.test/p", "https://example.com/", "0.1")

		assert.Equal(t, "ads.test", c.Domain)
		assert.False(t, c.FirstParty)
		assert.True(t, c.Secure)
		assert.Equal(t, "Wed, 02 Jan 2030 03:04:05 UTC", c.Expires)
	})

	t.Run("max-age wins over expires", func(t *testing.T) {
		c := FromHTTP(&http.Cookie{Name: "a", MaxAge: 3600, Expires: time.Now()}, "https://a.test/", "https://a.test/", "0")
		assert.Equal(t, "1h0m0s", c.Expires)
		assert.Equal(t, "/", c.Path)
	})
}

func TestCountsAndMerge(t *testing.T) {
	list := Merge(nil,
		Cookie{Name: "a", Domain: "x.test", Path: "/", FirstParty: true},
		Cookie{Name: "b", Domain: "y.test", Path: "/"},
	)
	list = Merge(list, Cookie{Name: "a", Domain: "x.test", Path: "/", Value: "new", FirstParty: true},
		Cookie{Name: "c", Domain: "z.test", Path: "/"})

	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].Value)

	first, third := Counts(list)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, third)

	first, third = Counts(nil)
	assert.Zero(t, first)
	assert.Zero(t, third)
}

func TestBuildTable(t *testing.T) {
	list := []Cookie{
		{Name: "beta", Domain: "b.test", Path: "/", FirstParty: true, HTTPOnly: true, SameSite: "strict"},
		{Name: "Alpha", Domain: "a.test", Path: "/", Expires: "Wed, 02 Jan 2030 03:04:05 UTC"},
		{Name: "gamma", Domain: "c.test", Path: "/x", Secure: true},
	}

	t.Run("default layout", func(t *testing.T) {
		table, err := BuildTable(list, nil, Preferences{})
		require.NoError(t, err)

		assert.Len(t, table.Columns, len(DefaultColumns))
		require.Len(t, table.Rows, 3)
		assert.Equal(t, "beta:b.test:/", table.Rows[0].Key)
		assert.Equal(t, "First Party", table.Rows[0].Cells[ColumnScope])
		assert.Equal(t, "✓", table.Rows[0].Cells[ColumnHTTPOnly])
		assert.Equal(t, "Strict", table.Rows[0].Cells[ColumnSameSite])
		assert.Equal(t, "Session", table.Rows[0].Cells[ColumnExpires])
		assert.Equal(t, "Third Party", table.Rows[1].Cells[ColumnScope])
		assert.Equal(t, "", table.Rows[1].Cells[ColumnSecure])
	})

	t.Run("sorted descending", func(t *testing.T) {
		table, err := BuildTable(list, nil, Preferences{Sorting: &Sorting{Key: ColumnName, Desc: true}})
		require.NoError(t, err)

		names := []string{table.Rows[0].Cookie.Name, table.Rows[1].Cookie.Name, table.Rows[2].Cookie.Name}
		assert.Equal(t, []string{"gamma", "beta", "Alpha"}, names)
	})

	t.Run("hidden columns", func(t *testing.T) {
		table, err := BuildTable(list, nil, Preferences{SelectedColumns: map[string]bool{
			ColumnValue: false,
			ColumnName:  false,
			ColumnFrame: true,
		}})
		require.NoError(t, err)

		keys := make([]string, 0, len(table.Columns))
		for _, c := range table.Columns {
			keys = append(keys, c.Key)
		}
		assert.Contains(t, keys, ColumnName)
		assert.NotContains(t, keys, ColumnValue)
		_, ok := table.Rows[0].Cells[ColumnValue]
		assert.False(t, ok)
	})

	t.Run("unknown sort column", func(t *testing.T) {
		_, err := BuildTable(list, nil, Preferences{Sorting: &Sorting{Key: "nope"}})
		assert.ErrorIs(t, err, ErrUnknownColumn)
	})
}
