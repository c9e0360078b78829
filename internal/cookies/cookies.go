// Package cookies classifies cookies observed while inspecting a page and
// lays them out as the panel's cookie table.
package cookies

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Cookie is a cookie set by a frame's document, classified against the
// top-level page.
type Cookie struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Domain     string `json:"domain"`
	Path       string `json:"path"`
	Expires    string `json:"expires,omitempty"`
	HTTPOnly   bool   `json:"httpOnly"`
	Secure     bool   `json:"secure"`
	SameSite   string `json:"sameSite,omitempty"`
	FirstParty bool   `json:"isFirstParty"`
	FrameID    string `json:"frameId"`
	URL        string `json:"url"`
}

// Key identifies a cookie within a frame.
func (c Cookie) Key() string {
	return c.Name + ":" + c.Domain + ":" + c.Path
}

// FromHTTP classifies a cookie received in a response for responseURL while
// inspecting topLevelURL.
func FromHTTP(hc *http.Cookie, responseURL, topLevelURL, frameID string) Cookie {
	c := Cookie{
		Name:     hc.Name,
		Value:    hc.Value,
		Domain:   strings.TrimPrefix(strings.ToLower(hc.Domain), "."),
		Path:     hc.Path,
		HTTPOnly: hc.HttpOnly,
		Secure:   hc.Secure,
		SameSite: sameSite(hc.SameSite),
		FrameID:  frameID,
		URL:      responseURL,
	}

	if c.Domain == "" {
		if u, err := url.Parse(responseURL); err == nil {
			c.Domain = strings.ToLower(u.Hostname())
		}
	}
	if c.Path == "" {
		c.Path = defaultPath(responseURL)
	}

	switch {
	case hc.MaxAge > 0:
		c.Expires = (time.Duration(hc.MaxAge) * time.Second).String()
	case !hc.Expires.IsZero():
		c.Expires = hc.Expires.UTC().Format(time.RFC1123)
	}

	c.FirstParty = IsFirstParty(c.Domain, topLevelURL)
	return c
}

// IsFirstParty reports whether a cookie domain belongs to the same site as
// the top-level page, comparing registrable domains.
func IsFirstParty(domain, topLevelURL string) bool {
	u, err := url.Parse(topLevelURL)
	if err != nil {
		return false
	}
	top := strings.ToLower(u.Hostname())
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	if top == "" || domain == "" {
		return false
	}

	topSite, topOK := registrable(top)
	site, ok := registrable(domain)
	if !topOK || !ok {
		return top == domain
	}
	return topSite == site
}

// Counts returns the number of first- and third-party cookies.
func Counts(list []Cookie) (first, third int) {
	for _, c := range list {
		if c.FirstParty {
			first++
		} else {
			third++
		}
	}
	return first, third
}

// Merge adds incoming cookies to list. A cookie with the same key replaces
// the earlier one, like a browser cookie store does.
func Merge(list []Cookie, incoming ...Cookie) []Cookie {
	index := make(map[string]int, len(list))
	for i, c := range list {
		index[c.Key()] = i
	}
	for _, c := range incoming {
		if i, ok := index[c.Key()]; ok {
			list[i] = c
			continue
		}
		index[c.Key()] = len(list)
		list = append(list, c)
	}
	return list
}

func registrable(host string) (string, bool) {
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return "", false
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	return site, true
}

func sameSite(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	}
	return ""
}

func defaultPath(responseURL string) string {
	u, err := url.Parse(responseURL)
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	i := strings.LastIndex(u.Path, "/")
	if i == 0 {
		return "/"
	}
	return u.Path[:i]
}
