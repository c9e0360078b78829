package inspection

import (
	"fmt"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
)

// SetPreferences replaces the cookie table settings of an inspection.
func (s *Service) SetPreferences(id string, prefs cookies.Preferences) error {
	in, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := prefs.Validate(s.cfg.Columns); err != nil {
		return err
	}

	in.mu.Lock()
	in.prefs = prefs
	in.mu.Unlock()
	return nil
}

// Select updates the panel selection. Cookie selections must name a cookie
// of the given frame.
func (s *Service) Select(id string, sel Selection) error {
	in, err := s.Get(id)
	if err != nil {
		return err
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if sel.Frame != "" && in.root.Find(sel.Frame) == nil {
		return fmt.Errorf("%w: %s", ErrFrameNotFound, sel.Frame)
	}
	for frameID, key := range sel.Cookies {
		if in.root.Find(frameID) == nil {
			return fmt.Errorf("%w: %s", ErrFrameNotFound, frameID)
		}
		if key != "" && !hasCookie(in.cookies[frameID], key) {
			return fmt.Errorf("%w: %s", ErrCookieNotFound, key)
		}
	}

	in.selection.Frame = sel.Frame
	if in.selection.Cookies == nil {
		in.selection.Cookies = make(map[string]string)
	}
	for frameID, key := range sel.Cookies {
		if key == "" {
			delete(in.selection.Cookies, frameID)
			continue
		}
		in.selection.Cookies[frameID] = key
	}
	return nil
}

// Table renders the cookie table of one frame, or of the whole page when
// frameID is empty. prefs overrides the stored preferences when set.
func (s *Service) Table(id, frameID string, prefs *cookies.Preferences) (*cookies.Table, error) {
	in, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if frameID != "" && in.Root().Find(frameID) == nil {
		return nil, fmt.Errorf("%w: %s", ErrFrameNotFound, frameID)
	}

	p := in.Preferences()
	if prefs != nil {
		p = *prefs
	}
	table, err := cookies.BuildTable(in.Cookies(frameID), s.cfg.Columns, p)
	if err != nil {
		return nil, err
	}

	if frameID != "" {
		in.mu.Lock()
		if key, ok := in.selection.Cookies[frameID]; ok && !hasCookie(in.cookies[frameID], key) {
			delete(in.selection.Cookies, frameID)
		}
		in.mu.Unlock()
	}
	return table, nil
}
