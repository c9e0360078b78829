// Package inspection inspects web pages and keeps the results for the
// devtools panel.
//
// An inspection fetches the top-level document, then the documents of its
// iframes breadth first, and records the frame tree together with the
// cookies every document set. Tooltips, the cookie table and exports are
// all derived from a stored inspection.
package inspection
