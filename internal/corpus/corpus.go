// Package corpus loads the site content document and extracts the indexable
// text of each page.
//
// The corpus schema is deliberately loose: beyond pageId and the meta block,
// a page is an open-ended JSON object and every string value anywhere inside
// it counts as indexable content.
package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const fetchTimeout = 30 * time.Second

// Site identifies the site the corpus describes.
type Site struct {
	Brand   string `json:"brand"`
	BaseURL string `json:"baseUrl"`
}

// Meta is the structured part of a page.
type Meta struct {
	Title string   `json:"title"`
	Path  string   `json:"path"`
	Tags  []string `json:"tags,omitempty"`
}

// Page is one logical content page. It keeps its raw JSON so Text can walk
// fields the typed schema does not know about.
type Page struct {
	PageID string
	Meta   Meta

	raw json.RawMessage
}

// UnmarshalJSON decodes the typed head of a page and retains the raw object.
func (p *Page) UnmarshalJSON(data []byte) error {
	var head struct {
		PageID string `json:"pageId"`
		Meta   Meta   `json:"meta"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	p.PageID = head.PageID
	p.Meta = head.Meta
	p.raw = append(p.raw[:0], data...)
	return nil
}

// Text collects every string leaf in the page object, depth first and in
// document order, joined with newlines.
func (p *Page) Text() string {
	if len(p.raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(p.raw))
	var parts []string
	if err := collectStrings(dec, &parts); err != nil {
		// The raw bytes were validated during unmarshalling, so a walk
		// failure means a partially constructed Page.
		return ""
	}
	return strings.Join(parts, "\n")
}

// collectStrings consumes one JSON value from dec, appending every string
// leaf it contains. Object keys are not content and are skipped.
func collectStrings(dec *json.Decoder, out *[]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			for dec.More() {
				if _, err := dec.Token(); err != nil { // key
					return err
				}
				if err := collectStrings(dec, out); err != nil {
					return err
				}
			}
			_, err := dec.Token() // closing brace
			return err
		case '[':
			for dec.More() {
				if err := collectStrings(dec, out); err != nil {
					return err
				}
			}
			_, err := dec.Token() // closing bracket
			return err
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			*out = append(*out, s)
		}
	}
	return nil
}

// Document is the parsed corpus.
type Document struct {
	Version string `json:"version"`
	Site    Site   `json:"site"`
	Pages   []Page `json:"pages"`
}

// Load reads the corpus from a local file path or an http(s) URL and parses
// it. A fetch or parse failure aborts before anything downstream runs.
func Load(ctx context.Context, source string) (*Document, error) {
	data, err := read(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus %s: %w", source, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", source, err)
	}
	return &doc, nil
}

func read(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}
