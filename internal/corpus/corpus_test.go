package corpus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCorpus = `{
	"version": "1.0",
	"site": {"brand": "Acme", "baseUrl": "https://acme.example"},
	"pages": [
		{
			"pageId": "about",
			"meta": {"title": "About", "path": "/about", "tags": ["company"]},
			"hero": {
				"title": "Our Mission",
				"description": "We build things for 15 years."
			},
			"sections": [
				{"heading": "History", "body": "Founded in a garage."},
				{"heading": "Today", "body": "Offices worldwide."}
			],
			"featured": true,
			"rank": 3
		}
	]
}`

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCorpus), 0o644))

	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "Acme", doc.Site.Brand)
	assert.Equal(t, "https://acme.example", doc.Site.BaseURL)
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	assert.Equal(t, "about", page.PageID)
	assert.Equal(t, "About", page.Meta.Title)
	assert.Equal(t, "/about", page.Meta.Path)
	assert.Equal(t, []string{"company"}, page.Meta.Tags)
}

func TestLoad_FromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleCorpus))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "about", doc.Pages[0].PageID)
}

func TestLoad_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestLoad_ParseFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestPageText_CollectsStringsInDocumentOrder(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(`{
		"pageId": "p1",
		"meta": {"title": "T", "path": "/p"},
		"first": "one",
		"nested": {"a": "two", "b": ["three", {"c": "four"}]},
		"count": 7,
		"flag": false,
		"last": "five"
	}`), &page))

	assert.Equal(t, "p1\nT\n/p\none\ntwo\nthree\nfour\nfive", page.Text())
}

func TestPageText_IgnoresNonStringLeavesAndBlanks(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(`{
		"pageId": "p2",
		"numbers": [1, 2, 3],
		"empty": "   ",
		"note": "kept"
	}`), &page))

	assert.Equal(t, "p2\nkept", page.Text())
}

func TestPageText_EmptyPage(t *testing.T) {
	var page Page
	assert.Equal(t, "", page.Text())
}
