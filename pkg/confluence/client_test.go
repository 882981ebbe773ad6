package confluence

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

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CONFLUENCE_BASE_URL", "https://wiki.example.com/")
	t.Setenv("CONFLUENCE_PAT", "secret")
	t.Setenv("CONFLUENCE_USERNAME", "")
	t.Setenv("CONFLUENCE_PASSWORD", "")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://wiki.example.com", cfg.BaseURL)
	assert.Equal(t, "secret", cfg.Token)

	t.Setenv("CONFLUENCE_PAT", "")
	_, err = ConfigFromEnv()
	assert.Error(t, err)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Token: "test-token"})
}

func TestGetPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/content/12345", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("expand"), "body.storage")

		json.NewEncoder(w).Encode(Page{
			ID:      "12345",
			Title:   "Runbook",
			Space:   &Space{Key: "OPS"},
			Version: &Version{Number: 4},
			Body:    &Body{Storage: &BodyContent{Value: "<p>hello</p>", Representation: "storage"}},
		})
	})

	page, err := client.GetPage(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "Runbook", page.Title)
	assert.Equal(t, "<p>hello</p>", page.StorageBody())
	assert.Equal(t, 4, page.Version.Number)
}

func TestGetPageByTitle(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rest/api/content", r.URL.Path)
			assert.Equal(t, "OPS", r.URL.Query().Get("spaceKey"))
			assert.Equal(t, "Runbook", r.URL.Query().Get("title"))
			json.NewEncoder(w).Encode(ContentList{Results: []Page{{ID: "1", Title: "Runbook"}}})
		})

		page, err := client.GetPageByTitle(context.Background(), "OPS", "Runbook")
		require.NoError(t, err)
		assert.Equal(t, "1", page.ID)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ContentList{})
		})

		_, err := client.GetPageByTitle(context.Background(), "OPS", "Missing")
		assert.ErrorContains(t, err, "not found")
	})
}

func TestSearchWrapsContentType(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "type = page AND (text ~ \"deploy\")", r.URL.Query().Get("cql"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(ContentList{Size: 1, Results: []Page{{ID: "9"}}})
	})

	list, err := client.Search(context.Background(), "text ~ \"deploy\"", 25, "page")
	require.NoError(t, err)
	require.Len(t, list.Results, 1)
}

func TestCreatePage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "page", payload["type"])
		assert.Equal(t, "New Page", payload["title"])
		assert.Equal(t, []any{map[string]any{"id": "777"}}, payload["ancestors"])

		json.NewEncoder(w).Encode(Page{ID: "888", Title: "New Page"})
	})

	page, err := client.CreatePage(context.Background(), CreatePageInput{
		SpaceKey: "OPS",
		Title:    "New Page",
		Body:     "<p>body</p>",
		ParentID: "777",
	})
	require.NoError(t, err)
	assert.Equal(t, "888", page.ID)
}

func TestUpdatePageIncrementsVersion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(Page{ID: "12345", Title: "Old Title", Version: &Version{Number: 7}})
		case http.MethodPut:
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "Old Title", payload["title"], "empty title keeps the current one")
			version := payload["version"].(map[string]any)
			assert.Equal(t, float64(8), version["number"])
			assert.Equal(t, true, version["minorEdit"])
			json.NewEncoder(w).Encode(Page{ID: "12345", Version: &Version{Number: 8}})
		}
	})

	page, err := client.UpdatePage(context.Background(), "12345", UpdatePageInput{
		Body:      "<p>new</p>",
		MinorEdit: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, page.Version.Number)
}

func TestDeletePage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, client.DeletePage(context.Background(), "12345"))
}

func TestUploadAttachment(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "diagram.png")
	require.NoError(t, os.WriteFile(tmpFile, []byte("png-bytes"), 0o644))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/content/12345/child/attachment", r.URL.Path)
		assert.Equal(t, "no-check", r.Header.Get("X-Atlassian-Token"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "diagram.png", header.Filename)

		json.NewEncoder(w).Encode(ContentList{Results: []Page{{ID: "att1", Title: "diagram.png"}}})
	})

	list, err := client.UploadAttachment(context.Background(), "12345", tmpFile)
	require.NoError(t, err)
	require.Len(t, list.Results, 1)
	assert.Equal(t, "diagram.png", list.Results[0].Title)
}

func TestAPIErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "A page with this title already exists"})
	})

	_, err := client.CreatePage(context.Background(), CreatePageInput{SpaceKey: "OPS", Title: "Dup"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "A page with this title already exists", apiErr.Message)
}

func TestExportPDF(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spaces/flyingpdf/pdfpageexport.action", r.URL.Path)
		assert.Equal(t, "12345", r.URL.Query().Get("pageId"))
		w.Write([]byte("%PDF-1.4 fake"))
	})

	data, err := client.ExportPDF(context.Background(), "12345")
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF")
}
