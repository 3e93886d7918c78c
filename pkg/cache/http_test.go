package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		wantErr bool
	}{
		{
			name: "valid response with all headers",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Cache-Control": []string{"max-age=60"},
					"Last-Modified": []string{time.Now().Add(-1 * time.Hour).Format(http.TimeFormat)},
					"Etag":          []string{`"abc123"`},
					"Content-Type":  []string{"application/json"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"data": []}`))),
			},
		},
		{
			name: "response without caching headers",
			resp: &http.Response{
				StatusCode: 200,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(bytes.NewReader([]byte(`{"data": []}`))),
			},
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ResponseToEntry(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			// Verify body was read and restored
			body, _ := io.ReadAll(tt.resp.Body)
			if !bytes.Equal(body, entry.Data) {
				t.Errorf("restored body = %q, want %q", body, entry.Data)
			}

			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %v, want %v", entry.StatusCode, tt.resp.StatusCode)
			}
			if want := tt.resp.Header.Get("ETag"); entry.ETag != want {
				t.Errorf("ETag = %v, want %v", entry.ETag, want)
			}
			if entry.IsExpired() {
				t.Error("fresh entry reported as expired")
			}
		})
	}
}

func TestParseExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		headers http.Header
		want    time.Time
	}{
		{
			name:    "max-age wins over Expires",
			headers: http.Header{"Cache-Control": []string{"public, max-age=120"}, "Expires": []string{now.Add(time.Hour).Format(http.TimeFormat)}},
			want:    now.Add(120 * time.Second),
		},
		{
			name:    "Expires header",
			headers: http.Header{"Expires": []string{now.Add(time.Hour).Format(http.TimeFormat)}},
			want:    now.Add(time.Hour),
		},
		{
			name:    "Expires in the past",
			headers: http.Header{"Expires": []string{now.Add(-time.Hour).Format(http.TimeFormat)}},
			want:    now,
		},
		{
			name:    "invalid Expires",
			headers: http.Header{"Expires": []string{"soon"}},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "invalid max-age falls through to default",
			headers: http.Header{"Cache-Control": []string{"max-age=abc"}},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "no headers",
			headers: http.Header{},
			want:    now.Add(DefaultTTL),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseExpires(tt.headers, now); !got.Equal(tt.want) {
				t.Errorf("parseExpires() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResponseToEntry_NoStore(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Cache-Control": []string{"no-store"}, "Etag": []string{`"x"`}},
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}
	if !entry.NoStore {
		t.Error("NoStore = false, want true")
	}
	if entry.Cacheable() {
		t.Error("no-store entry reported as cacheable")
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name              string
		entry             *Entry
		wantNoneMatch     string
		wantModifiedSince string
	}{
		{
			name:          "ETag preferred",
			entry:         &Entry{ETag: `"v1"`, LastModified: lastMod},
			wantNoneMatch: `"v1"`,
		},
		{
			name:              "Last-Modified only",
			entry:             &Entry{LastModified: lastMod},
			wantModifiedSince: lastMod.Format(http.TimeFormat),
		},
		{
			name:  "no validators",
			entry: &Entry{},
		},
		{
			name: "nil entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantNoneMatch {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantNoneMatch)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantModifiedSince {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantModifiedSince)
			}
			if want := tt.wantNoneMatch != "" || tt.wantModifiedSince != ""; ShouldMakeConditionalRequest(tt.entry) != want {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", !want, want)
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &Entry{
		Data:       []byte(`{"data":{}}`),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
	}

	resp := EntryToResponse(entry)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"data":{}}` {
		t.Errorf("body = %q", body)
	}

	// Headers must be a copy
	resp.Header.Set("X-Test", "1")
	if entry.Headers.Get("X-Test") != "" {
		t.Error("EntryToResponse shares headers with the entry")
	}
}

func TestRefreshedExpiry(t *testing.T) {
	now := time.Now()

	if _, ok := RefreshedExpiry(http.Header{}, now); ok {
		t.Error("RefreshedExpiry() ok = true for headers without caching info")
	}

	got, ok := RefreshedExpiry(http.Header{"Cache-Control": {"max-age=30"}}, now)
	if !ok || !got.Equal(now.Add(30*time.Second)) {
		t.Errorf("RefreshedExpiry() = (%v, %v), want (%v, true)", got, ok, now.Add(30*time.Second))
	}
}
