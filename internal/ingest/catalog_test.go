package ingest

import (
	"reflect"
	"testing"
)

var testCatalog = Catalog{
	{ID: 1, Name: "US West: Los Angeles, CA", URLTemplate: "rtmp://lax.contribute.live-video.net/app/{stream_key}", Availability: 1},
	{ID: 2, Name: "US East: New York, NY", URLTemplate: "rtmp://jfk.contribute.live-video.net/app/{stream_key}", Availability: 1, Default: true},
	{ID: 3, Name: "EU: Frankfurt, DE", URLTemplate: "rtmp://fra.contribute.live-video.net/app/{stream_key}", Availability: 0},
}

func TestParseService(t *testing.T) {
	tests := []struct {
		in      string
		want    Service
		wantErr bool
	}{
		{"", ServiceTwitch, false},
		{"twitch", ServiceTwitch, false},
		{" Twitch ", ServiceTwitch, false},
		{"CUSTOM", ServiceCustom, false},
		{"youtube", "", true},
	}
	for _, tt := range tests {
		got, err := ParseService(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseService(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseService(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIngest_URL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		key      string
		want     string
	}{
		{"placeholder", "rtmp://host/app/{stream_key}", "live_1", "rtmp://host/app/live_1"},
		{"no placeholder", "rtmp://host/app", "live_1", "rtmp://host/app/live_1"},
		{"trailing slash", "rtmp://host/app/", "live_1", "rtmp://host/app/live_1"},
		{"no key", "rtmp://host/app", "", "rtmp://host/app"},
		{"empty placeholder", "rtmp://host/app/{stream_key}", "", "rtmp://host/app/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ingest{URLTemplate: tt.template}.URL(tt.key)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCatalog_Filter(t *testing.T) {
	got := testCatalog.Filter("us ").Names()
	want := []string{"US West: Los Angeles, CA", "US East: New York, NY"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if n := len(testCatalog.Filter("tokyo")); n != 0 {
		t.Errorf("Expected no match, got %d", n)
	}
	if n := len(testCatalog.Filter("")); n != len(testCatalog) {
		t.Errorf("Expected empty filter to keep all %d, got %d", len(testCatalog), n)
	}
}

func TestCatalog_Available(t *testing.T) {
	if n := len(testCatalog.Available()); n != 2 {
		t.Errorf("Expected 2 available ingests, got %d", n)
	}
}

func TestCatalog_Find(t *testing.T) {
	ing, ok := testCatalog.Find("EU: Frankfurt, DE")
	if !ok || ing.ID != 3 {
		t.Errorf("Expected Frankfurt ingest, got %+v (ok=%v)", ing, ok)
	}
	if _, ok := testCatalog.Find("nowhere"); ok {
		t.Error("Expected unknown name not to be found")
	}
}

func TestCatalog_Default(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantID  int
		wantOK  bool
	}{
		{"recommended", testCatalog, 2, true},
		{"first available", Catalog{testCatalog[2], testCatalog[0]}, 1, true},
		{"none available", Catalog{testCatalog[2]}, 0, false},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.catalog.Default()
			if ok != tt.wantOK || got.ID != tt.wantID {
				t.Errorf("Expected id %d (ok=%v), got %d (ok=%v)", tt.wantID, tt.wantOK, got.ID, ok)
			}
		})
	}
}
