package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// pngBytes encodes a solid w×h PNG for use as an upload body.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding fixture png: %v", err)
	}
	return buf.Bytes()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), 200, 2)
}

func TestEnsureFolder_SeedsStubOnce(t *testing.T) {
	s := newTestStore(t)

	if err := s.EnsureFolder("alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stubPath := filepath.Join(s.Root(), "alice", ".meta.json")
	data, err := os.ReadFile(stubPath)
	if err != nil {
		t.Fatalf("reading stub: %v", err)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshaling stub: %v", err)
	}
	if m.DisplayName != "alice" {
		t.Errorf("expected display name alice, got %q", m.DisplayName)
	}
	if m.AvatarURL != "noavatar.png" {
		t.Errorf("expected stub avatar, got %q", m.AvatarURL)
	}

	// An operator edit must survive repeated folder creation.
	edited := []byte(`{"display_name":"Alice B","avatar_url":"alice.png"}`)
	if err := os.WriteFile(stubPath, edited, 0o644); err != nil {
		t.Fatalf("editing stub: %v", err)
	}
	if err := s.EnsureFolder("alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := s.Meta("alice")
	if !ok {
		t.Fatal("expected metadata after edit")
	}
	if got.DisplayName != "Alice B" || got.AvatarURL != "alice.png" {
		t.Errorf("stub was overwritten: %+v", got)
	}
}

func TestEnsureFolder_RejectsUnsafeNames(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"", "..", "../escape", "a/b", ".hidden", "groups.json"} {
		if err := s.EnsureFolder(name); err == nil {
			t.Errorf("expected error for folder name %q", name)
		}
	}
}

func TestSaveImage_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)

	err := s.SaveImage(context.Background(), "alice", now, bytes.NewReader(pngBytes(t, 400, 300)), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	original := filepath.Join(s.Root(), "alice", "2026-03-14", "10-30-00.png")
	if _, err := os.Stat(original); err != nil {
		t.Fatalf("expected original at %s: %v", original, err)
	}
	if _, err := os.Stat(original + ".thumbnail.jpeg"); err != nil {
		t.Fatalf("expected thumbnail next to original: %v", err)
	}

	images := s.ListImages("alice", "2026-03-14", "/files/alice/2026-03-14/")
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
	if images[0].Filename != "/files/alice/2026-03-14/10-30-00.png" {
		t.Errorf("unexpected filename %q", images[0].Filename)
	}
	if images[0].Timestamp != now.Unix() {
		t.Errorf("expected timestamp %d, got %d", now.Unix(), images[0].Timestamp)
	}
}

func TestSaveImage_SanitizesSuffix(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)

	err := s.SaveImage(context.Background(), "alice", now, bytes.NewReader(pngBytes(t, 10, 10)), "cam 1!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(s.Root(), "alice", "2026-03-14", "10-30-00_cam-1.png")
	if _, err := os.Stat(want); err != nil {
		entries, _ := os.ReadDir(filepath.Dir(want))
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected sanitized filename, bucket holds %v", names)
	}
}

func TestSaveImage_UndecodableBody(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)

	err := s.SaveImage(context.Background(), "alice", now, strings.NewReader("not an image"), "")
	if err == nil {
		t.Fatal("expected error for undecodable body")
	}
}

func TestListImages_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	body := pngBytes(t, 10, 10)

	// Stored out of order on purpose.
	for _, hour := range []int{10, 9, 11} {
		now := day.Add(time.Duration(hour) * time.Hour)
		if err := s.SaveImage(ctx, "alice", now, bytes.NewReader(body), ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	images := s.ListImages("alice", "2026-03-14", "")
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	for i := 1; i < len(images); i++ {
		if images[i-1].Timestamp > images[i].Timestamp {
			t.Errorf("listing not ascending at %d: %d > %d", i, images[i-1].Timestamp, images[i].Timestamp)
		}
	}
	if images[0].Filename != "09-00-00.png" || images[2].Filename != "11-00-00.png" {
		t.Errorf("unexpected order: %v", images)
	}
}

func TestListImages_MissingBucket(t *testing.T) {
	s := newTestStore(t)

	images := s.ListImages("nobody", "2026-03-14", "")
	if images == nil || len(images) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", images)
	}

	// A malformed date degrades the same way.
	images = s.ListImages("nobody", "not-a-date", "")
	if len(images) != 0 {
		t.Errorf("expected empty slice for bad date, got %#v", images)
	}
}

func TestListImages_SkipsThumbnails(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)

	if err := s.SaveImage(context.Background(), "alice", now, bytes.NewReader(pngBytes(t, 10, 10)), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	images := s.ListImages("alice", "2026-03-14", "")
	for _, img := range images {
		if strings.Contains(img.Filename, ".thumbnail.") {
			t.Errorf("thumbnail leaked into listing: %q", img.Filename)
		}
	}
	if len(images) != 1 {
		t.Errorf("expected only the original, got %d entries", len(images))
	}
}

func TestListLastUploads_Staleness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	body := pngBytes(t, 10, 10)

	if err := s.SaveImage(ctx, "fresh", now, bytes.NewReader(body), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveImage(ctx, "stale", now.AddDate(0, 0, -10), bytes.NewReader(body), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.EnsureFolder("silent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := s.ListLastUploads(now)
	if len(report) != 3 {
		t.Fatalf("expected 3 folders, got %d", len(report))
	}

	byName := map[string]FolderActivity{}
	for _, a := range report {
		byName[a.Name] = a
	}

	if byName["fresh"].Marked {
		t.Error("folder with today's upload must not be marked")
	}
	if !byName["stale"].Marked {
		t.Error("folder last active 10 days ago must be marked")
	}
	if !byName["silent"].Marked || byName["silent"].LastUpload != 0 {
		t.Errorf("never-uploaded folder must report zero and marked, got %+v", byName["silent"])
	}

	// Least active first.
	if report[0].Name != "silent" || report[2].Name != "fresh" {
		t.Errorf("unexpected order: %v", report)
	}
}

func TestGroups_MissingFile(t *testing.T) {
	s := newTestStore(t)
	if groups := s.Groups(); len(groups) != 0 {
		t.Errorf("expected empty map, got %v", groups)
	}
}

func TestGroups_ReadsMapping(t *testing.T) {
	s := newTestStore(t)
	mapping := []byte(`{"alice":"Engineering","bob":"Sales"}`)
	if err := os.WriteFile(filepath.Join(s.Root(), "groups.json"), mapping, 0o644); err != nil {
		t.Fatalf("writing groups file: %v", err)
	}

	groups := s.Groups()
	if groups["alice"] != "Engineering" || groups["bob"] != "Sales" {
		t.Errorf("unexpected mapping: %v", groups)
	}
}

func TestSanitizeSuffix(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"cam1", "cam1"},
		{"cam 1", "cam-1"},
		{"../../etc/passwd", "etc-passwd"},
		{"...", ""},
		{"  spaced  ", "spaced"},
		{strings.Repeat("a", 100), strings.Repeat("a", 64)},
	}
	for _, tc := range cases {
		if got := sanitizeSuffix(tc.in); got != tc.want {
			t.Errorf("sanitizeSuffix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMakeThumb_BoundsLargeImage(t *testing.T) {
	data, err := makeThumb(bytes.NewReader(pngBytes(t, 800, 400)), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding thumbnail: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("expected 200x100 thumbnail, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestMakeThumb_KeepsSmallImage(t *testing.T) {
	data, err := makeThumb(bytes.NewReader(pngBytes(t, 50, 40)), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding thumbnail: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 40 {
		t.Errorf("expected unscaled 50x40 thumbnail, got %dx%d", cfg.Width, cfg.Height)
	}
}
