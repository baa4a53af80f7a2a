package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/download"
	"github.com/simulot/aspiravod/providers/mockup"
)

// isolate prevents tests from reading the user's configuration
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, e := range os.Environ() {
		if k, _, _ := strings.Cut(e, "="); strings.HasPrefix(k, envPrefix+"_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := isolate(t)

	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("a missing default file is not an error: %s", err)
	}
	if diff := cmp.Diff(defaultConfig(), c); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("a missing explicit file is an error")
	}

	tomlFile := filepath.Join(dir, "config.toml")
	os.WriteFile(tomlFile, []byte(`
provider = "mockup"
target = "/data/videos"
log_level = "INFO"
stall_timeout = "2m"
request_burst = 2
max_tasks = 4
`), 0o644)
	c, err = LoadConfig(tomlFile)
	if err != nil {
		t.Fatal(err)
	}
	want := defaultConfig()
	want.Provider = "mockup"
	want.Target = "/data/videos"
	want.LogLevel = "INFO"
	want.StallTimeout = textDuration(2 * time.Minute)
	want.RequestBurst = 2
	want.MaxTasks = 4
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("toml mismatch (-want +got):\n%s", diff)
	}

	yamlFile := filepath.Join(dir, "config.yaml")
	os.WriteFile(yamlFile, []byte(`
provider: mockup
wrap_width: 50
stall_timeout: 30s
headless: true
`), 0o644)
	t.Setenv("ASPIRAVOD_TARGET", "/mnt/nas")
	t.Setenv("ASPIRAVOD_STALL_TIMEOUT", "10s")
	c, err = LoadConfig(yamlFile)
	if err != nil {
		t.Fatal(err)
	}
	want = defaultConfig()
	want.Provider = "mockup"
	want.WrapWidth = 50
	want.Headless = true
	want.Target = "/mnt/nas"
	want.StallTimeout = textDuration(10 * time.Second)
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("yaml and environment mismatch (-want +got):\n%s", diff)
	}

	os.WriteFile(tomlFile, []byte(`stall_timeout = "forever"`), 0o644)
	if _, err := LoadConfig(tomlFile); err == nil {
		t.Error("expecting a decoding error")
	}
}

func TestCheck(t *testing.T) {
	home := isolate(t)
	c := defaultConfig()
	c.WrapWidth = 0
	if err := c.Check(); err != nil {
		t.Fatal(err)
	}
	if c.Target != filepath.Join(home, "Downloads") || c.WrapWidth != catalog.DefaultWrapWidth {
		t.Errorf("unexpected config %+v", c)
	}

	for name, fn := range map[string]func(c *Config){
		"provider":  func(c *Config) { c.Provider = "nowhere" },
		"log level": func(c *Config) { c.LogLevel = "LOUD" },
		"rate":      func(c *Config) { c.RequestRate = 0 },
		"burst":     func(c *Config) { c.RequestBurst = 0 },
		"stall":     func(c *Config) { c.StallTimeout = -1 },
	} {
		c := defaultConfig()
		fn(&c)
		if err := c.Check(); err == nil {
			t.Errorf("%s: expecting an error", name)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"other", errors.New("boom"), exitOther},
		{"resolution", &catalog.ResolutionError{Input: "x", Err: errors.New("bad")}, exitResolution},
		{"category", fmt.Errorf("%w: Jardinage", catalog.ErrCategoryNotFound), exitResolution},
		{"channel", fmt.Errorf("%w: TF1", catalog.ErrChannelNotFound), exitResolution},
		{"fetch", &catalog.CatalogFetchError{URL: "http://x", Err: errors.New("bad")}, exitCatalog},
		{"transcoder", &catalog.DownloadError{Err: &download.TranscodeError{Tool: "ffmpeg", ExitCode: 1}}, exitTranscoder},
		{"missing transcoder", &catalog.DownloadError{Err: &download.TranscodeError{Tool: "ffmpeg", ExitCode: -1, Err: &exec.Error{Name: "ffmpeg", Err: exec.ErrNotFound}}}, exitNoTranscoder},
		{"cancelled", &catalog.DownloadError{Err: fmt.Errorf("%w: %w", download.ErrCancelled, context.Canceled)}, exitInterrupted},
		{"context", fmt.Errorf("can't get: %w", context.Canceled), exitInterrupted},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--provider", "mockup"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func sintelID(t *testing.T) string {
	t.Helper()
	return showID(t, "sintel")
}

func showID(t *testing.T, title string) string {
	t.Helper()
	p, err := mockup.New()
	if err != nil {
		t.Fatal(err)
	}
	shows, err := p.ListShows(context.Background(), catalog.Query{Text: title, Sort: catalog.SortRelevance})
	if err != nil || len(shows) == 0 {
		t.Fatalf("can't find %q: %v", title, err)
	}
	return shows[0].ID()
}

func TestCommands(t *testing.T) {
	isolate(t)
	id := sintelID(t)
	tests := []struct {
		name     string
		args     []string
		code     int
		contains []string
		stderr   string
	}{
		{"list", []string{"list", "Animation"}, exitOK, []string{"Big Buck Bunny", "Elephants Dream"}, ""},
		{"list images", []string{"list", "all", "Garage419", "-i"}, exitOK, []string{"Subaru", "via.placeholder.com"}, ""},
		{"categories", []string{"list", "help"}, exitOK, []string{"Categories:", "Court_métrage"}, ""},
		{"channels", []string{"list", "all", "help"}, exitOK, []string{"Channels:", "Blender Studio"}, ""},
		{"unknown category", []string{"list", "Cuisine"}, exitResolution, nil, "list help"},
		{"bad sort", []string{"list", "-s", "random"}, exitOther, nil, "unknown sort order"},
		{"search", []string{"search", "dragon"}, exitOK, []string{"Sintel"}, ""},
		{"search nothing", []string{"search", "zebra"}, exitOK, []string{"No show found"}, ""},
		{"show", []string{"show", id}, exitOK, []string{"Sintel", "Genre:", "Court métrage", "Colin Levy", "Synopsis:", "<https://durian.blender.org/>"}, ""},
		{"show unknown", []string{"show", "unknown"}, exitResolution, nil, "unknown"},
		{"get keys", []string{"get", id}, exitOK, []string{"title\n", "crew\n", "stream\n"}, ""},
		{"get values", []string{"get", id, "title", "crew"}, exitOK, []string{"Sintel\n", `"Colin Levy"`}, ""},
		{"get missing", []string{"get", id, "nothing"}, exitOther, nil, "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := execute(t, tt.args...)
			if code != tt.code {
				t.Fatalf("exit code %d, want %d\nstdout: %s\nstderr: %s", code, tt.code, out, errOut)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output should contain %q:\n%s", s, out)
				}
			}
			if tt.stderr != "" && !strings.Contains(errOut, tt.stderr) {
				t.Errorf("error output should contain %q:\n%s", tt.stderr, errOut)
			}
		})
	}
}

func TestUnknownProvider(t *testing.T) {
	isolate(t)
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--provider", "nowhere", "list"}, &stdout, &stderr); code != exitOther {
		t.Errorf("exit code %d, want %d", code, exitOther)
	}
	if !strings.Contains(stderr.String(), "unknown provider") {
		t.Errorf("unexpected error output %s", stderr.String())
	}
}

func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake transcoder needs a unix shell")
	}
	p := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(p, []byte("#!/bin/sh\nfor last; do :; done\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFetch(t *testing.T) {
	isolate(t)
	id := sintelID(t)
	target := t.TempDir()

	ok := fakeTool(t, `
echo "  Duration: 00:14:48.00, start: 0.000000, bitrate: 0 kb/s" >&2
printf 'frame=   30 fps=0.0 q=-1.0 Lsize=    1024kB time=00:14:48.00 bitrate= 139.8kbits/s speed=  20x\n' >&2
echo "video" > "$last"
`)
	code, out, errOut := execute(t, "--log-level", "INFO", "fetch", id, "-t", target, "--transcoder", ok)
	if code != exitOK {
		t.Fatalf("exit code %d\n%s", code, errOut)
	}
	dest := filepath.Join(target, "Sintel_"+id+".mkv")
	if !strings.Contains(out, dest) {
		t.Errorf("output should give the file name: %s", out)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Error(err)
	}
	if !strings.Contains(errOut, "100%") {
		t.Errorf("headless progression should be logged: %s", errOut)
	}

	failing := fakeTool(t, "echo 'Error: invalid URL' >&2\nexit 1\n")
	code, _, errOut = execute(t, "fetch", id, "-t", t.TempDir(), "--transcoder", failing)
	if code != exitTranscoder || !strings.Contains(errOut, "Error: invalid URL") {
		t.Errorf("exit code %d, want %d\n%s", code, exitTranscoder, errOut)
	}

	code, _, errOut = execute(t, "fetch", id, "-t", t.TempDir(), "--transcoder", "aspiravod-missing-transcoder")
	if code != exitNoTranscoder || !strings.Contains(errOut, "--transcoder") {
		t.Errorf("exit code %d, want %d\n%s", code, exitNoTranscoder, errOut)
	}
}

func TestFetchMany(t *testing.T) {
	isolate(t)
	sintel := sintelID(t)
	bunny := showID(t, "big buck bunny")
	target := t.TempDir()

	ok := fakeTool(t, `
echo "  Duration: 00:10:00.00, start: 0.000000, bitrate: 0 kb/s" >&2
sleep 0.2
printf 'frame=   30 fps=0.0 q=-1.0 Lsize=    1024kB time=00:10:00.00 bitrate= 139.8kbits/s speed=  20x\n' >&2
echo "video" > "$last"
`)
	code, out, errOut := execute(t, "fetch", sintel, "mockup://show/"+bunny, "-t", target, "--transcoder", ok, "--max-tasks", "2")
	if code != exitOK {
		t.Fatalf("exit code %d\n%s", code, errOut)
	}
	for _, name := range []string{"Sintel_" + sintel + ".mkv", "Big_Buck_Bunny_" + bunny + ".mkv"} {
		dest := filepath.Join(target, name)
		if !strings.Contains(out, dest) {
			t.Errorf("output should give %q: %s", dest, out)
		}
		if _, err := os.Stat(dest); err != nil {
			t.Error(err)
		}
	}

	// a failing show doesn't prevent the others
	target = t.TempDir()
	code, _, errOut = execute(t, "fetch", "unknown-show", sintel, "-t", target, "--transcoder", ok)
	if code != exitResolution {
		t.Errorf("exit code %d, want %d\n%s", code, exitResolution, errOut)
	}
	if _, err := os.Stat(filepath.Join(target, "Sintel_"+sintel+".mkv")); err != nil {
		t.Error(err)
	}
}
