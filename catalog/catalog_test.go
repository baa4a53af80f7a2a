package catalog

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/simulot/aspiravod/download"
	"github.com/simulot/aspiravod/tree"
)

func TestQueryNormalized(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want Query
	}{
		{"empty", Query{}, Query{}},
		{"all", Query{Category: "all"}, Query{}},
		{"ALL", Query{Category: " ALL ", Channel: "All"}, Query{}},
		{"spaces", Query{Category: "Séries  et fictions", Text: "  bureau "}, Query{Category: "Séries_et_fictions", Text: "bureau"}},
		{"limit and sort kept", Query{Limit: 5, Sort: SortDate}, Query{Limit: 5, Sort: SortDate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.q.Normalized()); diff != "" {
				t.Errorf("Normalized() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSort(t *testing.T) {
	for in, want := range map[string]Sort{"": SortDefault, "alpha": SortAlpha, "Date": SortDate, " relevance ": SortRelevance} {
		got, err := ParseSort(in)
		if err != nil || got != want {
			t.Errorf("ParseSort(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseSort("random"); err == nil {
		t.Error("expecting an error")
	}
	if SortDate.String() != "date" || SortDefault.String() != "default" {
		t.Errorf("unexpected names %s, %s", SortDate, SortDefault)
	}
}

func TestCategoryIndex(t *testing.T) {
	calls := 0
	fail := true
	idx := NewCategoryIndex(func(ctx context.Context) (map[string]string, error) {
		calls++
		if fail {
			return nil, errors.New("network down")
		}
		return map[string]string{"Sport": "1", "Séries et fictions": "2", "Cinéma": "3"}, nil
	})
	ctx := context.Background()

	if _, err := idx.Names(ctx); err == nil {
		t.Fatal("expecting the loader error")
	}
	if idx.Populated() {
		t.Fatal("a failed load must leave the index empty")
	}

	fail = false
	names, err := idx.Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Cinéma", "Sport", "Séries_et_fictions"}, names); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	again, _ := idx.Names(ctx)
	if diff := cmp.Diff(names, again); diff != "" {
		t.Errorf("second call differs:\n%s", diff)
	}
	if calls != 2 {
		t.Errorf("loader called %d times, want 2", calls)
	}

	for name, want := range map[string]string{"Sport": "1", "sport": "1", "Séries et fictions": "2", "séries_ET_fictions": "2"} {
		got, err := idx.Lookup(ctx, name)
		if err != nil || got != want {
			t.Errorf("Lookup(%q) = %q, %v, want %q", name, got, err, want)
		}
	}
	if _, err := idx.Lookup(ctx, "Jardinage"); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("expecting ErrCategoryNotFound, got %v", err)
	}
	if calls != 2 {
		t.Errorf("lookups must not reload the index, %d calls", calls)
	}
}

const lorem = `Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.

Ut enim ad minim veniam, quis nostrud exercitation ullamco https://www.example.com/a/very/long/url/that/does/not/fit/on/a/single/line/of/the/terminal/at/all laboris nisi ut aliquip ex ea commodo consequat.`

func TestWrap(t *testing.T) {
	for _, width := range []int{DefaultWrapWidth, 40} {
		lines := slices.Collect(Wrap(lorem, width))
		if len(lines) < 4 {
			t.Fatalf("too few lines: %q", lines)
		}
		for _, l := range lines {
			if n := utf8.RuneCountInString(l); n > width {
				t.Errorf("line wider than %d (%d): %q", width, n, l)
			}
			if !strings.HasPrefix(l, linePrefix) {
				t.Errorf("missing prefix: %q", l)
			}
		}
		if !strings.HasPrefix(lines[0], linePrefix+firstIndent+"Lorem") {
			t.Errorf("first line not indented: %q", lines[0])
		}
		if diff := cmp.Diff(lines, slices.Collect(Wrap(lorem, width))); diff != "" {
			t.Errorf("the sequence should be restartable:\n%s", diff)
		}
	}

	var first []string
	for l := range Wrap(lorem, 40) {
		first = append(first, l)
		break
	}
	if len(first) != 1 {
		t.Errorf("early stop failed: %q", first)
	}
	if n := len(slices.Collect(Wrap("   \n\n ", 40))); n != 0 {
		t.Errorf("blank text gives %d lines", n)
	}
}

func TestWrapNarrow(t *testing.T) {
	tests := []struct {
		width          int
		prefix, indent string
	}{
		{16, linePrefix, firstIndent},
		{15, linePrefix, firstIndent},
		{13, linePrefix, ""},
		{10, linePrefix, ""},
		{9, "", ""},
		{3, "", ""},
	}
	words := strings.Join(strings.Fields(lorem), "")
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.width), func(t *testing.T) {
			lines := slices.Collect(Wrap(lorem, tt.width))
			if len(lines) == 0 {
				t.Fatal("no lines")
			}
			got := ""
			for _, l := range lines {
				if n := utf8.RuneCountInString(l); n > tt.width {
					t.Errorf("line wider than %d (%d): %q", tt.width, n, l)
				}
				if !strings.HasPrefix(l, tt.prefix) {
					t.Errorf("missing prefix: %q", l)
				}
				got += strings.Join(strings.Fields(l), "")
			}
			if !strings.HasPrefix(lines[0], tt.prefix+tt.indent+"L") {
				t.Errorf("first line %q", lines[0])
			}
			if got != words {
				t.Errorf("text lost while wrapping: %q", lines)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title, id, ext string
		want           string
	}{
		{"L'île / mystérieuse", "1234", "", "Lile_mysterieuse_1234.mkv"},
		{"Tom & Jerry: the movie?", "42", "mp4", "Tom_&_Jerry-_the_movie_42.mp4"},
		{"  Le   bureau\tdes légendes ", "99", ".mkv", "Le_bureau_des_legendes_99.mkv"},
		{"../../etc/passwd", "7", "", "etcpasswd_7.mkv"},
		{"", "42", "", "42.mkv"},
	}
	for _, tt := range tests {
		got := FileName(tt.title, tt.id, tt.ext)
		if got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.title, got, tt.want)
		}
		if strings.ContainsAny(got, `/\' `) {
			t.Errorf("unsafe file name %q", got)
		}
		if !strings.HasSuffix(strings.TrimSuffix(got, filepath.Ext(got)), tt.id) {
			t.Errorf("%q should end with the id %q", got, tt.id)
		}
	}
}

type fakeShow struct {
	id, title, stream string
}

func (s fakeShow) ID() string                 { return s.id }
func (s fakeShow) Title() string              { return s.title }
func (s fakeShow) ThumbnailURL() string       { return "" }
func (s fakeShow) Summary() iter.Seq[Field]   { return func(func(Field) bool) {} }
func (s fakeShow) Synopsis() iter.Seq[string] { return Wrap("", DefaultWrapWidth) }
func (s fakeShow) Crew() []string             { return nil }
func (s fakeShow) StreamURL() string          { return s.stream }
func (s fakeShow) Raw() tree.Value            { return tree.Value{} }

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

func TestSave(t *testing.T) {
	tool := fakeTool(t, `echo "video" > "$last"`+"\n")
	dir := t.TempDir()
	show := fakeShow{id: "1234", title: "L'île mystérieuse", stream: "http://example.com/master.m3u8"}

	got, err := Save(context.Background(), show, SaveOptions{TargetDir: dir, ToolPath: tool})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if want := filepath.Join(dir, "Lile_mysterieuse_1234.mkv"); got != want {
		t.Errorf("Save() = %q, want %q", got, want)
	}
	if _, err := os.Stat(got); err != nil {
		t.Error(err)
	}
}

func TestSaveErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Save(context.Background(), fakeShow{id: "1", title: "No stream"}, SaveOptions{TargetDir: dir})
	var de *DownloadError
	if !errors.As(err, &de) || !errors.Is(err, ErrNoStream) {
		t.Errorf("expecting a DownloadError with ErrNoStream, got %v", err)
	}

	tool := fakeTool(t, "echo 'Error: invalid URL' >&2\nexit 1\n")
	show := fakeShow{id: "2", title: "Broken", stream: "nope://"}
	_, err = Save(context.Background(), show, SaveOptions{TargetDir: dir, ToolPath: tool})
	var te *download.TranscodeError
	if !errors.As(err, &de) || !errors.As(err, &te) {
		t.Fatalf("expecting a DownloadError wrapping a TranscodeError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Error: invalid URL") {
		t.Errorf("error should contain the transcoder output: %s", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Broken_2.mkv")); !os.IsNotExist(err) {
		t.Error("destination file must not exist")
	}
}

type nullService struct{ opts Options }

func (nullService) Name() string                                      { return "null" }
func (nullService) ResolveShow(context.Context, string) (Show, error) { return nil, nil }
func (nullService) ListShows(context.Context, Query) ([]Show, error)  { return nil, nil }
func (nullService) ListCategories(context.Context) ([]string, error)  { return nil, nil }
func (nullService) ListChannels(context.Context) ([]string, error)    { return nil, nil }

func TestRegistry(t *testing.T) {
	Register("null", func(opts Options) (Service, error) {
		return nullService{opts: opts}, nil
	})
	if !slices.Contains(Names(), "null") {
		t.Fatalf("registered vendor not listed: %v", Names())
	}
	s, err := New("null", Options{})
	if err != nil {
		t.Fatal(err)
	}
	ns := s.(nullService)
	if ns.opts.WrapWidth != DefaultWrapWidth || ns.opts.Client == nil {
		t.Errorf("defaults not applied: %+v", ns.opts)
	}
	if _, err := New("nowhere", Options{}); err == nil {
		t.Error("expecting an error for an unknown vendor")
	}
}
