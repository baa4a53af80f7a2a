package download

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/simulot/aspiravod/mylog"
)

// formats gives the muxer for the destination extension
var formats = map[string]string{
	".mkv": "matroska",
	".mp4": "mp4",
	".m4v": "mp4",
	".mov": "mov",
	".ts":  "mpegts",
}

// arguments for ffmpeg, avconv accepts the same ones
func arguments(in, out string) []string {
	ext := strings.ToLower(filepath.Ext(out))
	params := []string{
		"-hide_banner", // I don't want banner
		"-nostdin",
		"-loglevel", "info", // Give me feedback
		"-stats",
		"-i", in, // Where is the stream
		"-c", "copy", // copy audio and video
	}
	if formats[ext] == "mp4" {
		params = append(params, "-bsf:a", "aac_adtstoasc")
	}
	params = append(params, "-y") // Override output file
	if f, ok := formats[ext]; ok {
		params = append(params, "-f", f)
	}
	return append(params, out)
}

const tailLines = 10

var (
	reDuration = regexp.MustCompile(`Duration:\s*(\d+):(\d{1,2}):(\d{1,2}(?:\.\d+)?)`)
	reTime     = regexp.MustCompile(`time=\s*(\d+):(\d{1,2}):(\d{1,2}(?:\.\d+)?)`)
	reSize     = regexp.MustCompile(`L?size=\s*(\d+)\s*([kKMG]i?B|B)?`)
	reSpeed    = regexp.MustCompile(`speed=\s*(\d+(?:\.\d+)?)x`)
)

// monitor reads the transcoder's output, reports the progression
// and keeps the last lines for error messages
type monitor struct {
	path    string
	n       *notifier
	wd      *watchdog
	log     *mylog.MyLog
	verbose bool

	total   time.Duration
	elapsed time.Duration

	mu        sync.Mutex
	lastLines []string
}

func newMonitor(path string, n *notifier, wd *watchdog, log *mylog.MyLog, verbose bool) *monitor {
	return &monitor{
		path:    path,
		n:       n,
		wd:      wd,
		log:     log,
		verbose: verbose,
	}
}

func (m *monitor) run(r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanLines)
	for sc.Scan() {
		m.wd.Kick()
		m.line(sc.Text())
	}
	// drain what the scanner left, the writer must never block
	io.Copy(io.Discard, r)
}

func (m *monitor) line(l string) {
	if strings.TrimSpace(l) == "" {
		return
	}
	if strings.HasPrefix(l, "frame=") || strings.HasPrefix(l, "size=") {
		m.log.Trace().Printf("[FFMPEG] %s", l)
		if p, ok := m.progress(l); ok && p.Elapsed >= m.elapsed {
			m.elapsed = p.Elapsed
			m.n.post(p)
		}
		return
	}
	if m.verbose {
		m.log.Info().Printf("[FFMPEG] %s", l)
	} else {
		m.log.Debug().Printf("[FFMPEG] %s", l)
	}
	if match := reDuration.FindStringSubmatch(l); match != nil {
		if d, ok := clock(match[1:]); ok {
			m.total = d
		}
		return
	}
	if l[0] == ' ' || l[0] == '\t' {
		// stream details
		return
	}
	m.mu.Lock()
	m.lastLines = append(m.lastLines, l)
	if len(m.lastLines) > tailLines {
		m.lastLines = m.lastLines[len(m.lastLines)-tailLines:]
	}
	m.mu.Unlock()
}

// progress parses lines like
// frame= 1234 fps=250 q=-1.0 size=   10240kB time=00:00:49.40 bitrate=1698.1kbits/s speed=9.87x
func (m *monitor) progress(l string) (Progress, bool) {
	p := Progress{
		Path:  m.path,
		Total: m.total,
	}
	match := reTime.FindStringSubmatch(l)
	if match == nil {
		// time=N/A at the very beginning
		return p, false
	}
	var ok bool
	if p.Elapsed, ok = clock(match[1:]); !ok {
		return p, false
	}
	if match := reSize.FindStringSubmatch(l); match != nil {
		p.Size = size(match[1], match[2])
	}
	if match := reSpeed.FindStringSubmatch(l); match != nil {
		p.Speed, _ = strconv.ParseFloat(match[1], 64)
	}
	p.Final = strings.Contains(l, "Lsize=")
	return p, true
}

func (m *monitor) tail() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.lastLines, "\n")
}

// clock converts hours, minutes, seconds into a duration
func clock(hms []string) (time.Duration, bool) {
	if len(hms) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(hms[0])
	m, err2 := strconv.Atoi(hms[1])
	s, err3 := strconv.ParseFloat(hms[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s*float64(time.Second)), true
}

func size(n, unit string) int64 {
	v, err := strconv.ParseInt(n, 10, 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(strings.TrimSuffix(strings.TrimSuffix(unit, "B"), "i")) {
	case "K":
		v *= 1024
	case "M":
		v *= 1024 * 1024
	case "G":
		v *= 1024 * 1024 * 1024
	}
	return v
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[0 : len(data)-1]
	}
	return data
}

// scanLines splits on \n and on \r, ffmpeg rewrites its stats line with \r
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, dropCR(data[0:i]), nil
	}
	// If we're at EOF, we have a final, non-terminated line. Return it.
	if atEOF {
		return len(data), dropCR(data), nil
	}
	// Request more data.
	return 0, nil, nil
}
