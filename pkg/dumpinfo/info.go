// Package dumpinfo provides the two collaborators every crash artifact is
// built from: a pre-rendered header describing the process and the host, and
// a ring of recent log lines.
package dumpinfo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/willibrandon/faultline/pkg/version"
)

// HeaderWriter writes the preamble of an artifact.
type HeaderWriter interface {
	WriteHeader(w io.Writer) error
}

// LogWriter writes the most recent log lines into an artifact.
type LogWriter interface {
	WriteRecentLog(w io.Writer) error
}

// hostInfoTimeout bounds the gopsutil query at startup.
const hostInfoTimeout = 2 * time.Second

// Info is the process description captured once at startup.
type Info struct {
	Program    string
	Args       []string
	PID        int
	StartedAt  time.Time
	OS         string
	Platform   string
	Hostname   string
	GoVersion  string
	BuildInfo  string
	rendered   []byte
	now        func() time.Time
	newCrashID func() string
}

// Capture collects everything the header needs and renders it, so the
// crash path only appends the crash time and ID.
func Capture(args []string) *Info {
	info := &Info{
		Args:       args,
		PID:        os.Getpid(),
		StartedAt:  time.Now(),
		OS:         unameString(),
		GoVersion:  runtime.Version(),
		BuildInfo:  version.GetVersionInfo(),
		now:        time.Now,
		newCrashID: func() string { return uuid.New().String() },
	}

	if exe, err := os.Executable(); err == nil {
		info.Program = exe
	} else if len(args) > 0 {
		info.Program = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), hostInfoTimeout)
	defer cancel()
	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hi.Hostname
		info.Platform = strings.TrimSpace(fmt.Sprintf("%s %s (%s)", hi.Platform, hi.PlatformVersion, hi.KernelArch))
	}

	info.render()
	return info
}

func (i *Info) render() {
	var b strings.Builder
	name := filepath.Base(i.Program)
	fmt.Fprintf(&b, "Program: %s(%s)\n", i.Program, name)
	fmt.Fprintf(&b, "Command line: %s\n", strings.Join(quoteArgs(i.Args), " "))
	fmt.Fprintf(&b, "Version: %s\n", i.BuildInfo)
	fmt.Fprintf(&b, "Compiled with: %s\n", i.GoVersion)
	fmt.Fprintf(&b, "Executed on: %s\n", i.StartedAt.Format(time.RFC1123))
	fmt.Fprintf(&b, "Operating system: %s\n", i.OS)
	if i.Platform != "" {
		fmt.Fprintf(&b, "Platform: %s\n", i.Platform)
	}
	if i.Hostname != "" {
		fmt.Fprintf(&b, "Hostname: %s\n", i.Hostname)
	}
	fmt.Fprintf(&b, "Pointers: %dbit\n", strconv.IntSize)
	fmt.Fprintf(&b, "PID: %d\n", i.PID)
	i.rendered = []byte(b.String())
}

func quoteArgs(args []string) []string {
	out := make([]string, len(args))
	for n, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			a = strconv.Quote(a)
		}
		out[n] = a
	}
	return out
}

// WriteHeader writes the pre-rendered header, the crash time and a fresh
// crash ID, followed by a blank line.
func (i *Info) WriteHeader(w io.Writer) error {
	if _, err := w.Write(i.rendered); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Crashed on: %s\nCrash ID: %s\n\n",
		i.now().Format(time.RFC1123), i.newCrashID())
	return err
}

var (
	_ HeaderWriter = (*Info)(nil)
	_ LogWriter    = (*History)(nil)
)
